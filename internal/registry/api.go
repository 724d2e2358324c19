// Package registry implements the HTTP service that stores named patterns
// and runs compile/match/find operations against them on demand.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tendril-lang/tendril/internal/cache"
	"github.com/tendril-lang/tendril/internal/registry/auth"
	"github.com/tendril-lang/tendril/internal/registry/live"
	"github.com/tendril-lang/tendril/internal/registry/middleware"
	"github.com/tendril-lang/tendril/internal/registry/ratelimit"
	"github.com/tendril-lang/tendril/internal/registry/router"
	"github.com/tendril-lang/tendril/internal/registry/store"
	"github.com/tendril-lang/tendril/pkg/tendril"
)

// API wires a pattern store to the HTTP surface.
type API struct {
	store    store.Store
	programs *cache.ProgramCache
	logger   *zap.Logger
	watchHub *live.Hub
	limiter  ratelimit.RateLimiter
}

// New creates a registry API backed by the given store and program cache.
// limiter may be nil, in which case requests go unrestricted.
func New(s store.Store, programs *cache.ProgramCache, logger *zap.Logger, limiter ratelimit.RateLimiter) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &API{store: s, programs: programs, logger: logger, limiter: limiter}

	hub := live.NewWatchHub(context.Background(), a.resolveWatchSubject)
	hub.SetLogger(logger)
	go hub.Run()
	a.watchHub = hub

	return a
}

// resolveWatchSubject matches a posted subject against a stored pattern for
// a live /watch connection, returning one map per solution.
func (a *API) resolveWatchSubject(ctx context.Context, patternID string, subject json.RawMessage) ([]map[string]interface{}, error) {
	p, err := a.store.Get(ctx, patternID)
	if err != nil {
		return nil, err
	}
	prog, diags := a.programs.Compile(ctx, p.Source)
	if len(diags) > 0 {
		return nil, fmt.Errorf("pattern %s does not compile", patternID)
	}
	subj, err := tendril.FromJSON(subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	sols := prog.Solutions(subj, tendril.Options{})
	out := make([]map[string]interface{}, len(sols))
	for i, s := range sols {
		out[i] = jsonifyBindings(s.Bindings)
	}
	return out, nil
}

// Router builds the chi-backed router exposing the registry's endpoints,
// with authentication and RBAC applied per route.
func (a *API) Router(authService *auth.AuthService) *router.Router {
	r := router.NewRouter()
	router.SetupDefaultErrorHandlers(r, false)

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.Logging())
	if a.limiter != nil {
		r.Use(middleware.RateLimit(a.limiter))
	}
	r.Use(middleware.Auth(authService))

	r.Get("/patterns", a.listPatterns).Named("patterns.list")
	r.Post("/patterns", a.createPattern).Named("patterns.create")
	r.Get("/patterns/{id}", a.getPattern).Named("patterns.show")
	r.Put("/patterns/{id}", a.updatePattern).Named("patterns.update")
	r.Delete("/patterns/{id}", a.deletePattern).Named("patterns.delete")
	r.Post("/patterns/{id}/match", a.matchPattern).Named("patterns.match")
	r.Post("/patterns/{id}/find", a.findPattern).Named("patterns.find")
	r.Get("/patterns/{id}/watch", a.watchPattern).Named("patterns.watch")

	return r
}

// watchPattern upgrades to a websocket connection bound to one stored
// pattern: the client posts "subject" messages and receives "solutions"
// messages as matches are computed.
func (a *API) watchPattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsRead) {
		return
	}
	p, err := a.lookup(w, r)
	if err != nil {
		return
	}
	patternID := p.ID

	upgrader := live.NewUpgrader(nil, a.watchHub)
	upgrader.OnConnect = func(client *live.Client) {
		live.BindPattern(client, patternID)
	}
	upgrader.ServeHTTP(w, r)
}

type patternRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type patternResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

func toResponse(p *store.Pattern) patternResponse {
	return patternResponse{ID: p.ID, Name: p.Name, Source: p.Source}
}

func (a *API) listPatterns(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsRead) {
		return
	}
	patterns, err := a.store.List(r.Context())
	if err != nil {
		router.InternalServerError(w, err)
		return
	}
	out := make([]patternResponse, len(patterns))
	for i, p := range patterns {
		out[i] = toResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createPattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsCreate) {
		return
	}
	var req patternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		router.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Source == "" {
		router.BadRequest(w, "name and source are required")
		return
	}
	if _, diags := a.programs.Compile(r.Context(), req.Source); len(diags) > 0 {
		router.UnprocessableEntity(w, "pattern does not compile", diagnosticDetails(diags))
		return
	}

	p := &store.Pattern{
		Name:      req.Name,
		Source:    req.Source,
		CreatedBy: auth.GetCurrentUser(r.Context()),
	}
	if err := a.store.Create(r.Context(), p); err != nil {
		router.InternalServerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(p))
}

func (a *API) getPattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsRead) {
		return
	}
	p, err := a.lookup(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

func (a *API) updatePattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsUpdate) {
		return
	}
	p, err := a.lookup(w, r)
	if err != nil {
		return
	}
	var req patternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		router.BadRequest(w, "invalid JSON body")
		return
	}
	if req.Source != "" {
		if _, diags := a.programs.Compile(r.Context(), req.Source); len(diags) > 0 {
			router.UnprocessableEntity(w, "pattern does not compile", diagnosticDetails(diags))
			return
		}
		a.programs.Invalidate(r.Context(), p.Source)
		p.Source = req.Source
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if err := a.store.Update(r.Context(), p); err != nil {
		router.InternalServerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(p))
}

func (a *API) deletePattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsDelete) {
		return
	}
	id := routeParam(r, "id")
	if err := a.store.Delete(r.Context(), id); err != nil {
		if err == store.ErrNotFound {
			router.NotFound(w, "pattern not found")
			return
		}
		router.InternalServerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchRequest struct {
	Subject      json.RawMessage `json:"subject"`
	All          bool            `json:"all,omitempty"`
	MaxResults   int             `json:"max_results,omitempty"`
	Overlapping  bool            `json:"overlapping,omitempty"`
	StepBudget   int             `json:"step_budget,omitempty"`
	MaxSolutions int             `json:"max_solutions,omitempty"`
}

func (a *API) matchPattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsRead) {
		return
	}
	p, err := a.lookup(w, r)
	if err != nil {
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		router.BadRequest(w, "invalid JSON body")
		return
	}
	subj, err := tendril.FromJSON(req.Subject)
	if err != nil {
		router.BadRequest(w, "invalid subject JSON: "+err.Error())
		return
	}
	prog, diags := a.programs.Compile(r.Context(), p.Source)
	if len(diags) > 0 {
		router.InternalServerError(w, nil)
		return
	}
	opts := tendril.Options{StepBudget: req.StepBudget, MaxSolutions: req.MaxSolutions}

	if !req.All {
		sol, ok := prog.First(subj, opts)
		if !ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{"matched": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matched": true, "bindings": jsonifyBindings(sol.Bindings)})
		return
	}

	sols := prog.Solutions(subj, opts)
	results := make([]map[string]interface{}, len(sols))
	for i, s := range sols {
		results[i] = jsonifyBindings(s.Bindings)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matched": len(sols) > 0, "solutions": results})
}

func (a *API) findPattern(w http.ResponseWriter, r *http.Request) {
	if !a.authorize(w, r, auth.PatternsRead) {
		return
	}
	p, err := a.lookup(w, r)
	if err != nil {
		return
	}
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		router.BadRequest(w, "invalid JSON body")
		return
	}
	root, err := tendril.FromJSON(req.Subject)
	if err != nil {
		router.BadRequest(w, "invalid subject JSON: "+err.Error())
		return
	}
	prog, diags := a.programs.Compile(r.Context(), p.Source)
	if len(diags) > 0 {
		router.InternalServerError(w, nil)
		return
	}
	found := prog.Find(root, tendril.FindOptions{
		Options:     tendril.Options{StepBudget: req.StepBudget, MaxSolutions: req.MaxSolutions},
		MaxResults:  req.MaxResults,
		Overlapping: req.Overlapping,
	})
	results := make([]map[string]interface{}, len(found))
	for i, f := range found {
		results[i] = map[string]interface{}{
			"path":     tendril.PathString(f),
			"bindings": jsonifyBindings(f.Solution.Bindings),
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) (*store.Pattern, error) {
	id := routeParam(r, "id")
	p, err := a.store.Get(r.Context(), id)
	if err == store.ErrNotFound {
		router.NotFound(w, "pattern not found")
		return nil, err
	}
	if err != nil {
		router.InternalServerError(w, err)
		return nil, err
	}
	return p, nil
}

func (a *API) authorize(w http.ResponseWriter, r *http.Request, perm auth.RBACPermission) bool {
	roles := auth.GetUserRoles(r.Context())
	if len(roles) == 0 {
		router.Unauthorized(w, "authentication required")
		return false
	}
	if !auth.UserHasPermission(roles, perm) {
		router.Forbidden(w, "insufficient permissions")
		return false
	}
	return true
}

func jsonifyBindings(b map[string]tendril.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(b))
	for k, v := range b {
		out[k] = tendril.ToJSON(v)
	}
	return out
}

func diagnosticDetails(diags tendril.Diagnostics) map[string]interface{} {
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.Format()
	}
	return map[string]interface{}{"diagnostics": msgs}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func routeParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
