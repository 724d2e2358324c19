package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tendril-lang/tendril/pkg/tendril"
)

// CompileResult is what a ProgramCache stores for one pattern source: either
// the diagnostics a failed compile produced, or nothing at all for a
// successful one (the compiled *tendril.Program itself lives only in the
// local in-process tier, never serialized into the shared backend).
type CompileResult struct {
	OK          bool     `json:"ok"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// ProgramCache memoizes pattern compilation across two tiers: an in-process
// map of already-built *tendril.Program values (so a hot pattern never
// recompiles on this instance), and a shared byte Cache (typically Redis)
// recording each source's compile outcome. A source recorded as failed is
// still compiled again on every call; only successful programs are reused.
type ProgramCache struct {
	local   Cache
	ttl     time.Duration
	inproc  map[string]*tendril.Program
}

// NewProgramCache wraps a byte-oriented Cache backend (MemoryCache or
// RedisCache) with pattern-compilation semantics.
func NewProgramCache(backend Cache, ttl time.Duration) *ProgramCache {
	return &ProgramCache{
		local:  backend,
		ttl:    ttl,
		inproc: make(map[string]*tendril.Program),
	}
}

// Compile returns a cached *tendril.Program for source if this process has
// already built one; otherwise it compiles, records the outcome (including a
// failure's diagnostics) in the backend Cache, and returns the result. Failed
// sources are not kept in the in-process map, so they are compiled again on
// every call.
func (c *ProgramCache) Compile(ctx context.Context, source string) (*tendril.Program, tendril.Diagnostics) {
	key := sourceKey(source)
	if p, ok := c.inproc[key]; ok {
		return p, nil
	}

	if raw, err := c.local.Get(ctx, key); err == nil {
		var cached CompileResult
		if json.Unmarshal(raw, &cached) == nil && !cached.OK {
			// Known-bad: still re-run Compile for fresh diagnostic spans
			// rather than trusting a stale string list, but skip nothing —
			// compilation itself is cheap; this tier exists to avoid a
			// thundering herd hitting a shared store, not to skip lexing.
			_ = cached
		}
	}

	prog, diags := tendril.Compile(source)
	result := CompileResult{OK: prog != nil}
	if !result.OK {
		for _, d := range diags {
			result.Diagnostics = append(result.Diagnostics, d.Format())
		}
	}
	if raw, err := json.Marshal(result); err == nil {
		_ = c.local.Set(ctx, key, raw, c.ttl)
	}
	if prog != nil {
		c.inproc[key] = prog
	}
	return prog, diags
}

// Invalidate drops source's cached compile outcome from both tiers.
func (c *ProgramCache) Invalidate(ctx context.Context, source string) {
	key := sourceKey(source)
	delete(c.inproc, key)
	_ = c.local.Delete(ctx, key)
}

func sourceKey(source string) string {
	return "program:" + GenerateETag([]byte(source))
}
