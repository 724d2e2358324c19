// Package scan implements find(): enumerating every position within a value
// tree where a pattern matches. Unlike Solve (which matches
// only at the root), scan walks every object value, array element, and set
// member, recursing into the match at each, and de-duplicates solutions that
// land on the same (position, bindings) pair.
package scan

import (
	"fmt"
	"sort"

	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/match"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// Found is one match discovered somewhere in the scanned tree.
type Found struct {
	Path     match.Path
	Value    value.Value
	Solution match.Solution
}

// Options configures a Find pass.
type Options struct {
	// StepBudget caps per-position match work; <=0 means unbounded.
	StepBudget int
	// MaxSolutionsPerSite caps solutions enumerated at any one position;
	// <=0 selects Solve's own default.
	MaxSolutionsPerSite int
	// MaxResults caps the total number of Found results returned across the
	// whole tree; <=0 means unbounded. Exists to guard pathological inputs
	// where a loose pattern (e.g. a bare variable) matches everywhere.
	MaxResults int
	// Overlapping, when false (the default), skips descending into a
	// subtree once a match has been found at its root, so a found object
	// doesn't also report matches at every one of its nested children for
	// the *same* pattern. Set true to report every matching position
	// regardless of containment.
	Overlapping bool
}

// Find walks root depth-first, attempting program against every reachable
// position (including root itself), and returns every match found in
// pre-order. With Options.Overlapping false, a found position's descendants
// are skipped for this same walk.
func Find(program *ast.Program, root value.Value, opts Options) []Found {
	w := &walker{
		program: program,
		opts:    opts,
	}
	w.walk(root, nil)
	return w.results
}

type walker struct {
	program *ast.Program
	opts    Options
	results []Found
	seen    map[string]bool
}

func (w *walker) budget() match.Options {
	return match.Options{StepBudget: w.opts.StepBudget, MaxSolutions: w.opts.MaxSolutionsPerSite}
}

func (w *walker) done() bool {
	return w.opts.MaxResults > 0 && len(w.results) >= w.opts.MaxResults
}

func (w *walker) walk(v value.Value, at match.Path) {
	if w.done() {
		return
	}
	matchedHere := w.tryAt(v, at)
	if matchedHere && !w.opts.Overlapping {
		return
	}
	switch v.Kind() {
	case value.KindObject:
		for _, key := range v.AsObject().Keys() {
			if w.done() {
				return
			}
			child, _ := v.AsObject().Get(key)
			w.walk(child, appendPath(at, match.PathStep{Kind: match.StepKey, Key: key}))
		}
	case value.KindArray:
		for i, el := range v.AsArray() {
			if w.done() {
				return
			}
			w.walk(el, appendPath(at, match.PathStep{Kind: match.StepIndex, Index: i}))
		}
	case value.KindSet:
		for i, el := range v.AsSet() {
			if w.done() {
				return
			}
			w.walk(el, appendPath(at, match.PathStep{Kind: match.StepIndex, Index: i}))
		}
	}
}

// tryAt attempts the pattern at v's position, recording every solution
// de-duplicated by (path, bindings), and reports whether at least one
// solution was found here.
func (w *walker) tryAt(v value.Value, at match.Path) bool {
	it := match.Solve(w.program, v, w.budget())
	found := false
	for {
		sol, ok := it.Next()
		if !ok {
			break
		}
		if w.done() {
			break
		}
		found = true
		key := dedupKey(at, sol.Bindings)
		if w.seen == nil {
			w.seen = map[string]bool{}
		}
		if w.seen[key] {
			continue
		}
		w.seen[key] = true
		w.results = append(w.results, Found{Path: at, Value: v, Solution: sol})
	}
	return found
}

func dedupKey(at match.Path, bindings map[string]value.Value) string {
	names := make([]string, 0, len(bindings))
	for n := range bindings {
		names = append(names, n)
	}
	sort.Strings(names)
	key := fmt.Sprintf("%v", at)
	for _, n := range names {
		key += "|" + n + "=" + fmt.Sprintf("%v", bindings[n])
	}
	return key
}

func appendPath(base match.Path, step match.PathStep) match.Path {
	out := make(match.Path, len(base)+1)
	copy(out, base)
	out[len(base)] = step
	return out
}
