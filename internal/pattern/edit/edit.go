// Package edit applies a match solution's bindings back onto the original
// value tree, producing a new value without mutating the input.
// Unchanged subtrees are shared; only containers on the path from root to
// an edit site are shallow-cloned.
package edit

import (
	"fmt"
	"sort"

	"github.com/tendril-lang/tendril/internal/pattern/match"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// ReplaceFn computes the replacement for a whole-match edit, given the
// solution's bindings.
type ReplaceFn func(bindings map[string]value.Value) value.Value

// PlanFn computes a per-variable replacement plan for an editAll pass: a
// mapping from variable name (or "$0" for the whole match) to its new value.
type PlanFn func(bindings map[string]value.Value) map[string]value.Value

// ReplaceAll applies fn to every occurrence of a root-level match's whole
// subject. Since Solve already matches at a single root, "every match
// site" here is exactly one: the root, if it matched at all.
func ReplaceAll(root value.Value, sol match.Solution, fn ReplaceFn) value.Value {
	return fn(sol.Bindings)
}

// EditAll applies a per-binding replacement plan produced by planFn against
// every occurrence recorded in sol.Occurrences, returning a new root value.
// "$0" in the plan targets the whole match via the empty path, a shortcut
// for ReplaceAll. Splicing a non-array value into an array-slice (@name)
// binding's occurrence is a hard error.
func EditAll(root value.Value, sol match.Solution, planFn PlanFn) (value.Value, error) {
	plan := planFn(sol.Bindings)
	if len(plan) == 0 {
		return root, nil
	}

	var sites []site
	for name, newVal := range plan {
		if name == "$0" {
			sites = append(sites, site{path: nil, value: newVal, kind: match.OccScalar})
			continue
		}
		for _, occ := range sol.Occurrences[name] {
			if occ.Kind == match.OccArraySplice && newVal.Kind() != value.KindArray {
				return root, fmt.Errorf("edit: variable %q occurs in an array-slice position; replacement must be an array, got %s", name, newVal.Kind())
			}
			sites = append(sites, site{path: occ.Path, value: newVal, kind: occ.Kind, spliceLen: occ.Len})
		}
	}
	return applySites(root, sites), nil
}

// ReplaceMarker applies fn only at the pattern's `>> P <<` replacement
// site, leaving every other matched position untouched.
func ReplaceMarker(root value.Value, sol match.Solution, fn ReplaceFn) (value.Value, error) {
	if sol.ReplSite == nil {
		return root, fmt.Errorf("edit: pattern has no replacement marker")
	}
	newVal := fn(sol.Bindings)
	return applySites(root, []site{{path: sol.ReplSite.Path, value: newVal, kind: match.OccScalar}}), nil
}

type site struct {
	path      match.Path
	value     value.Value
	kind      match.OccKind
	spliceLen int
}

// applySites coordinates every edit in one pass: group by top-level
// container, recurse, and rebuild only the touched spine. Sibling splices
// within the same array are offset against the original indices so later
// ones never see a shifted view.
func applySites(root value.Value, sites []site) value.Value {
	if len(sites) == 0 {
		return root
	}
	return applyAt(root, nil, sites)
}

// applyAt rewrites the subtree at `at` (root-relative) given every site
// whose path is anchored there or below.
func applyAt(v value.Value, at match.Path, sites []site) value.Value {
	here, deeper := partition(sites, at)
	if len(here) > 0 {
		// A site anchored exactly here always wins for scalar replacement;
		// object-key-splice and array-splice sites are handled by the
		// caller one level up, since they mutate the *parent* container.
		for _, s := range here {
			if len(s.path) == len(at) {
				if s.kind == match.OccScalar {
					v = s.value
				}
			}
		}
	}
	if len(deeper) == 0 {
		return v
	}

	switch v.Kind() {
	case value.KindArray:
		return applyArray(v, at, deeper)
	case value.KindObject:
		return applyObject(v, at, deeper)
	default:
		return v
	}
}

// partition splits sites into those exactly at `at` and those that
// continue deeper, dropping anything whose path doesn't extend `at` at all.
func partition(sites []site, at match.Path) (here, deeper []site) {
	for _, s := range sites {
		if len(s.path) < len(at) {
			continue
		}
		if !pathHasPrefix(s.path, at) {
			continue
		}
		if len(s.path) == len(at) {
			here = append(here, s)
		} else {
			deeper = append(deeper, s)
		}
	}
	return here, deeper
}

func pathHasPrefix(p, prefix match.Path) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

func applyArray(v value.Value, at match.Path, sites []site) value.Value {
	orig := v.AsArray()
	// Index -> sites continuing at that child, plus any array-splice site
	// anchored exactly one level past `at` targeting that index.
	byIndex := map[int][]site{}
	spliceAt := map[int]site{}
	for _, s := range sites {
		step := s.path[len(at)]
		if step.Kind != match.StepIndex {
			continue
		}
		if len(s.path) == len(at)+1 && s.kind == match.OccArraySplice {
			spliceAt[step.Index] = s
			continue
		}
		byIndex[step.Index] = append(byIndex[step.Index], s)
	}

	type spliceOp struct {
		index int
		s     site
	}
	var splices []spliceOp
	for idx, s := range spliceAt {
		splices = append(splices, spliceOp{index: idx, s: s})
	}
	sort.Slice(splices, func(i, j int) bool { return splices[i].index < splices[j].index })

	out := make([]value.Value, 0, len(orig))
	i := 0
	si := 0
	for i < len(orig) {
		if si < len(splices) && splices[si].index == i {
			op := splices[si]
			if op.s.value.Kind() == value.KindArray {
				out = append(out, op.s.value.AsArray()...)
			} else {
				out = append(out, op.s.value)
			}
			skip := op.s.spliceLen
			if skip <= 0 {
				skip = 1
			}
			i += skip
			si++
			continue
		}
		child := orig[i]
		if childSites, ok := byIndex[i]; ok {
			childPath := appendPath(at, match.PathStep{Kind: match.StepIndex, Index: i})
			child = applyAt(child, childPath, childSites)
		}
		out = append(out, child)
		i++
	}
	return value.Array(out)
}

func applyObject(v value.Value, at match.Path, sites []site) value.Value {
	obj := v.AsObject()
	byKey := map[string][]site{}
	var residualSite *site
	for _, s := range sites {
		step := s.path[len(at)]
		if step.Kind != match.StepKey {
			continue
		}
		if len(s.path) == len(at)+1 && s.kind == match.OccObjectKeys {
			cp := s
			residualSite = &cp
			continue
		}
		byKey[step.Key] = append(byKey[step.Key], s)
	}

	keys := append([]string(nil), obj.Keys()...)
	vals := make(map[string]value.Value, len(keys))
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		val, _ := obj.Get(k)
		keep[k] = true
		if childSites, ok := byKey[k]; ok {
			childPath := appendPath(at, match.PathStep{Kind: match.StepKey, Key: k})
			val = applyAt(val, childPath, childSites)
		}
		vals[k] = val
	}

	if residualSite != nil && residualSite.value.Kind() == value.KindObject {
		repl := residualSite.value.AsObject()
		for _, k := range repl.Keys() {
			rv, _ := repl.Get(k)
			if !keep[k] {
				keys = append(keys, k)
			}
			keep[k] = true
			vals[k] = rv
		}
	}

	finalKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		if keep[k] {
			finalKeys = append(finalKeys, k)
		}
	}
	return value.Obj(value.NewObject(finalKeys, vals))
}

func appendPath(base match.Path, step match.PathStep) match.Path {
	out := make(match.Path, len(base)+1)
	copy(out, base)
	out[len(base)] = step
	return out
}
