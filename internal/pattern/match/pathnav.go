package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// matchDot implements a standalone Dot node ("a.b.c" used outside kv-key
// position — e.g. inside a Bind's target pattern): navigate the fixed key
// chain, then match Leaf at the resulting value.
func matchDot(d *ast.Dot, subj value.Value, at Path, env *Env, k Cont) bool {
	cur := subj
	curPath := at
	for _, seg := range d.Path {
		if cur.Kind() != value.KindObject {
			return true
		}
		v, ok := cur.AsObject().Get(seg)
		if !ok {
			return true
		}
		cur = v
		curPath = appendStep(curPath, PathStep{Kind: StepKey, Key: seg})
	}
	return Node(d.Leaf, cur, curPath, env, k)
}

// matchDeepPath implements a standalone DeepPath node used outside kv-key
// position.
func matchDeepPath(d *ast.DeepPath, subj value.Value, at Path, env *Env, k Cont) bool {
	if d.Key == "" || d.Leaf == nil {
		return k()
	}
	return deepSearch(subj, at, d.Key, d.Leaf, env, k)
}

// deepSearch enumerates every descendant mapping of v (including v itself)
// that has key, matching leaf against its value there; each admissible
// depth is delivered as its own solution via k.
func deepSearch(v value.Value, at Path, key string, leaf ast.Node, env *Env, k Cont) bool {
	if !env.Step() {
		return true
	}
	switch v.Kind() {
	case value.KindObject:
		if val, ok := v.AsObject().Get(key); ok {
			leafPath := appendStep(at, PathStep{Kind: StepKey, Key: key})
			mark := env.Mark()
			if !Node(leaf, val, leafPath, env, k) {
				return false
			}
			env.Rollback(mark)
		}
		for _, kk := range v.AsObject().Keys() {
			cv, _ := v.AsObject().Get(kk)
			childPath := appendStep(at, PathStep{Kind: StepKey, Key: kk})
			if !deepSearch(cv, childPath, key, leaf, env, k) {
				return false
			}
		}
		return true
	case value.KindArray:
		for i, el := range v.AsArray() {
			childPath := appendStep(at, PathStep{Kind: StepIndex, Index: i})
			if !deepSearch(el, childPath, key, leaf, env, k) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
