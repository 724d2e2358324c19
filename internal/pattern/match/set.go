package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// matchSet implements the Set node: the subject must be an
// unordered set, each item pattern witnessed by a distinct member; absent a
// trailing "...", every member must be claimed.
func matchSet(s *ast.Set, subj value.Value, at Path, env *Env, k Cont) bool {
	if subj.Kind() != value.KindSet {
		return true
	}
	members := subj.AsSet()
	used := make([]bool, len(members))
	return matchSetItems(s.Items, 0, members, used, at, env, func() bool {
		if !s.HasSpread {
			for _, u := range used {
				if !u {
					return true
				}
			}
		}
		return k()
	})
}

func matchSetItems(items []ast.Node, idx int, members []value.Value, used []bool, basePath Path, env *Env, onDone Cont) bool {
	if !env.Step() {
		return true
	}
	if idx == len(items) {
		return onDone()
	}
	for i, m := range members {
		if used[i] {
			continue
		}
		used[i] = true
		mark := env.Mark()
		elemPath := appendStep(basePath, PathStep{Kind: StepIndex, Index: i})
		ok := Node(items[idx], m, elemPath, env, func() bool {
			return matchSetItems(items, idx+1, members, used, basePath, env, onDone)
		})
		used[i] = false
		if !ok {
			return false
		}
		env.Rollback(mark)
	}
	return true
}
