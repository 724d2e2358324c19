package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// lastKV tracks the most recently matched (key, value) witness across an
// object body's assertions, in textual order. Flow and Collecting clauses
// consume it when they execute, reading "the innermost K:V context" as
// whichever kv clause most recently ran.
type lastKV struct {
	key string
	val value.Value
	has bool
}

// matchObject implements the Object node: the subject must be a
// mapping, matched declaratively against a set of K:V assertions and
// meta-clauses (not-assertions, flows, collecting, residual).
func matchObject(o *ast.Object, subj value.Value, at Path, env *Env, k Cont) bool {
	if subj.Kind() != value.KindObject {
		return true
	}
	env.PushCoverage()
	var last lastKV
	ok := matchAssertions(o.Assertions, 0, subj, at, env, &last, func() bool {
		return matchNotAsserts(o.NotAsserts, 0, subj, at, env, func() bool {
			return matchFlowsAndCollects(o, &last, env, at, func() bool {
				return matchResidual(o.Residual, subj, at, env, k)
			})
		})
	})
	env.PopCoverage()
	return ok
}

func matchAssertions(list []*ast.ObjectAssertion, idx int, subj value.Value, at Path, env *Env, last *lastKV, k Cont) bool {
	if !env.Step() {
		return true
	}
	if idx == len(list) {
		return k()
	}
	a := list[idx]
	cont := func() bool { return matchAssertions(list, idx+1, subj, at, env, last, k) }
	switch key := a.Key.(type) {
	case *ast.Dot:
		return matchDotAssertion(a, key, subj, at, env, cont)
	case *ast.DeepPath:
		return matchDeepAssertion(a, key, subj, at, env, cont)
	default:
		return matchFlatAssertion(a, subj, at, env, last, cont)
	}
}

// matchFlatAssertion implements an ordinary "K : V" / "each K : V" clause:
// existence requires >=1 key matching both K and V; every key matching K
// (regardless of V) joins the coverage set; "each" additionally forbids any
// K-matching key whose value fails V.
func matchFlatAssertion(a *ast.ObjectAssertion, subj value.Value, at Path, env *Env, last *lastKV, k Cont) bool {
	obj := subj.AsObject()
	valuePattern := buildElseChain(a.Value, a.ElseValues)

	var kMatches []string
	for _, key := range obj.Keys() {
		if !env.Step() {
			return true
		}
		tryMark := env.Mark()
		matched := false
		keyPath := appendStep(at, PathStep{Kind: StepKey, Key: key})
		Node(a.Key, value.String(key), keyPath, env, func() bool { matched = true; return false })
		env.Rollback(tryMark)
		if matched {
			kMatches = append(kMatches, key)
			env.Cover(key)
		}
	}

	if a.Each {
		for _, key := range kMatches {
			val, _ := obj.Get(key)
			keyPath := appendStep(at, PathStep{Kind: StepKey, Key: key})
			valMark := env.Mark()
			ok := false
			Node(valuePattern, val, keyPath, env, func() bool { ok = true; return false })
			env.Rollback(valMark)
			if !ok {
				return true // a bad entry exists: the each-assertion fails outright
			}
		}
	}

	existed := false
	for _, key := range kMatches {
		val, _ := obj.Get(key)
		keyPath := appendStep(at, PathStep{Kind: StepKey, Key: key})
		mark := env.Mark()
		ok := Node(a.Key, value.String(key), keyPath, env, func() bool {
			return Node(valuePattern, val, keyPath, env, func() bool {
				existed = true
				last.key, last.val, last.has = key, val, true
				return k()
			})
		})
		if !ok {
			return false
		}
		env.Rollback(mark)
	}
	if existed {
		return true
	}
	if a.Optional {
		return k()
	}
	return true
}

// matchDotAssertion implements a fixed key-path clause ("a.b.c : V"): it
// navigates the path deterministically (no witness choice) and then
// matches V (with its else-chain) at the leaf.
func matchDotAssertion(a *ast.ObjectAssertion, d *ast.Dot, subj value.Value, at Path, env *Env, k Cont) bool {
	cur := subj
	curPath := at
	for _, seg := range d.Path {
		if cur.Kind() != value.KindObject {
			if a.Optional {
				return k()
			}
			return true
		}
		v, exists := cur.AsObject().Get(seg)
		if !exists {
			if a.Optional {
				return k()
			}
			return true
		}
		cur = v
		curPath = appendStep(curPath, PathStep{Kind: StepKey, Key: seg})
	}
	valuePattern := buildElseChain(a.Value, a.ElseValues)
	return Node(valuePattern, cur, curPath, env, k)
}

// matchDeepAssertion implements "..key : V": search the subject at every
// depth for a mapping containing key, matching V there; each admissible
// depth is its own solution.
func matchDeepAssertion(a *ast.ObjectAssertion, d *ast.DeepPath, subj value.Value, at Path, env *Env, k Cont) bool {
	valuePattern := buildElseChain(a.Value, a.ElseValues)
	found := false
	ok := deepSearch(subj, at, d.Key, valuePattern, env, func() bool {
		found = true
		return k()
	})
	if !ok {
		return false
	}
	if !found && a.Optional {
		return k()
	}
	return true
}

func matchNotAsserts(list []*ast.NotAssert, idx int, subj value.Value, at Path, env *Env, k Cont) bool {
	if idx == len(list) {
		return k()
	}
	na := list[idx]
	obj := subj.AsObject()

	if na.IsKeysAll {
		if len(uncoveredKeys(obj, env)) != 0 {
			return true
		}
		return matchNotAsserts(list, idx+1, subj, at, env, k)
	}

	for _, key := range obj.Keys() {
		keyPath := appendStep(at, PathStep{Kind: StepKey, Key: key})
		mark := env.Mark()
		kMatched := false
		Node(na.Key, value.String(key), keyPath, env, func() bool { kMatched = true; return false })
		if kMatched {
			val, _ := obj.Get(key)
			vMatched := false
			Node(na.Value, val, keyPath, env, func() bool { vMatched = true; return false })
			env.Rollback(mark)
			if vMatched {
				return true // a key matches both K and V: the negative assertion fails
			}
		} else {
			env.Rollback(mark)
		}
	}
	return matchNotAsserts(list, idx+1, subj, at, env, k)
}

// matchFlowsAndCollects pours the most recently matched kv witness into
// every Flow's and Collecting clause's bucket.
func matchFlowsAndCollects(o *ast.Object, last *lastKV, env *Env, at Path, k Cont) bool {
	for _, f := range o.Flows {
		if !last.has {
			continue
		}
		var ok bool
		if f.Sigil == ast.SigilObject {
			ok = env.Pour(f.Bucket, ast.SigilObject, last.key, last.val)
		} else {
			ok = env.Pour(f.Bucket, ast.SigilArray, "", last.val)
		}
		if !ok {
			return true
		}
	}
	for _, c := range o.Collects {
		if !last.has {
			continue
		}
		if c.KeyVar != "" {
			if !env.Bind(c.KeyVar, value.String(last.key), at, OccScalar, 0) {
				return true
			}
		}
		if !env.Bind(c.ValueVar, last.val, at, OccScalar, 0) {
			return true
		}
		var ok bool
		if c.Sigil == ast.SigilObject {
			ok = env.Pour(c.Bucket, ast.SigilObject, last.key, last.val)
		} else {
			ok = env.Pour(c.Bucket, ast.SigilArray, "", last.val)
		}
		if !ok {
			return true
		}
	}
	return k()
}

func matchResidual(r *ast.Residual, subj value.Value, at Path, env *Env, k Cont) bool {
	obj := subj.AsObject()
	uncovered := uncoveredKeys(obj, env)
	n := len(uncovered)

	ok := true
	if r != nil {
		switch r.Kind {
		case ast.ResidualRequired:
			ok = n >= 1
		case ast.ResidualOptional:
			ok = true
		case ast.ResidualCount:
			ok = n >= r.Min && (r.Max < 0 || n <= r.Max)
		}
	}
	if !ok {
		return true
	}

	if r != nil && r.BindAs != "" {
		keys := make(map[string]bool, len(uncovered))
		for _, kk := range uncovered {
			keys[kk] = true
		}
		sub := obj.WithKeys(keys)
		if !env.Bind(r.BindAs, value.Obj(sub), at, OccObjectKeys, 0) {
			return true
		}
	}
	return k()
}

func uncoveredKeys(obj *value.Object, env *Env) []string {
	covered := env.Covered()
	var out []string
	for _, k := range obj.Keys() {
		if !covered[k] {
			out = append(out, k)
		}
	}
	return out
}

// buildElseChain assembles a kv clause's "V else V2 else V3" tail into a
// right-associative Else chain matching the engine's general Else semantics.
func buildElseChain(first ast.Node, elses []ast.Node) ast.Node {
	if len(elses) == 0 {
		return first
	}
	chain := elses[len(elses)-1]
	for i := len(elses) - 2; i >= 0; i-- {
		chain = &ast.Else{Left: elses[i], Right: chain}
	}
	return &ast.Else{Left: first, Right: chain}
}

func appendStep(base Path, step PathStep) Path {
	out := make(Path, len(base)+1)
	copy(out, base)
	out[len(base)] = step
	return out
}
