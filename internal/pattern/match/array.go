package match

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// matchArray implements the Array node: the subject must be an
// ordered sequence, matched left to right against the body's items with
// backtracking. Anchoring depends on the leading/trailing ellipsis flags
// recorded by the parser.
func matchArray(a *ast.Array, subj value.Value, at Path, env *Env, k Cont) bool {
	if subj.Kind() != value.KindArray {
		return true
	}
	arr := subj.AsArray()
	items := seqItems(a.Body)

	onDone := func(end int) bool {
		if !a.TrailingEllipsis && end != len(arr) {
			return true
		}
		return k()
	}

	if !a.LeadingEllipsis {
		return matchItemsAgainst(items, 0, arr, 0, at, env, onDone)
	}
	for start := 0; start <= len(arr); start++ {
		if !matchItemsAgainst(items, 0, arr, start, at, env, onDone) {
			return false
		}
	}
	return true
}

// seqItems extracts the item list from an Array body, which the parser
// normalizes to either a Seq or an Epsilon (empty array body).
func seqItems(body ast.Node) []ast.Node {
	switch t := body.(type) {
	case *ast.Seq:
		return t.Items
	default:
		return nil
	}
}

// matchItemsAgainst matches items[idx:] against arr starting at pos,
// calling onDone once per way to consume a prefix of arr[pos:] that
// satisfies every remaining item; onDone receives the subject index just
// past the last consumed element.
func matchItemsAgainst(items []ast.Node, idx int, arr []value.Value, pos int, basePath Path, env *Env, onDone func(int) bool) bool {
	if !env.Step() {
		return true
	}
	if idx == len(items) {
		return onDone(pos)
	}
	return matchArrayItem(items[idx], arr, pos, basePath, env, func(newPos int) bool {
		return matchItemsAgainst(items, idx+1, arr, newPos, basePath, env, onDone)
	})
}

// matchArrayItem matches one item of an array body's Seq, handling the
// constructs with element-count semantics (Quant, Spread, Lookahead, a
// group-variable Bind) specially since the grammar only allows plain "atom"
// as a quantifier's repeated unit — every other construct in item position
// consumes exactly one element.
func matchArrayItem(item ast.Node, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	switch t := item.(type) {
	case *ast.Quant:
		return matchQuant(t, arr, pos, basePath, env, onConsumed)

	case *ast.Spread:
		wildcard := &ast.Wildcard{}
		q := &ast.Quant{Item: wildcard, Min: 0, Max: -1, Mode: ast.Greedy}
		return matchQuant(q, arr, pos, basePath, env, onConsumed)

	case *ast.Lookahead:
		return matchArrayLookahead(t, arr, pos, basePath, env, onConsumed)

	case *ast.Bind:
		if t.Sigil == ast.SigilArray {
			return matchArrayGroupBind(t, arr, pos, basePath, env, onConsumed)
		}
		return matchArrayElement(item, arr, pos, basePath, env, onConsumed)

	default:
		return matchArrayElement(item, arr, pos, basePath, env, onConsumed)
	}
}

// matchArrayElement matches item against exactly the single array position
// pos, the default element-count semantics for a plain atom (or a scalar
// bind, guard, literal, ...) appearing in an array body.
func matchArrayElement(item ast.Node, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	if pos >= len(arr) {
		return true
	}
	mark := env.Mark()
	elemPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
	ok := Node(item, arr[pos], elemPath, env, func() bool {
		return onConsumed(pos + 1)
	})
	if !ok {
		return false
	}
	env.Rollback(mark)
	return true
}

// matchArrayGroupBind handles an array item written "(pattern as @name)":
// the grammar's group-variable bind, which captures the run of array
// positions its inner pattern consumes as a slice bound to @name, rather
// than matching a single element the way a scalar bind does. A quantified
// or spread inner pattern walks a variable-length run of positions; any
// other inner pattern captures exactly the one position it matches.
func matchArrayGroupBind(b *ast.Bind, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	bindSpan := func(end int) bool {
		mark := env.Mark()
		span := append([]value.Value(nil), arr[pos:end]...)
		spanPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
		if !env.Bind(b.Name, value.Array(span), spanPath, OccArraySplice, end-pos) {
			env.Rollback(mark)
			return true
		}
		if !onConsumed(end) {
			return false
		}
		env.Rollback(mark)
		return true
	}

	switch inner := b.Pattern.(type) {
	case *ast.Quant:
		return matchQuant(inner, arr, pos, basePath, env, bindSpan)

	case *ast.Spread:
		wildcard := &ast.Wildcard{}
		q := &ast.Quant{Item: wildcard, Min: 0, Max: -1, Mode: ast.Greedy}
		return matchQuant(q, arr, pos, basePath, env, bindSpan)

	default:
		if pos >= len(arr) {
			return true
		}
		mark := env.Mark()
		elemPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
		ok := Node(inner, arr[pos], elemPath, env, func() bool {
			return bindSpan(pos + 1)
		})
		if !ok {
			return false
		}
		env.Rollback(mark)
		return true
	}
}

func matchArrayLookahead(l *ast.Lookahead, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	if !l.Negative {
		if pos >= len(arr) {
			return true
		}
		mark := env.Mark()
		elemPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
		ok := Node(l.Inner, arr[pos], elemPath, env, func() bool {
			return onConsumed(pos)
		})
		if !ok {
			return false
		}
		env.Rollback(mark)
		return true
	}
	matched := false
	if pos < len(arr) {
		mark := env.Mark()
		elemPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
		Node(l.Inner, arr[pos], elemPath, env, func() bool {
			matched = true
			return false
		})
		env.Rollback(mark)
	}
	if matched {
		return true
	}
	return onConsumed(pos)
}

// matchQuant repeats q.Item between q.Min and q.Max times (Max<0 means
// "through the end of the available elements"), trying repetition counts
// in the order q.Mode prescribes.
func matchQuant(q *ast.Quant, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	avail := len(arr) - pos
	maxRep := q.Max
	if maxRep < 0 || maxRep > avail {
		maxRep = avail
	}
	minRep := q.Min
	if minRep > maxRep {
		return true
	}
	for _, c := range countOrder(minRep, maxRep, q.Mode) {
		if !matchExactlyN(q.Item, c, arr, pos, basePath, env, onConsumed) {
			return false
		}
	}
	return true
}

func countOrder(min, max int, mode ast.QuantKind) []int {
	if mode == ast.Possessive {
		return []int{max}
	}
	out := make([]int, 0, max-min+1)
	if mode == ast.Lazy {
		for c := min; c <= max; c++ {
			out = append(out, c)
		}
	} else {
		for c := max; c >= min; c-- {
			out = append(out, c)
		}
	}
	return out
}

// matchExactlyN matches item against exactly n consecutive elements
// starting at pos, backtracking across each repetition's own internal
// alternatives before trying the next repetition.
func matchExactlyN(item ast.Node, n int, arr []value.Value, pos int, basePath Path, env *Env, onConsumed func(int) bool) bool {
	if n == 0 {
		return onConsumed(pos)
	}
	if pos >= len(arr) {
		return true
	}
	mark := env.Mark()
	elemPath := append(append(Path(nil), basePath...), PathStep{Kind: StepIndex, Index: pos})
	ok := Node(item, arr[pos], elemPath, env, func() bool {
		return matchExactlyN(item, n-1, arr, pos+1, basePath, env, onConsumed)
	})
	if !ok {
		return false
	}
	env.Rollback(mark)
	return true
}
