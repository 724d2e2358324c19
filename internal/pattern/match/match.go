package match

import (
	"regexp"
	"strings"

	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/guard"
	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// Cont is a success continuation: invoked once per solution reached at this
// point in the search. It returns true to keep searching for further
// solutions, or false to stop immediately (e.g. first()/matches() are
// satisfied). matchNode and its helpers propagate a false return straight
// back up the call stack without trying further alternatives.
//
// Every call site that tries one alternative among several brackets the
// attempt with Env.Mark()/Env.Rollback so a node's own bindings never leak
// into a sibling alternative; a matchNode implementation only needs to
// clean up the *internal* choice points it creates, never its own
// top-level effect, since the caller owns that rollback.
type Cont func() bool

// Node attempts to match n against subj at path at (the subject's
// root-relative position, used to record binding occurrences). It calls k
// once per solution; see Cont for the propagation contract.
func Node(n ast.Node, subj value.Value, at Path, env *Env, k Cont) bool {
	if !env.Step() {
		return true
	}
	switch t := n.(type) {
	case *ast.Literal:
		if value.Equal(literalValue(t.Value), subj) {
			return k()
		}
		return true

	case *ast.Wildcard:
		return k()

	case *ast.TypedWildcard:
		if typedWildcardMatches(t.Type, subj) {
			return k()
		}
		return true

	case *ast.Regex:
		if subj.Kind() != value.KindString {
			return true
		}
		re, err := compileRegex(t.Source, t.Flags)
		if err != nil {
			return true
		}
		if loc := re.FindStringIndex(subj.AsString()); loc != nil && loc[0] == 0 && loc[1] == len(subj.AsString()) {
			return k()
		}
		return true

	case *ast.CaseInsensitive:
		if subj.Kind() != value.KindString {
			return true
		}
		if strings.EqualFold(subj.AsString(), t.Text) {
			return k()
		}
		return true

	case *ast.Epsilon:
		return k()

	case *ast.Variable:
		return matchVariable(t, subj, at, env, k)

	case *ast.Bind:
		return matchBind(t, subj, at, env, k)

	case *ast.Group:
		return Node(t.Inner, subj, at, env, k)

	case *ast.Alt:
		for _, branch := range t.Branches {
			mark := env.Mark()
			if !Node(branch, subj, at, env, k) {
				return false
			}
			env.Rollback(mark)
		}
		return true

	case *ast.Else:
		found := false
		mark := env.Mark()
		if !Node(t.Left, subj, at, env, func() bool {
			found = true
			return k()
		}) {
			return false
		}
		env.Rollback(mark)
		if found {
			return true
		}
		return Node(t.Right, subj, at, env, k)

	case *ast.Guard:
		return matchGuard(t, subj, at, env, k)

	case *ast.Label:
		return Node(t.Inner, subj, at, env, k)

	case *ast.Replacement:
		mark := env.Mark()
		env.SetReplSite(at, subj)
		ok := Node(t.Inner, subj, at, env, k)
		if !ok {
			return false
		}
		env.Rollback(mark)
		return true

	case *ast.Lookahead:
		return matchLookaheadGeneric(t, subj, at, env, k)

	case *ast.Array:
		return matchArray(t, subj, at, env, k)

	case *ast.Set:
		return matchSet(t, subj, at, env, k)

	case *ast.Object:
		return matchObject(t, subj, at, env, k)

	case *ast.Dot:
		return matchDot(t, subj, at, env, k)

	case *ast.DeepPath:
		return matchDeepPath(t, subj, at, env, k)

	case *ast.Quant:
		// Outside an array body, a quantifier has no multiplicity target;
		// treat it as matching its item exactly once when that is within
		// [Min,Max], which is the only sensible degenerate reading.
		if t.Min <= 1 && (t.Max < 0 || t.Max >= 1) {
			return Node(t.Item, subj, at, env, k)
		}
		return true

	case *ast.Spread:
		return k()

	case *ast.Seq:
		// A bare Seq outside an Array body only ever arises from direct
		// construction with a single item (parser never emits one at the
		// pattern top level); degrade to matching the first item.
		if len(t.Items) == 0 {
			return k()
		}
		return Node(t.Items[0], subj, at, env, k)

	default:
		return true
	}
}

func literalValue(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(x)
	case float64:
		return value.Number(x)
	case string:
		return value.String(x)
	default:
		return value.Null
	}
}

func typedWildcardMatches(kind string, subj value.Value) bool {
	switch kind {
	case "string":
		return subj.Kind() == value.KindString
	case "number":
		return subj.Kind() == value.KindNumber
	case "boolean":
		return subj.Kind() == value.KindBool
	default:
		return false
	}
}

func compileRegex(source, flags string) (*regexp.Regexp, error) {
	goFlags := ""
	if strings.Contains(flags, "i") {
		goFlags += "i"
	}
	if strings.Contains(flags, "m") {
		goFlags += "m"
	}
	if strings.Contains(flags, "s") {
		goFlags += "s"
	}
	pattern := source
	if goFlags != "" {
		pattern = "(?" + goFlags + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func matchVariable(v *ast.Variable, subj value.Value, at Path, env *Env, k Cont) bool {
	kind := OccScalar
	if v.Sigil != ast.SigilScalar {
		kind = occKindForSigil(v.Sigil, subj)
	}
	if !env.Bind(v.Name, subj, at, kind, spliceLenFor(kind, subj)) {
		return true
	}
	return k()
}

func occKindForSigil(s ast.Sigil, subj value.Value) OccKind {
	if s == ast.SigilArray {
		return OccArraySplice
	}
	return OccObjectKeys
}

func spliceLenFor(kind OccKind, subj value.Value) int {
	if kind == OccArraySplice && subj.Kind() == value.KindArray {
		return len(subj.AsArray())
	}
	return 0
}

func matchBind(b *ast.Bind, subj value.Value, at Path, env *Env, k Cont) bool {
	return Node(b.Pattern, subj, at, env, func() bool {
		kind := OccScalar
		if b.Sigil != ast.SigilScalar {
			kind = occKindForSigil(b.Sigil, subj)
		}
		mark := env.Mark()
		if !env.Bind(b.Name, subj, at, kind, spliceLenFor(kind, subj)) {
			env.Rollback(mark)
			return true
		}
		if !k() {
			return false
		}
		env.Rollback(mark)
		return true
	})
}

func matchGuard(g *ast.Guard, subj value.Value, at Path, env *Env, k Cont) bool {
	return Node(g.Pattern, subj, at, env, func() bool {
		if g.Expr == nil {
			return true
		}
		for _, name := range guard.Vars(g.Expr) {
			if _, ok := env.Lookup(name); !ok {
				return true // still unresolved; branch fails
			}
		}
		result, err := guard.Eval(g.Expr, env)
		if err != nil {
			return true
		}
		if result.Kind() != value.KindBool || !result.AsBool() {
			return true
		}
		return k()
	})
}

// matchLookaheadGeneric implements Lookahead semantics against a single
// subject value (used outside array-item position, e.g. wrapping a whole
// pattern or an object value).
func matchLookaheadGeneric(l *ast.Lookahead, subj value.Value, at Path, env *Env, k Cont) bool {
	if !l.Negative {
		mark := env.Mark()
		ok := Node(l.Inner, subj, at, env, k)
		if !ok {
			return false
		}
		env.Rollback(mark)
		return true
	}
	matched := false
	mark := env.Mark()
	Node(l.Inner, subj, at, env, func() bool {
		matched = true
		return false
	})
	env.Rollback(mark)
	if matched {
		return true
	}
	return k()
}
