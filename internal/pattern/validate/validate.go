// Package validate walks a parsed pattern AST to resolve label references,
// check bucket-name sigil/scope consistency, reject malformed placements of
// spread/deep-path/replacement constructs, and normalize trivial structure.
// It runs as a discrete stage between parsing and execution.
package validate

import (
	"strconv"

	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/perr"
)

// Validate resolves labels, checks bucket consistency, and normalizes the
// tree. It returns a new Program (normalization may rebuild nodes) or a
// list of diagnostics if any static check failed.
func Validate(prog *ast.Program) (*ast.Program, perr.List) {
	v := &validator{buckets: map[string][]bucketUse{}}
	v.walk(prog.Root)
	v.checkBuckets()
	if len(v.diags) > 0 {
		return nil, v.diags
	}
	return &ast.Program{Root: normalize(prog.Root)}, nil
}

type scopeFrame struct {
	kind string // "label" or "scope"
	name string // label name, empty for anonymous each/kv scopes
}

type bucketUse struct {
	sigil       ast.Sigil
	scopeKey    string
	span        ast.Span
	viaLabelRef bool
}

type validator struct {
	diags   perr.List
	labels  []string // stack of enclosing label names, innermost last
	scopes  []scopeFrame
	nextID  int
	buckets map[string][]bucketUse
}

func (v *validator) errf(msg string, span ast.Span) {
	v.diags = append(v.diags, perr.ValidateError(msg, span))
}

func (v *validator) pushScope(kind, name string) {
	v.scopes = append(v.scopes, scopeFrame{kind: kind, name: name})
}

func (v *validator) popScope() {
	v.scopes = v.scopes[:len(v.scopes)-1]
}

// innermostScopeKey identifies the nearest enclosing each/kv frame, used as
// the implicit scope for a Flow lacking an explicit "across ^L".
func (v *validator) innermostScopeKey() string {
	if len(v.scopes) == 0 {
		return "root"
	}
	last := v.scopes[len(v.scopes)-1]
	return last.kind + ":" + last.name
}

func (v *validator) resolveLabel(name string, span ast.Span) {
	for i := len(v.labels) - 1; i >= 0; i-- {
		if v.labels[i] == name {
			return
		}
	}
	v.errf("unresolved label reference '^"+name+"'", span)
}

func (v *validator) walk(n ast.Node) {
	if n == nil {
		return
	}
	switch t := n.(type) {
	case *ast.Literal, *ast.Wildcard, *ast.TypedWildcard, *ast.Regex,
		*ast.CaseInsensitive, *ast.Variable, *ast.Epsilon:
		// leaves, nothing to do

	case *ast.Bind:
		v.walk(t.Pattern)
	case *ast.Group:
		v.walk(t.Inner)
	case *ast.Seq:
		for _, it := range t.Items {
			v.walk(it)
		}
	case *ast.Array:
		v.walk(t.Body)
	case *ast.Set:
		for _, it := range t.Items {
			v.walk(it)
		}
	case *ast.Alt:
		for _, b := range t.Branches {
			v.walk(b)
		}
	case *ast.Else:
		v.walk(t.Left)
		v.walk(t.Right)
	case *ast.Quant:
		if t.Min < 0 || (t.Max >= 0 && t.Max < t.Min) {
			v.errf("invalid quantifier bound", t.Span())
		}
		v.walk(t.Item)
	case *ast.Lookahead:
		v.walk(t.Inner)
	case *ast.Spread:
		// valid only inside Array/Set bodies; the parser never places it
		// elsewhere, so this case is reachable only via direct AST
		// construction and is accepted without further check.
	case *ast.Dot:
		v.walk(t.Leaf)
	case *ast.DeepPath:
		if t.Key == "" && t.Leaf == nil {
			v.errf("bare '..' is only meaningful as a key-position path segment", t.Span())
		}
		v.walk(t.Leaf)
	case *ast.Guard:
		v.walk(t.Pattern)
	case *ast.Label:
		v.labels = append(v.labels, t.Name)
		v.pushScope("label", t.Name)
		v.walk(t.Inner)
		v.popScope()
		v.labels = v.labels[:len(v.labels)-1]
	case *ast.LabelRef:
		v.resolveLabel(t.Name, t.Span())
	case *ast.Replacement:
		v.walk(t.Inner)
	case *ast.Object:
		v.walkObject(t)
	default:
		v.errf("internal: unhandled node kind in validator", n.Span())
	}
}

func (v *validator) walkObject(o *ast.Object) {
	for _, a := range o.Assertions {
		v.walk(a.Key)
		id := v.nextID
		v.nextID++
		kind := "kv"
		if a.Each {
			kind = "each"
		}
		v.pushScope(kind, strconv.Itoa(id))
		v.walk(a.Value)
		for _, ev := range a.ElseValues {
			v.walk(ev)
		}
		v.popScope()
	}
	for _, na := range o.NotAsserts {
		if na.Key != nil {
			v.walk(na.Key)
		}
		if na.Value != nil {
			v.walk(na.Value)
		}
	}
	for _, f := range o.Flows {
		scopeKey := v.innermostScopeKey()
		viaLabel := f.AcrossLabel != ""
		if viaLabel {
			v.resolveLabel(f.AcrossLabel, f.Span())
			scopeKey = "label:" + f.AcrossLabel
		}
		v.recordBucket(f.Bucket, f.Sigil, scopeKey, f.Span(), viaLabel)
	}
	for _, c := range o.Collects {
		v.resolveLabel(c.Label, c.Span())
		v.recordBucket(c.Bucket, c.Sigil, "label:"+c.Label, c.Span(), true)
	}
	if o.Residual != nil && o.Residual.BindAs != "" {
		v.recordBucket(o.Residual.BindAs, ast.SigilObject, v.innermostScopeKey(), o.Residual.Span(), false)
	}
}

func (v *validator) recordBucket(name string, sigil ast.Sigil, scopeKey string, span ast.Span, viaLabelRef bool) {
	v.buckets[name] = append(v.buckets[name], bucketUse{sigil: sigil, scopeKey: scopeKey, span: span, viaLabelRef: viaLabelRef})
}

// checkBuckets enforces two bucket-consistency rules: no mixed
// sigils for one name, and no two disjoint (non-label-anchored) scopes
// sharing a name. Label-anchored uses (explicit "across ^L" / collecting)
// are exempt from the disjoint-scope check since the label name itself is
// the scope identity the author chose to share.
func (v *validator) checkBuckets() {
	for name, uses := range v.buckets {
		sigil := uses[0].sigil
		for _, u := range uses[1:] {
			if u.sigil != sigil {
				v.errf("bucket '"+name+"' used with conflicting sigils", u.span)
			}
		}
		var implicitScope string
		sawImplicit := false
		for _, u := range uses {
			if u.viaLabelRef {
				continue
			}
			if !sawImplicit {
				implicitScope = u.scopeKey
				sawImplicit = true
				continue
			}
			if u.scopeKey != implicitScope {
				v.errf("bucket '"+name+"' is used across disjoint scopes", u.span)
			}
		}
	}
}
