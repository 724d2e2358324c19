package validate

import "github.com/tendril-lang/tendril/internal/pattern/ast"

// normalize applies trivial-structure reductions to the tree: a
// single-branch Alt collapses to its branch, and an empty Seq
// becomes Epsilon. Other container nodes are kept and their child fields
// are overwritten in place with the normalized children; leaf nodes are
// returned unchanged.
func normalize(n ast.Node) ast.Node {
	if n == nil {
		return nil
	}
	switch t := n.(type) {
	case *ast.Bind:
		t.Pattern = normalize(t.Pattern)
		return t
	case *ast.Group:
		t.Inner = normalize(t.Inner)
		return t
	case *ast.Seq:
		items := make([]ast.Node, 0, len(t.Items))
		for _, it := range t.Items {
			items = append(items, normalize(it))
		}
		if len(items) == 0 {
			return &ast.Epsilon{Base: ast.NewBase(t.Span())}
		}
		t.Items = items
		return t
	case *ast.Array:
		t.Body = normalize(t.Body)
		return t
	case *ast.Set:
		for i, it := range t.Items {
			t.Items[i] = normalize(it)
		}
		return t
	case *ast.Alt:
		branches := make([]ast.Node, 0, len(t.Branches))
		for _, b := range t.Branches {
			branches = append(branches, normalize(b))
		}
		if len(branches) == 1 {
			return branches[0]
		}
		t.Branches = branches
		return t
	case *ast.Else:
		t.Left = normalize(t.Left)
		t.Right = normalize(t.Right)
		return t
	case *ast.Quant:
		t.Item = normalize(t.Item)
		return t
	case *ast.Lookahead:
		t.Inner = normalize(t.Inner)
		return t
	case *ast.Dot:
		t.Leaf = normalize(t.Leaf)
		return t
	case *ast.DeepPath:
		t.Leaf = normalize(t.Leaf)
		return t
	case *ast.Guard:
		t.Pattern = normalize(t.Pattern)
		return t
	case *ast.Label:
		t.Inner = normalize(t.Inner)
		return t
	case *ast.Replacement:
		t.Inner = normalize(t.Inner)
		return t
	case *ast.Object:
		for _, a := range t.Assertions {
			a.Key = normalize(a.Key)
			a.Value = normalize(a.Value)
			for i, ev := range a.ElseValues {
				a.ElseValues[i] = normalize(ev)
			}
		}
		for _, na := range t.NotAsserts {
			if na.Key != nil {
				na.Key = normalize(na.Key)
			}
			if na.Value != nil {
				na.Value = normalize(na.Value)
			}
		}
		return t
	default:
		return n
	}
}
