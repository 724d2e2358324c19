// Package guard implements the small side-condition expression language
// used by pattern guards: `(P where E)`. Its grammar is a conventional
// Pratt-parsed expression language cut down to the operators guards
// actually need: comparisons, boolean connectives, and arithmetic.
package guard

// Expr is the interface implemented by every guard-expression node.
type Expr interface {
	exprNode()
}

// Literal is a null/boolean/number/string constant.
type Literal struct{ Value interface{} }

// Ident references a bound scalar variable by name (the `$` sigil is part
// of guard syntax too, same SCALAR token the pattern grammar uses; Name
// excludes the sigil itself).
type Ident struct{ Name string }

// Unary is `-x` or `!x`.
type Unary struct {
	Op      string
	Operand Expr
}

// Binary is an arithmetic, comparison, or logical binary expression.
type Binary struct {
	Op          string
	Left, Right Expr
}

// Call is a built-in function call: size/number/string/boolean.
type Call struct {
	Func string
	Args []Expr
}

func (Literal) exprNode() {}
func (Ident) exprNode()   {}
func (Unary) exprNode()   {}
func (Binary) exprNode()  {}
func (Call) exprNode()    {}
