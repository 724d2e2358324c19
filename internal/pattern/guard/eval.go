package guard

import (
	"fmt"
	"math"

	"github.com/tendril-lang/tendril/internal/pattern/value"
)

// Bindings resolves a scalar variable referenced by name to its currently
// bound value. The match engine's environment satisfies this.
type Bindings interface {
	Lookup(name string) (value.Value, bool)
}

// EvalError is returned when a guard expression cannot be evaluated:
// an unbound variable, a type mismatch, or an unknown built-in.
type EvalError struct {
	Message string
}

func (e *EvalError) Error() string { return "guard: " + e.Message }

// Vars returns the set of scalar variable names an expression references.
// The match engine checks that every one of them is bound before it
// evaluates a guard; evaluation is not postponed, so a guard with a variable
// still unbound at that point fails its branch.
func Vars(e Expr) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case Ident:
			if !seen[n.Name] {
				seen[n.Name] = true
				out = append(out, n.Name)
			}
		case Unary:
			walk(n.Operand)
		case Binary:
			walk(n.Left)
			walk(n.Right)
		case Call:
			for _, a := range n.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}

// Eval evaluates a guard expression against a binding environment,
// returning a boolean, number, or string value.Value.
func Eval(e Expr, b Bindings) (value.Value, error) {
	switch n := e.(type) {
	case Literal:
		return literalValue(n.Value), nil
	case Ident:
		v, ok := b.Lookup(n.Name)
		if !ok {
			return value.Null, &EvalError{Message: "variable $" + n.Name + " is not bound"}
		}
		return v, nil
	case Unary:
		return evalUnary(n, b)
	case Binary:
		return evalBinary(n, b)
	case Call:
		return evalCall(n, b)
	default:
		return value.Null, &EvalError{Message: fmt.Sprintf("unhandled guard expression node %T", e)}
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

func evalUnary(n Unary, b Bindings) (value.Value, error) {
	v, err := Eval(n.Operand, b)
	if err != nil {
		return value.Null, err
	}
	switch n.Op {
	case "-":
		if v.Kind() != value.KindNumber {
			return value.Null, &EvalError{Message: "unary - requires a number"}
		}
		return value.Number(-v.AsNumber()), nil
	case "!":
		if v.Kind() != value.KindBool {
			return value.Null, &EvalError{Message: "unary ! requires a boolean"}
		}
		return value.Bool(!v.AsBool()), nil
	default:
		return value.Null, &EvalError{Message: "unknown unary operator " + n.Op}
	}
}

func evalBinary(n Binary, b Bindings) (value.Value, error) {
	switch n.Op {
	case "&&":
		l, err := Eval(n.Left, b)
		if err != nil {
			return value.Null, err
		}
		if l.Kind() != value.KindBool {
			return value.Null, &EvalError{Message: "&& requires booleans"}
		}
		if !l.AsBool() {
			return value.Bool(false), nil
		}
		r, err := Eval(n.Right, b)
		if err != nil {
			return value.Null, err
		}
		if r.Kind() != value.KindBool {
			return value.Null, &EvalError{Message: "&& requires booleans"}
		}
		return r, nil
	case "||":
		l, err := Eval(n.Left, b)
		if err != nil {
			return value.Null, err
		}
		if l.Kind() != value.KindBool {
			return value.Null, &EvalError{Message: "|| requires booleans"}
		}
		if l.AsBool() {
			return value.Bool(true), nil
		}
		r, err := Eval(n.Right, b)
		if err != nil {
			return value.Null, err
		}
		if r.Kind() != value.KindBool {
			return value.Null, &EvalError{Message: "|| requires booleans"}
		}
		return r, nil
	}

	l, err := Eval(n.Left, b)
	if err != nil {
		return value.Null, err
	}
	r, err := Eval(n.Right, b)
	if err != nil {
		return value.Null, err
	}

	switch n.Op {
	case "==":
		return value.Bool(value.Equal(l, r)), nil
	case "!=":
		return value.Bool(!value.Equal(l, r)), nil
	case "<", "<=", ">", ">=":
		if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
			return value.Null, &EvalError{Message: n.Op + " requires numbers"}
		}
		a, c := l.AsNumber(), r.AsNumber()
		switch n.Op {
		case "<":
			return value.Bool(a < c), nil
		case "<=":
			return value.Bool(a <= c), nil
		case ">":
			return value.Bool(a > c), nil
		default:
			return value.Bool(a >= c), nil
		}
	case "+", "-", "*", "/", "%":
		if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
			return value.Null, &EvalError{Message: n.Op + " requires numbers"}
		}
		a, c := l.AsNumber(), r.AsNumber()
		switch n.Op {
		case "+":
			return value.Number(a + c), nil
		case "-":
			return value.Number(a - c), nil
		case "*":
			return value.Number(a * c), nil
		case "/":
			if c == 0 {
				return value.Null, &EvalError{Message: "division by zero"}
			}
			return value.Number(a / c), nil
		default:
			if c == 0 {
				return value.Null, &EvalError{Message: "modulo by zero"}
			}
			return value.Number(math.Mod(a, c)), nil
		}
	default:
		return value.Null, &EvalError{Message: "unknown binary operator " + n.Op}
	}
}

func evalCall(n Call, b Bindings) (value.Value, error) {
	if len(n.Args) != 1 {
		return value.Null, &EvalError{Message: n.Func + "() takes exactly one argument"}
	}
	v, err := Eval(n.Args[0], b)
	if err != nil {
		return value.Null, err
	}
	switch n.Func {
	case "size":
		switch v.Kind() {
		case value.KindString:
			return value.Number(float64(len([]rune(v.AsString())))), nil
		case value.KindArray:
			return value.Number(float64(len(v.AsArray()))), nil
		case value.KindSet:
			return value.Number(float64(len(v.AsSet()))), nil
		case value.KindObject:
			return value.Number(float64(v.AsObject().Len())), nil
		default:
			return value.Null, &EvalError{Message: "size() requires a string, array, set, or object"}
		}
	case "number":
		return value.Bool(v.Kind() == value.KindNumber), nil
	case "string":
		return value.Bool(v.Kind() == value.KindString), nil
	case "boolean":
		return value.Bool(v.Kind() == value.KindBool), nil
	default:
		return value.Null, &EvalError{Message: "unknown guard function " + n.Func}
	}
}
