// Package parser builds a pattern AST from a token stream, enforcing the
// grammar's syntactic invariants: no mixed `|`/`else`, single trailing
// residual, single replacement-marker pair, and quantifier bound
// well-formedness. Structure is a cursor over the token slice plus
// recursive-descent entry points, one file per grammar area.
package parser

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/guard"
	"github.com/tendril-lang/tendril/internal/pattern/lexer"
	"github.com/tendril-lang/tendril/internal/pattern/perr"
)

// Parser transforms a pattern token stream into an ast.Program.
type Parser struct {
	tokens  []lexer.Token
	current int
	errs    perr.List

	sawReplacement bool
}

// New creates a parser over a complete token stream (including the
// trailing EOF token lexer.Lexer.ScanTokens produces).
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the whole token stream as a single pattern.
func Parse(tokens []lexer.Token) (*ast.Program, perr.List) {
	p := New(tokens)
	root := p.parsePattern()
	if !p.isAtEnd() {
		p.error("unexpected trailing token " + p.peek().Kind.String())
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return &ast.Program{Root: root}, nil
}

// --- token stream navigation ---

func (p *Parser) peek() lexer.Token {
	if p.current >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) lexer.Token {
	i := p.current + n
	if i >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[i]
}

func (p *Parser) previous() lexer.Token {
	if p.current == 0 {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(k lexer.Kind) bool {
	return !p.isAtEnd() && p.peek().Kind == k
}

func (p *Parser) match(kinds ...lexer.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k lexer.Kind, msg string) lexer.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorExpected(k.String(), msg)
	return lexer.Token{Kind: lexer.ERROR}
}

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens) || p.tokens[p.current].Kind == lexer.EOF
}

func (p *Parser) error(msg string) {
	p.errs = append(p.errs, perr.ParseError(msg, spanAt(p.peek())))
}

func (p *Parser) errorExpected(expected, context string) {
	p.errs = append(p.errs, perr.ParseErrorExpected(expected+" ("+context+")", p.peek().Kind.String(), spanAt(p.peek())))
}

func spanAt(t lexer.Token) ast.Span {
	return ast.Span{StartLine: t.Line, StartCol: t.Column, EndLine: t.Line, EndCol: t.Column + len(t.Lexeme)}
}

func spanBetween(start, end lexer.Token) ast.Span {
	return ast.Span{StartLine: start.Line, StartCol: start.Column, EndLine: end.Line, EndCol: end.Column + len(end.Lexeme)}
}

// sigilFromToken maps the lexer's sigil token kinds to ast.Sigil.
func sigilKindOf(k lexer.Kind) (ast.Sigil, bool) {
	switch k {
	case lexer.SCALAR:
		return ast.SigilScalar, true
	case lexer.GROUP_ARR:
		return ast.SigilArray, true
	case lexer.GROUP_OBJ:
		return ast.SigilObject, true
	default:
		return 0, false
	}
}

// nameOf reads a sigil/identifier token's bare name (Literal for sigils,
// Lexeme for barewords), per the lexer's convention that Lexeme keeps the
// sigil character while Literal holds the bare name.
func nameOf(t lexer.Token) string {
	if s, ok := t.Literal.(string); ok {
		return s
	}
	return t.Lexeme
}

// extractGuardTokens collects the tokens of a `where` clause's expression,
// stopping (without consuming) at the RPAREN that closes the enclosing
// guard group. Nested parens inside the expression are tracked so a guard
// like `(P where ($x + 1) > 2)` does not terminate early.
func (p *Parser) extractGuardTokens() []lexer.Token {
	depth := 0
	start := p.current
	for !p.isAtEnd() {
		k := p.peek().Kind
		switch k {
		case lexer.LPAREN, lexer.LPAREN_Q, lexer.LPAREN_B:
			depth++
		case lexer.RPAREN:
			if depth == 0 {
				return p.tokens[start:p.current]
			}
			depth--
		}
		p.advance()
	}
	p.error("unterminated guard expression")
	return p.tokens[start:p.current]
}

// parseGuardExpr extracts and parses a `where` clause's token slice using
// the guard package's own Pratt parser.
func (p *Parser) parseGuardExpr() (guard.Expr, string) {
	toks := p.extractGuardTokens()
	src := lexemeJoin(toks)
	expr, err := guard.Parse(toks)
	if err != nil {
		p.error("invalid guard expression: " + err.Error())
		return nil, src
	}
	return expr, src
}

func lexemeJoin(toks []lexer.Token) string {
	s := ""
	for i, t := range toks {
		if i > 0 {
			s += " "
		}
		s += t.Lexeme
	}
	return s
}
