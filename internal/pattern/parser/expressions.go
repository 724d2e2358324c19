package parser

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/lexer"
)

// parsePattern is the grammar's top entry point: pattern ::= else_expr.
func (p *Parser) parsePattern() ast.Node {
	return p.parseElse()
}

// parseElse: else_expr ::= alt_expr ( "else" alt_expr )* (right-associative).
func (p *Parser) parseElse() ast.Node {
	start := p.peek()
	left := p.parseAlt()
	if !p.match(lexer.ELSE) {
		return left
	}
	if _, mixed := left.(*ast.Alt); mixed {
		p.error("cannot mix '|' and 'else' without parentheses")
	}
	right := p.parseElse()
	if _, mixed := right.(*ast.Alt); mixed {
		p.error("cannot mix '|' and 'else' without parentheses")
	}
	return &ast.Else{Base: ast.NewBase(spanBetween(start, p.previous())), Left: left, Right: right}
}

// parseAlt: alt_expr ::= item ( "|" item )*, inclusive alternation.
func (p *Parser) parseAlt() ast.Node {
	start := p.peek()
	branches := []ast.Node{p.parseItem()}
	for p.match(lexer.PIPE) {
		branches = append(branches, p.parseItem())
	}
	if len(branches) == 1 {
		return branches[0]
	}
	return &ast.Alt{Base: ast.NewBase(spanBetween(start, p.previous())), Branches: branches}
}

// parseItem: item ::= bind | guard | quant. The "$"-prefixed bind form is
// dispatched here directly; the parenthesized bind-as/guard/group/lookahead
// forms are disambiguated inside parseAtom since they all start with the
// same "(" token.
func (p *Parser) parseItem() ast.Node {
	if p.check(lexer.SCALAR) {
		return p.parseDollarBind()
	}
	return p.parseQuant()
}

// parseDollarBind: "$" NAME ( "=" "(" pattern ")" )?
func (p *Parser) parseDollarBind() ast.Node {
	tok := p.advance() // SCALAR
	name := nameOf(tok)
	if !p.match(lexer.EQUALS) {
		return &ast.Variable{Base: ast.NewBase(spanAt(tok)), Sigil: ast.SigilScalar, Name: name}
	}
	p.consume(lexer.LPAREN, "'(' after '$name='")
	inner := p.parsePattern()
	closeTok := p.consume(lexer.RPAREN, "')' closing bound sub-pattern")
	return &ast.Bind{
		Base:    ast.NewBase(spanBetween(tok, closeTok)),
		Sigil:   ast.SigilScalar,
		Name:    name,
		Pattern: inner,
	}
}

// parseQuant: quant ::= atom ( "*" | "+" | "?" | "{" N ("," N?)? "}" )? ("?"|"+")?
func (p *Parser) parseQuant() ast.Node {
	start := p.peek()
	item := p.parseAtom()

	min, max, hasBound := -1, -1, false
	switch {
	case p.match(lexer.STAR):
		min, max, hasBound = 0, -1, true
	case p.match(lexer.PLUS):
		min, max, hasBound = 1, -1, true
	case p.match(lexer.QUESTION):
		min, max, hasBound = 0, 1, true
	default:
		if m, n, ok := p.tryParseBound(); ok {
			min, max, hasBound = m, n, true
		}
	}
	if !hasBound {
		return item
	}

	mode := ast.Greedy
	if p.match(lexer.QUESTION) {
		mode = ast.Lazy
	} else if p.match(lexer.PLUS) {
		mode = ast.Possessive
	}

	return &ast.Quant{
		Base: ast.NewBase(spanBetween(start, p.previous())),
		Item: item, Min: min, Max: max, Mode: mode,
	}
}

// tryParseBound attempts "{" N ("," N?)? "}" without committing the cursor
// if it doesn't match, since a bare "{" after an atom may instead be the
// start of an unrelated object-literal atom in sequence position.
func (p *Parser) tryParseBound() (min, max int, ok bool) {
	if !p.check(lexer.LBRACE) {
		return 0, 0, false
	}
	save := p.current
	p.advance() // "{"
	if !p.check(lexer.NUMBER) {
		p.current = save
		return 0, 0, false
	}
	m := int(p.advance().Literal.(float64))
	n := m
	if p.match(lexer.COMMA) {
		if p.check(lexer.NUMBER) {
			n = int(p.advance().Literal.(float64))
		} else {
			n = -1 // "{m,}" unbounded
		}
	}
	if !p.match(lexer.RBRACE) {
		p.current = save
		return 0, 0, false
	}
	if m < 0 || (n >= 0 && n < m) {
		p.error("invalid quantifier bound")
	}
	return m, n, true
}

// parseAtom: atom ::= LITERAL | REGEX | "_" | "_string" | "_number" |
// "_boolean" | NAME ("/i")? | "[" seq "]" | "{" obj_body "}" |
// "{{" set_body "}}" | "(" pattern ")" | "(?" pattern ")" | "(!" pattern ")"
// | ">>" pattern "<<" | label? atom
func (p *Parser) parseAtom() ast.Node {
	if p.check(lexer.LABEL) {
		tok := p.advance()
		inner := p.parseAtom()
		return &ast.Label{Base: ast.NewBase(spanBetween(tok, p.previous())), Name: nameOf(tok), Inner: inner}
	}

	tok := p.peek()
	switch tok.Kind {
	case lexer.NUMBER, lexer.STRING:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(spanAt(tok)), Value: tok.Literal}
	case lexer.IDENT:
		p.advance()
		switch tok.Lexeme {
		case "true":
			return &ast.Literal{Base: ast.NewBase(spanAt(tok)), Value: true}
		case "false":
			return &ast.Literal{Base: ast.NewBase(spanAt(tok)), Value: false}
		case "null":
			return &ast.Literal{Base: ast.NewBase(spanAt(tok)), Value: nil}
		default:
			return &ast.Literal{Base: ast.NewBase(spanAt(tok)), Value: tok.Lexeme}
		}
	case lexer.CI_IDENT:
		p.advance()
		return &ast.CaseInsensitive{Base: ast.NewBase(spanAt(tok)), Text: tok.Literal.(string)}
	case lexer.REGEX:
		p.advance()
		pattern, flags, _ := lexer.RegexPattern(tok.Literal)
		return &ast.Regex{Base: ast.NewBase(spanAt(tok)), Source: pattern, Flags: flags}
	case lexer.WILDCARD:
		p.advance()
		return &ast.Wildcard{Base: ast.NewBase(spanAt(tok))}
	case lexer.WILDCARD_STRING:
		p.advance()
		return &ast.TypedWildcard{Base: ast.NewBase(spanAt(tok)), Type: "string"}
	case lexer.WILDCARD_NUMBER:
		p.advance()
		return &ast.TypedWildcard{Base: ast.NewBase(spanAt(tok)), Type: "number"}
	case lexer.WILDCARD_BOOL:
		p.advance()
		return &ast.TypedWildcard{Base: ast.NewBase(spanAt(tok)), Type: "boolean"}
	case lexer.SCALAR, lexer.GROUP_ARR, lexer.GROUP_OBJ:
		p.advance()
		sigil, _ := sigilKindOf(tok.Kind)
		return &ast.Variable{Base: ast.NewBase(spanAt(tok)), Sigil: sigil, Name: nameOf(tok)}
	case lexer.LBRACKET:
		return p.parseArray()
	case lexer.LBRACE:
		if p.peekAt(1).Kind == lexer.LBRACE {
			return p.parseSet()
		}
		return p.parseObject()
	case lexer.LPAREN:
		return p.parseParenAtom()
	case lexer.LPAREN_Q:
		p.advance()
		inner := p.parsePattern()
		closeTok := p.consume(lexer.RPAREN, "')' closing positive lookahead")
		return &ast.Lookahead{Base: ast.NewBase(spanBetween(tok, closeTok)), Inner: inner, Negative: false}
	case lexer.LPAREN_B:
		p.advance()
		inner := p.parsePattern()
		closeTok := p.consume(lexer.RPAREN, "')' closing negative lookahead")
		return &ast.Lookahead{Base: ast.NewBase(spanBetween(tok, closeTok)), Inner: inner, Negative: true}
	case lexer.GG:
		p.advance()
		inner := p.parsePattern()
		closeTok := p.consume(lexer.LL, "'<<' closing replacement marker")
		if p.sawReplacement {
			p.error("a pattern may contain at most one replacement marker")
		}
		p.sawReplacement = true
		return &ast.Replacement{Base: ast.NewBase(spanBetween(tok, closeTok)), Inner: inner}
	case lexer.ELLIPSIS:
		p.advance()
		return &ast.Spread{Base: ast.NewBase(spanAt(tok))}
	default:
		p.error("expected a pattern atom, found " + tok.Kind.String())
		p.advance()
		return &ast.Epsilon{Base: ast.NewBase(spanAt(tok))}
	}
}

// parseParenAtom resolves the three constructs sharing a leading "(": a
// plain group "(pattern)", a bind-as "(pattern as SIGIL NAME)", and a guard
// "(pattern where expr)".
func (p *Parser) parseParenAtom() ast.Node {
	openTok := p.advance() // "("
	inner := p.parsePattern()

	if p.match(lexer.AS) {
		sigilTok := p.advance()
		sigil, ok := sigilKindOf(sigilTok.Kind)
		if !ok {
			p.error("expected a variable sigil after 'as'")
		}
		name := nameOf(sigilTok)
		closeTok := p.consume(lexer.RPAREN, "')' closing bind-as")
		return &ast.Bind{Base: ast.NewBase(spanBetween(openTok, closeTok)), Sigil: sigil, Name: name, Pattern: inner}
	}

	if p.match(lexer.WHERE) {
		expr, src := p.parseGuardExpr()
		closeTok := p.consume(lexer.RPAREN, "')' closing guard clause")
		return &ast.Guard{Base: ast.NewBase(spanBetween(openTok, closeTok)), Pattern: inner, Expr: expr, ExprSrc: src}
	}

	closeTok := p.consume(lexer.RPAREN, "')' closing group")
	return &ast.Group{Base: ast.NewBase(spanBetween(openTok, closeTok)), Inner: inner}
}

// parseArray: "[" seq "]", seq ::= item* (with optional leading/trailing "...").
func (p *Parser) parseArray() ast.Node {
	openTok := p.advance() // "["
	var items []ast.Node
	leading := false
	if p.check(lexer.ELLIPSIS) && p.peekAt(1).Kind != lexer.RBRACKET {
		p.advance()
		leading = true
	}
	for !p.check(lexer.RBRACKET) && !p.isAtEnd() {
		items = append(items, p.parseItem())
	}
	trailing := false
	if len(items) > 0 {
		if _, ok := items[len(items)-1].(*ast.Spread); ok {
			trailing = true
			items = items[:len(items)-1]
		}
	}
	closeTok := p.consume(lexer.RBRACKET, "']' closing array pattern")
	var body ast.Node = &ast.Seq{Base: ast.NewBase(spanBetween(openTok, closeTok)), Items: items}
	if len(items) == 0 {
		body = &ast.Epsilon{Base: ast.NewBase(spanBetween(openTok, closeTok))}
	}
	return &ast.Array{
		Base:             ast.NewBase(spanBetween(openTok, closeTok)),
		Body:             body,
		LeadingEllipsis:  leading,
		TrailingEllipsis: trailing,
	}
}

// parseSet: "{{" set_body "}}".
func (p *Parser) parseSet() ast.Node {
	openTok := p.advance() // first "{"
	p.advance()            // second "{"
	var items []ast.Node
	hasSpread := false
	for !(p.check(lexer.RBRACE) && p.peekAt(1).Kind == lexer.RBRACE) && !p.isAtEnd() {
		if p.check(lexer.ELLIPSIS) {
			p.advance()
			hasSpread = true
			continue
		}
		items = append(items, p.parseItem())
	}
	p.consume(lexer.RBRACE, "'}' closing set pattern")
	closeTok := p.consume(lexer.RBRACE, "'}' closing set pattern")
	return &ast.Set{Base: ast.NewBase(spanBetween(openTok, closeTok)), Items: items, HasSpread: hasSpread}
}
