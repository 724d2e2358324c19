package parser

import (
	"github.com/tendril-lang/tendril/internal/pattern/ast"
	"github.com/tendril-lang/tendril/internal/pattern/lexer"
)

// parseObject: "{" obj_body "}".
// obj_body ::= ( kv | each_kv | not_assert | flow | collecting )* residual?
func (p *Parser) parseObject() ast.Node {
	openTok := p.advance() // "{"
	obj := &ast.Object{}
	sawResidual := false

	for !p.check(lexer.RBRACE) && !p.isAtEnd() {
		if sawResidual {
			p.error("residual ('%') must be the last entry in an object pattern")
		}
		switch {
		case p.check(lexer.EACH):
			p.advance()
			obj.Assertions = append(obj.Assertions, p.parseKV(true))
		case p.check(lexer.LPAREN_B):
			obj.NotAsserts = append(obj.NotAsserts, p.parseNotAssert())
		case p.check(lexer.ARROW):
			obj.Flows = append(obj.Flows, p.parseFlow())
		case p.check(lexer.LANGLE) && p.peekAt(1).Kind == lexer.COLLECTING:
			obj.Collects = append(obj.Collects, p.parseCollecting())
		case p.check(lexer.GROUP_OBJ) && nameOf(p.peek()) == "":
			obj.Residual = p.parseResidual()
			sawResidual = true
		default:
			obj.Assertions = append(obj.Assertions, p.parseKV(false))
		}
	}
	closeTok := p.consume(lexer.RBRACE, "'}' closing object pattern")
	obj.Base = ast.NewBase(spanBetween(openTok, closeTok))
	return obj
}

// parseKV: kv ::= key_pat ":" val_pat ( "else" val_pat )* optional?
// each_kv shares the same tail, distinguished only by the leading "each".
func (p *Parser) parseKV(each bool) *ast.ObjectAssertion {
	startTok := p.peek()
	key := p.parseKeyPattern()
	p.consume(lexer.COLON, "':' after object key pattern")
	val := p.parseAlt()
	var elseVals []ast.Node
	for p.match(lexer.ELSE) {
		elseVals = append(elseVals, p.parseAlt())
	}
	for _, v := range append([]ast.Node{val}, elseVals...) {
		if _, mixed := v.(*ast.Alt); mixed && len(elseVals) > 0 {
			p.error("cannot mix '|' and 'else' without parentheses")
		}
	}
	optional := p.match(lexer.QUESTION)
	return &ast.ObjectAssertion{
		Key: key, Value: val, ElseValues: elseVals, Each: each, Optional: optional,
		Span: spanBetween(startTok, p.previous()),
	}
}

// parseKeyPattern handles the "a.b.c" dotted-path and ".."/"..key" deep-path
// forms in key position; any other atom is an ordinary key-matching pattern
// (literal, regex, case-insensitive literal, or typed wildcard).
func (p *Parser) parseKeyPattern() ast.Node {
	if p.check(lexer.DOTDOT) {
		tok := p.advance()
		name := ""
		if p.check(lexer.IDENT) {
			name = p.advance().Lexeme
		}
		return &ast.DeepPath{Base: ast.NewBase(spanAt(tok)), Key: name}
	}
	if p.check(lexer.IDENT) && p.peekAt(1).Kind == lexer.DOT {
		startTok := p.peek()
		path := []string{p.advance().Lexeme}
		for p.match(lexer.DOT) {
			path = append(path, p.consume(lexer.IDENT, "identifier after '.' in key path").Lexeme)
		}
		return &ast.Dot{Base: ast.NewBase(spanBetween(startTok, p.previous())), Path: path}
	}
	return p.parseAtom()
}

// parseNotAssert: "(!" key_pat ":" val_pat ")" | "(!%)"
func (p *Parser) parseNotAssert() *ast.NotAssert {
	openTok := p.advance() // "(!"
	if p.check(lexer.GROUP_OBJ) && nameOf(p.peek()) == "" {
		p.advance()
		closeTok := p.consume(lexer.RPAREN, "')' closing (!%)")
		return &ast.NotAssert{Base: ast.NewBase(spanBetween(openTok, closeTok)), IsKeysAll: true}
	}
	key := p.parseKeyPattern()
	p.consume(lexer.COLON, "':' in negative object assertion")
	val := p.parseAlt()
	closeTok := p.consume(lexer.RPAREN, "')' closing negative object assertion")
	return &ast.NotAssert{Base: ast.NewBase(spanBetween(openTok, closeTok)), Key: key, Value: val}
}

// parseFlow: "->" ("%"|"@") NAME ( "across" "^" NAME )?
func (p *Parser) parseFlow() *ast.Flow {
	arrowTok := p.advance()
	sigilTok := p.peek()
	sigil, ok := sigilKindOf(sigilTok.Kind)
	if !ok || sigilTok.Kind == lexer.SCALAR {
		p.error("expected '%name' or '@name' after '->'")
		return &ast.Flow{Base: ast.NewBase(spanAt(arrowTok))}
	}
	p.advance()
	bucket := nameOf(sigilTok)
	endTok := sigilTok
	label := ""
	if p.match(lexer.ACROSS) {
		labelTok := p.consume(lexer.LABEL_REF, "'^label' after 'across'")
		label = nameOf(labelTok)
		endTok = labelTok
	}
	return &ast.Flow{Base: ast.NewBase(spanBetween(arrowTok, endTok)), Sigil: sigil, Bucket: bucket, AcrossLabel: label}
}

// parseResidual: "%" ("?" | "#{" N ("," N?)? "}")? ( "as" "%" NAME )?
func (p *Parser) parseResidual() *ast.Residual {
	tok := p.advance() // bare GROUP_OBJ ("%")
	kind := ast.ResidualRequired
	min, max := -1, -1

	switch {
	case p.match(lexer.QUESTION):
		kind = ast.ResidualOptional
	case p.match(lexer.HASHBRACE):
		kind = ast.ResidualCount
		min = int(p.consume(lexer.NUMBER, "a count after '#{'").Literal.(float64))
		max = min
		if p.match(lexer.COMMA) {
			if p.check(lexer.NUMBER) {
				max = int(p.advance().Literal.(float64))
			} else {
				max = -1
			}
		}
		p.consume(lexer.RBRACE, "'}' closing residual count")
	}

	bindAs := ""
	endTok := p.previous()
	if p.match(lexer.AS) {
		nameTok := p.consume(lexer.GROUP_OBJ, "'%name' after 'as'")
		bindAs = nameOf(nameTok)
		endTok = nameTok
	}

	return &ast.Residual{
		Base: ast.NewBase(spanBetween(tok, endTok)),
		Kind: kind, Min: min, Max: max, BindAs: bindAs,
	}
}

// parseCollecting: "<collecting" bind ("," bind)? "in" ("%"|"@") NAME
//
//	"across" "^" NAME ">"
//
// The grammar reuses the name "bind" here for the scalar pair "$k:$v" (key
// var, value var) or the value-only "$v" form; that is distinct from the
// top-level bind production and is parsed directly here.
func (p *Parser) parseCollecting() *ast.Collecting {
	openTok := p.advance() // "<"
	p.consume(lexer.COLLECTING, "'collecting' after '<'")

	firstTok := p.consume(lexer.SCALAR, "a '$name' binding")
	keyVar, valueVar := "", nameOf(firstTok)
	if p.match(lexer.COLON) {
		valTok := p.consume(lexer.SCALAR, "a '$name' binding after ':'")
		keyVar, valueVar = nameOf(firstTok), nameOf(valTok)
	}

	p.consume(lexer.IN, "'in' in collecting clause")
	sigilTok := p.peek()
	sigil, ok := sigilKindOf(sigilTok.Kind)
	if !ok || sigilTok.Kind == lexer.SCALAR {
		p.error("expected '%name' or '@name' after 'in'")
	} else {
		p.advance()
	}
	bucket := nameOf(sigilTok)

	p.consume(lexer.ACROSS, "'across' in collecting clause")
	labelTok := p.consume(lexer.LABEL_REF, "'^label' after 'across'")

	closeTok := p.consume(lexer.RANGLE, "'>' closing collecting clause")
	return &ast.Collecting{
		Base:     ast.NewBase(spanBetween(openTok, closeTok)),
		KeyVar:   keyVar,
		ValueVar: valueVar,
		Sigil:    sigil,
		Bucket:   bucket,
		Label:    nameOf(labelTok),
	}
}
