// Package lexer tokenizes Tendril pattern source into a token stream.
package lexer

import "fmt"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	ERROR

	// Literals
	NUMBER
	STRING
	REGEX
	IDENT     // bareword identifier
	CI_IDENT  // bareword/string suffixed /i (case-insensitive literal)
	SCALAR    // $name
	GROUP_ARR // @name
	GROUP_OBJ // %name
	LABEL     // §name
	LABEL_REF // ^name

	// Typed wildcards
	WILDCARD        // _
	WILDCARD_STRING // _string
	WILDCARD_NUMBER // _number
	WILDCARD_BOOL   // _boolean

	// Keywords
	AS
	ELSE
	EACH
	WHERE
	ACROSS
	IN
	COLLECTING

	// Punctuation / operators
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	LPAREN   // (
	RPAREN   // )
	COLON    // :
	COMMA    // ,
	DOT      // .
	DOTDOT   // ..
	ELLIPSIS // ...
	ARROW    // ->
	DBLCOLON // ::
	LPAREN_Q // (?
	LPAREN_B // (!
	PIPE     // |
	STAR     // *
	PLUS     // +
	QUESTION // ?
	LANGLE   // <
	RANGLE   // >
	GG       // >>  (replacement marker open)
	LL       // <<  (replacement marker close)
	EQUALS   // =

	// Guard-expression operators; only meaningful inside a
	// `where` clause, tokenized by the same scanner as everything else.
	Minus      // -
	OrOr       // ||
	AndAnd     // &&
	Bang       // !
	NotEq      // !=
	EqEq       // ==
	LtEq       // <=
	GtEq       // >=
	PercentMod // % used as arithmetic modulo (after a value-like token)
	SlashDiv   // / used as arithmetic division (after a value-like token)

	HASHBRACE // #{  (residual-count opener, e.g. "%#{2,5}")
)

var names = map[Kind]string{
	EOF: "EOF", ERROR: "ERROR", NUMBER: "NUMBER", STRING: "STRING", REGEX: "REGEX",
	IDENT: "IDENT", CI_IDENT: "CI_IDENT", SCALAR: "SCALAR", GROUP_ARR: "GROUP_ARR",
	GROUP_OBJ: "GROUP_OBJ", LABEL: "LABEL", LABEL_REF: "LABEL_REF",
	WILDCARD: "WILDCARD", WILDCARD_STRING: "WILDCARD_STRING", WILDCARD_NUMBER: "WILDCARD_NUMBER",
	WILDCARD_BOOL: "WILDCARD_BOOL", AS: "AS", ELSE: "ELSE", EACH: "EACH", WHERE: "WHERE",
	ACROSS: "ACROSS", IN: "IN", COLLECTING: "COLLECTING",
	LBRACE: "LBRACE", RBRACE: "RBRACE", LBRACKET: "LBRACKET", RBRACKET: "RBRACKET",
	LPAREN: "LPAREN", RPAREN: "RPAREN", COLON: "COLON", COMMA: "COMMA", DOT: "DOT",
	DOTDOT: "DOTDOT", ELLIPSIS: "ELLIPSIS", ARROW: "ARROW", DBLCOLON: "DBLCOLON",
	LPAREN_Q: "LPAREN_Q", LPAREN_B: "LPAREN_B", PIPE: "PIPE", STAR: "STAR", PLUS: "PLUS",
	QUESTION: "QUESTION", LANGLE: "LANGLE", RANGLE: "RANGLE", GG: "GG", LL: "LL",
	EQUALS: "EQUALS", SlashDiv: "SLASH",
	Minus: "MINUS", OrOr: "OROR", AndAnd: "ANDAND", Bang: "BANG", NotEq: "NOTEQ",
	EqEq: "EQEQ", LtEq: "LTEQ", GtEq: "GTEQ", PercentMod: "PERCENT", HASHBRACE: "HASHBRACE",
}

// String renders the Kind's name, falling back for unknown values.
func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Token is a single lexical unit with its source position.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal interface{} // parsed value for NUMBER/STRING/REGEX literals
	Offset  int         // byte offset of the first rune
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d:%d", t.Kind, t.Lexeme, t.Line, t.Column)
}

// Error describes a lexical failure with a precise source offset.
type Error struct {
	Message string
	Offset  int
	Line    int
	Column  int
}

func (e Error) Error() string {
	return fmt.Sprintf("lex error at %d:%d (offset %d): %s", e.Line, e.Column, e.Offset, e.Message)
}

// Keywords maps reserved words to their token kinds. Identifiers not in
// this map are plain IDENT tokens.
var Keywords = map[string]Kind{
	"as":         AS,
	"else":       ELSE,
	"each":       EACH,
	"where":      WHERE,
	"across":     ACROSS,
	"in":         IN,
	"collecting": COLLECTING,
}
