// Package token defines the token produced by lex in lexer mode,
// mirroring github.com/ava12/llx/lexer's Token but carrying the
// data model's Value coercion instead of a bare type code.
package token

import "github.com/ava12/koine/pos"

// Token is produced only when a grammar carries a lexer block.
type Token struct {
	Type string
	Text string

	// Value holds the coerced value when the defining token's ast.type
	// directive is number, bool, or null. nil means no coercion applied.
	Value any

	position pos.Position
}

// New builds a Token at the given position.
func New(typ, text string, value any, at pos.Position) Token {
	return Token{Type: typ, Text: text, Value: value, position: at}
}

func (t Token) Line() int              { return t.position.Line() }
func (t Token) Col() int               { return t.position.Col() }
func (t Token) Offset() int            { return t.position.Offset() }
func (t Token) Position() pos.Position { return t.position }
