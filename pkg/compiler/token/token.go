// Package token defines the lexical tokens of autoscript source files.
package token

import "fmt"

// TokenType represents the type of a token.
type TokenType string

// Token represents a lexical token.
// Line and Column are 1-indexed; Offset is the byte offset of the first
// character of the token in the source.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
	Offset  int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	COMMENT TokenType = "COMMENT"

	// Identifiers + Literals
	IDENT  TokenType = "IDENT"  // wait_frames, run
	INT    TokenType = "INT"    // 120, -3
	STRING TokenType = "STRING" // "Start"

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"

	// Keywords
	FN TokenType = "FN"
)

var keywords = map[string]TokenType{
	"fn": FN,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// String formats the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT, INT:
		return fmt.Sprintf("%s %q", t.Type, t.Literal)
	case STRING:
		return fmt.Sprintf("string \"%s\"", t.Literal)
	case FN:
		return `keyword "fn"`
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
