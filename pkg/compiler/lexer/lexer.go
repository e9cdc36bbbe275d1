// Package lexer provides lexical analysis for autoscript source files.
package lexer

import (
	"unicode/utf8"

	"github.com/zurustar/autoscript/pkg/compiler/token"
)

// Lexer tokenizes autoscript source code.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // line of the current char
	column       int  // column of the current char
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// NextToken returns the next token.
// Comments are returned as COMMENT tokens so the parser can keep them in the AST.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	line, column, offset := l.line, l.column, l.position

	switch l.ch {
	case 0:
		if l.position >= len(l.input) {
			return token.Token{Type: token.EOF, Line: line, Column: column, Offset: offset}
		}
		return l.illegal(line, column, offset)
	case '/':
		if l.peekChar() == '/' {
			lit := l.readComment()
			return token.Token{Type: token.COMMENT, Literal: lit, Line: line, Column: column, Offset: offset}
		}
		return l.illegal(line, column, offset)
	case '(':
		return l.single(token.LPAREN, line, column, offset)
	case ')':
		return l.single(token.RPAREN, line, column, offset)
	case '{':
		return l.single(token.LBRACE, line, column, offset)
	case '}':
		return l.single(token.RBRACE, line, column, offset)
	case ';':
		return l.single(token.SEMICOLON, line, column, offset)
	case ',':
		return l.single(token.COMMA, line, column, offset)
	case '"':
		lit, ok := l.readString()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Literal: `"` + lit, Line: line, Column: column, Offset: offset}
		}
		return token.Token{Type: token.STRING, Literal: lit, Line: line, Column: column, Offset: offset}
	case '-', '+':
		if isDigit(l.peekChar()) {
			return token.Token{Type: token.INT, Literal: l.readNumber(), Line: line, Column: column, Offset: offset}
		}
		return l.illegal(line, column, offset)
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(lit), Literal: lit, Line: line, Column: column, Offset: offset}
		}
		if isDigit(l.ch) {
			return token.Token{Type: token.INT, Literal: l.readNumber(), Line: line, Column: column, Offset: offset}
		}
		return l.illegal(line, column, offset)
	}
}

// GetSource returns the source code as a string
func (l *Lexer) GetSource() string {
	return l.input
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) single(t token.TokenType, line, column, offset int) token.Token {
	tok := token.Token{Type: t, Literal: string(l.ch), Line: line, Column: column, Offset: offset}
	l.readChar()
	return tok
}

// illegal consumes one (possibly multi-byte) character.
func (l *Lexer) illegal(line, column, offset int) token.Token {
	_, size := utf8.DecodeRuneInString(l.input[l.position:])
	if size < 1 {
		size = 1
	}
	lit := l.input[l.position : l.position+size]
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return token.Token{Type: token.ILLEGAL, Literal: lit, Line: line, Column: column, Offset: offset}
}

// readIdentifier reads an identifier. Digits are not part of identifiers.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an optionally signed run of decimal digits.
func (l *Lexer) readNumber() string {
	position := l.position
	if l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads a string literal. The opening quote is the current char.
// It reports false when the input ends before the closing quote.
func (l *Lexer) readString() (string, bool) {
	position := l.position + 1
	for {
		l.readChar()
		if l.ch == '"' {
			lit := l.input[position:l.position]
			l.readChar()
			return lit, true
		}
		if l.position >= len(l.input) {
			return l.input[position:], false
		}
	}
}

// readComment reads a single-line comment up to, not including, the newline.
func (l *Lexer) readComment() string {
	position := l.position
	for l.ch != '\n' && l.position < len(l.input) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isLetter checks if a character may appear in an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if a character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
