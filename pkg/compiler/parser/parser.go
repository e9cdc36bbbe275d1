// Package parser provides syntax analysis for autoscript source files.
//
// The parser is a recursive-descent parser over the token stream produced by
// the lexer. It stops at the first error; the error identifies the position
// and the unconsumed remainder of the input.
package parser

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zurustar/autoscript/pkg/compiler/ast"
	"github.com/zurustar/autoscript/pkg/compiler/lexer"
	"github.com/zurustar/autoscript/pkg/compiler/token"
	"github.com/zurustar/autoscript/pkg/opcode"
)

// maxRemainderLen bounds the remainder quoted in error messages.
const maxRemainderLen = 40

// ParserError represents a syntax error.
type ParserError struct {
	Message string
	Line    int
	Column  int
	Offset  int
	// Remainder is the input from the offending token to the end.
	Remainder string
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("parser error at line %d, column %d: %s (remaining input: %q)",
		e.Line, e.Column, e.Message, truncate(e.Remainder, maxRemainderLen))
}

// Parser parses autoscript source code into an AST.
type Parser struct {
	l      *lexer.Lexer
	source string
	errors []error

	curToken  token.Token
	peekToken token.Token
}

// New creates a new Parser.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		source: l.GetSource(),
	}

	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns the parser errors.
func (p *Parser) Errors() []error {
	return p.errors
}

// ParseProgram parses the entire program.
// On error the returned program holds every item parsed before the error.
func (p *Parser) ParseProgram() (*ast.Program, []error) {
	program := &ast.Program{Items: []ast.Item{}}

	for !p.curTokenIs(token.EOF) && len(p.errors) == 0 {
		switch p.curToken.Type {
		case token.COMMENT:
			program.Items = append(program.Items, p.parseComment())
		case token.FN:
			if fn := p.parseFunctionDecl(); fn != nil {
				program.Items = append(program.Items, fn)
			}
		default:
			p.unexpected("expected function declaration")
		}
	}

	return program, p.errors
}

// parseComment consumes a COMMENT token.
func (p *Parser) parseComment() *ast.CommentStatement {
	c := &ast.CommentStatement{Token: p.curToken, Text: p.curToken.Literal}
	p.nextToken()
	return c
}

// parseFunctionDecl parses `fn name() { ... }`. curToken is 'fn'.
func (p *Parser) parseFunctionDecl() *ast.FunctionDecl {
	fn := &ast.FunctionDecl{Token: p.curToken}

	if !p.expectPeek(token.IDENT, "expected function name after 'fn'") {
		return nil
	}
	fn.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(token.LPAREN, "expected '(' after function name") {
		return nil
	}
	if !p.expectPeek(token.RPAREN, "function declarations take no parameters; expected ')'") {
		return nil
	}
	if !p.expectPeek(token.LBRACE, "expected '{' to open function body") {
		return nil
	}

	fn.Body = p.parseBlock()
	if fn.Body == nil {
		return nil
	}
	return fn
}

// parseBlock parses `{ statement* }`. curToken is '{'.
// On success curToken is the token after '}'.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken, Statements: []ast.Statement{}}
	p.nextToken()

	for {
		switch p.curToken.Type {
		case token.RBRACE:
			block.End = p.curToken
			p.nextToken()
			return block
		case token.COMMENT:
			block.Statements = append(block.Statements, p.parseComment())
		case token.IDENT:
			call := p.parseCallStatement()
			if call == nil {
				return nil
			}
			block.Statements = append(block.Statements, call)
		case token.EOF:
			p.unexpected("unterminated block; expected '}'")
			return nil
		default:
			p.unexpected("expected call statement or '}'")
			return nil
		}
	}
}

// parseCallStatement parses `name(literal*);`. curToken is the callee name.
// On success curToken is the token after ';'.
func (p *Parser) parseCallStatement() *ast.CallStatement {
	call := &ast.CallStatement{
		Token:     p.curToken,
		Name:      &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		Arguments: []*ast.Literal{},
	}

	if !p.expectPeek(token.LPAREN, "expected '(' after function name") {
		return nil
	}
	p.nextToken()

	afterLiteral := false
	for !p.curTokenIs(token.RPAREN) {
		switch p.curToken.Type {
		case token.INT:
			lit := p.parseIntegerLiteral()
			if lit == nil {
				return nil
			}
			call.Arguments = append(call.Arguments, lit)
			afterLiteral = true
		case token.STRING:
			call.Arguments = append(call.Arguments, ast.NewStringLiteral(p.curToken, p.curToken.Literal))
			afterLiteral = true
		case token.COMMA:
			if !afterLiteral || !(p.peekTokenIs(token.INT) || p.peekTokenIs(token.STRING)) {
				p.unexpected("',' must separate two literal arguments")
				return nil
			}
			afterLiteral = false
		default:
			p.unexpected("expected literal argument or ')'")
			return nil
		}
		p.nextToken()
	}

	if !p.expectPeek(token.SEMICOLON, "expected ';' after call") {
		return nil
	}
	p.nextToken()
	return call
}

// parseIntegerLiteral converts the current INT token, enforcing the 128-bit range.
func (p *Parser) parseIntegerLiteral() *ast.Literal {
	v, ok := new(big.Int).SetString(p.curToken.Literal, 10)
	if !ok {
		p.unexpected(fmt.Sprintf("could not parse %q as integer", p.curToken.Literal))
		return nil
	}
	if !opcode.InInt128Range(v) {
		p.unexpected(fmt.Sprintf("integer %s is out of the 128-bit signed range", p.curToken.Literal))
		return nil
	}
	return ast.NewIntLiteral(p.curToken, v)
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek advances when the next token has type t, and records an error otherwise.
func (p *Parser) expectPeek(t token.TokenType, msg string) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.nextToken()
	p.unexpected(msg)
	return false
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// unexpected records an error at curToken.
func (p *Parser) unexpected(msg string) {
	tok := p.curToken
	switch tok.Type {
	case token.ILLEGAL:
		if strings.HasPrefix(tok.Literal, `"`) {
			msg = "unterminated string literal"
		} else {
			msg = fmt.Sprintf("illegal character %q", tok.Literal)
		}
	default:
		msg = fmt.Sprintf("%s, got %s", msg, tok)
	}

	remainder := ""
	if tok.Offset >= 0 && tok.Offset <= len(p.source) {
		remainder = p.source[tok.Offset:]
	}

	p.errors = append(p.errors, &ParserError{
		Message:   msg,
		Line:      tok.Line,
		Column:    tok.Column,
		Offset:    tok.Offset,
		Remainder: remainder,
	})
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
