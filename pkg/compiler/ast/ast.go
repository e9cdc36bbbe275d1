// Package ast defines the abstract syntax tree of autoscript source files.
//
// A program is a flat list of top-level items (function declarations and
// comments); a function body is a flat list of statements (calls and
// comments). There are no expressions and no nested blocks.
package ast

import (
	"math/big"
	"strings"

	"github.com/zurustar/autoscript/pkg/compiler/token"
	"github.com/zurustar/autoscript/pkg/opcode"
)

// Node is the interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Token
}

// Item is a top-level node of a program.
type Item interface {
	Node
	itemNode()
}

// Statement is a node inside a function body.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node.
type Program struct {
	Items []Item
}

func (p *Program) TokenLiteral() string {
	if len(p.Items) > 0 {
		return p.Items[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out strings.Builder
	for _, it := range p.Items {
		out.WriteString(it.String())
		out.WriteString("\n")
	}
	return out.String()
}

func (p *Program) Pos() token.Token {
	if len(p.Items) > 0 {
		return p.Items[0].Pos()
	}
	return token.Token{Line: 1, Column: 1}
}

// Functions returns the function declarations in source order.
func (p *Program) Functions() []*FunctionDecl {
	var fns []*FunctionDecl
	for _, it := range p.Items {
		if fn, ok := it.(*FunctionDecl); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// FunctionDecl represents `fn name() { ... }`.
type FunctionDecl struct {
	Token token.Token // the 'fn' token
	Name  *Identifier
	Body  *Block
}

func (f *FunctionDecl) itemNode()            {}
func (f *FunctionDecl) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionDecl) Pos() token.Token     { return f.Token }
func (f *FunctionDecl) String() string {
	return "fn " + f.Name.String() + "() " + f.Body.String()
}

// Block represents `{ statement* }`.
type Block struct {
	Token      token.Token // the '{' token
	Statements []Statement
	End        token.Token // the '}' token
}

func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Pos() token.Token     { return b.Token }
func (b *Block) String() string {
	var out strings.Builder
	out.WriteString("{")
	for _, s := range b.Statements {
		out.WriteString(" ")
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Calls returns the call statements of the block in order.
func (b *Block) Calls() []*CallStatement {
	var calls []*CallStatement
	for _, s := range b.Statements {
		if c, ok := s.(*CallStatement); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// CallStatement represents `name(literal*);`.
type CallStatement struct {
	Token     token.Token // the callee identifier token
	Name      *Identifier
	Arguments []*Literal
}

func (c *CallStatement) statementNode()       {}
func (c *CallStatement) TokenLiteral() string { return c.Token.Literal }
func (c *CallStatement) Pos() token.Token     { return c.Token }
func (c *CallStatement) String() string {
	args := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		args[i] = a.String()
	}
	return c.Name.String() + "(" + strings.Join(args, " ") + ");"
}

// CommentStatement is a `//` comment. It may appear at top level or in a block.
type CommentStatement struct {
	Token token.Token
	Text  string
}

func (c *CommentStatement) itemNode()            {}
func (c *CommentStatement) statementNode()       {}
func (c *CommentStatement) TokenLiteral() string { return c.Token.Literal }
func (c *CommentStatement) Pos() token.Token     { return c.Token }
func (c *CommentStatement) String() string       { return c.Text }

// Identifier is a function name.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() token.Token     { return i.Token }
func (i *Identifier) String() string       { return i.Value }

// Literal is an integer or string call argument.
type Literal struct {
	Token token.Token
	Value opcode.Literal
}

func (l *Literal) TokenLiteral() string { return l.Token.Literal }
func (l *Literal) Pos() token.Token     { return l.Token }
func (l *Literal) String() string       { return l.Value.String() }

// NewIntLiteral builds an integer literal node.
func NewIntLiteral(tok token.Token, v *big.Int) *Literal {
	return &Literal{Token: tok, Value: opcode.IntLiteral(v)}
}

// NewStringLiteral builds a string literal node.
func NewStringLiteral(tok token.Token, s string) *Literal {
	return &Literal{Token: tok, Value: opcode.StringLiteral(s)}
}
