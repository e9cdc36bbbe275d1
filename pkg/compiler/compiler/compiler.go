// Package compiler provides bytecode generation for autoscript programs.
// It transforms an AST into a script.Script: a flat instruction sequence, a
// deduplicated literal pool and a label table.
package compiler

import (
	"fmt"

	"github.com/zurustar/autoscript/pkg/compiler/ast"
	"github.com/zurustar/autoscript/pkg/compiler/token"
	"github.com/zurustar/autoscript/pkg/opcode"
	"github.com/zurustar/autoscript/pkg/script"
)

// ErrorKind classifies compiler errors.
type ErrorKind string

const (
	// KindDuplicateLabel is reported when two functions share a name.
	KindDuplicateLabel ErrorKind = "DuplicateLabel"
	// KindUnsupportedArity is reported when a call has more arguments than
	// the configured limit.
	KindUnsupportedArity ErrorKind = "UnsupportedArity"
	// KindUnreachableAstShape is reported for AST shapes the parser never
	// produces. It indicates a defect, not a user error.
	KindUnreachableAstShape ErrorKind = "UnreachableAstShape"
)

// CompilerError represents an error that occurred during compilation.
// It includes location information when available from AST nodes.
type CompilerError struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compiler error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("compiler error: %s", e.Message)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxArgs limits the number of literal arguments a call may take.
// n <= 0 means unlimited, which is the default. WithMaxArgs(1) rejects any
// call with two or more arguments.
func WithMaxArgs(n int) Option {
	return func(c *Compiler) {
		c.maxArgs = n
	}
}

// Compiler generates bytecode from an AST.
type Compiler struct {
	maxArgs int
	errors  []error

	code     []opcode.OpCode
	literals []opcode.Literal
	interned map[string]int
	labels   map[string]int
	declared map[string]*ast.FunctionDecl
}

// New creates a new Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles the program. Every error found is returned; when there is
// at least one, the Script is nil.
func (c *Compiler) Compile(program *ast.Program) (*script.Script, []error) {
	c.reset()

	if program == nil {
		c.addError(KindUnreachableAstShape, token.Token{}, "program is nil")
		return nil, c.errors
	}

	for _, item := range program.Items {
		switch it := item.(type) {
		case *ast.FunctionDecl:
			c.compileFunctionDecl(it)
		case *ast.CommentStatement:
			// comments produce no code
		default:
			c.addError(KindUnreachableAstShape, pos(item), "unknown top-level item %T", item)
		}
	}
	c.emit(opcode.End())

	if len(c.errors) > 0 {
		return nil, c.errors
	}
	return script.New(c.code, c.literals, c.labels), nil
}

// Errors returns the errors of the last Compile call.
func (c *Compiler) Errors() []error {
	return c.errors
}

func (c *Compiler) reset() {
	c.errors = nil
	c.code = nil
	c.literals = nil
	c.interned = make(map[string]int)
	c.labels = make(map[string]int)
	c.declared = make(map[string]*ast.FunctionDecl)
}

// compileFunctionDecl emits Fn(name) BlockStart <calls> BlockEnd.
func (c *Compiler) compileFunctionDecl(fn *ast.FunctionDecl) {
	if fn == nil || fn.Name == nil || fn.Body == nil {
		c.addError(KindUnreachableAstShape, pos(fn), "function declaration without name or body")
		return
	}

	name := fn.Name.Value
	if prev, ok := c.declared[name]; ok {
		c.addError(KindDuplicateLabel, fn.Name.Token,
			"function %q is already declared at line %d, column %d", name, prev.Name.Token.Line, prev.Name.Token.Column)
	} else {
		c.declared[name] = fn
		c.labels[name] = len(c.code)
	}

	c.emit(opcode.Fn(c.intern(opcode.StringLiteral(name))))
	c.emit(opcode.BlockStart())

	for _, stmt := range fn.Body.Statements {
		switch s := stmt.(type) {
		case *ast.CallStatement:
			c.compileCall(s)
		case *ast.CommentStatement:
			// comments produce no code
		default:
			c.addError(KindUnreachableAstShape, pos(stmt), "unknown statement %T", stmt)
		}
	}

	c.emit(opcode.BlockEnd())
}

// compileCall emits Call(name, argc) followed by one Literal per argument.
func (c *Compiler) compileCall(call *ast.CallStatement) {
	if call == nil || call.Name == nil {
		c.addError(KindUnreachableAstShape, pos(call), "call without a callee name")
		return
	}

	argc := len(call.Arguments)
	if c.maxArgs > 0 && argc > c.maxArgs {
		c.addError(KindUnsupportedArity, call.Token,
			"call to %q has %d arguments, at most %d supported", call.Name.Value, argc, c.maxArgs)
		return
	}

	c.emit(opcode.Call(c.intern(opcode.StringLiteral(call.Name.Value)), argc))
	for _, arg := range call.Arguments {
		if arg == nil || arg.Value.Kind == opcode.LiteralNone {
			c.addError(KindUnreachableAstShape, call.Token, "call to %q has an empty argument", call.Name.Value)
			return
		}
		c.emit(opcode.Lit(c.intern(arg.Value)))
	}
}

// intern returns the pool index of lit, appending it on first use.
func (c *Compiler) intern(lit opcode.Literal) int {
	key := lit.Key()
	if idx, ok := c.interned[key]; ok {
		return idx
	}
	idx := len(c.literals)
	c.literals = append(c.literals, lit)
	c.interned[key] = idx
	return idx
}

func (c *Compiler) emit(op opcode.OpCode) {
	c.code = append(c.code, op)
}

// addError records an error at the given token's position.
func (c *Compiler) addError(kind ErrorKind, at token.Token, format string, args ...any) {
	c.errors = append(c.errors, &CompilerError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    at.Line,
		Column:  at.Column,
	})
}

// pos returns the position of n, or the zero token for a nil node.
func pos(n ast.Node) token.Token {
	switch v := n.(type) {
	case nil:
		return token.Token{}
	case *ast.FunctionDecl:
		if v == nil {
			return token.Token{}
		}
	case *ast.CallStatement:
		if v == nil {
			return token.Token{}
		}
	}
	return n.Pos()
}
