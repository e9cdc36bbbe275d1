// Package compiler provides the compilation pipeline for autoscript source files.
// It transforms source code into a script.Script through three phases:
// 1. Lexer: Tokenization
// 2. Parser: AST generation
// 3. Compiler: bytecode generation
//
// This package provides a unified API:
// - Compile: Compiles source code string to a Script
// - CompileFile: Loads a .auto file from an fs.FS and compiles it
// - CompileSource: Compiles a source already loaded by script.Loader
// - Errors: Flattens a pipeline error into its CompileErrors
package compiler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/zurustar/autoscript/pkg/compiler/compiler"
	"github.com/zurustar/autoscript/pkg/compiler/lexer"
	"github.com/zurustar/autoscript/pkg/compiler/parser"
	"github.com/zurustar/autoscript/pkg/script"
)

// Option configures the bytecode generation phase.
type Option = compiler.Option

// WithMaxArgs limits the number of literal arguments per call; see
// compiler.WithMaxArgs. WithMaxArgs(1) selects the single-argument contract.
func WithMaxArgs(n int) Option {
	return compiler.WithMaxArgs(n)
}

// Compile compiles source code to a Script.
// It chains the lexer → parser → compiler pipeline and stops at the first
// failing phase. The returned error is a *CompileError, or an ErrorList when
// the compiler phase found several problems. No Script is returned on error.
func Compile(source string, opts ...Option) (*script.Script, error) {
	// Phase 1: Lexical analysis
	l := lexer.New(source)

	// Phase 2: Syntax analysis
	p := parser.New(l)
	program, parseErrs := p.ParseProgram()
	if len(parseErrs) > 0 {
		return nil, convertParseError(parseErrs[0], source)
	}

	// Phase 3: bytecode generation
	c := compiler.New(opts...)
	s, compileErrs := c.Compile(program)
	if len(compileErrs) > 0 {
		list := make(ErrorList, 0, len(compileErrs))
		for _, err := range compileErrs {
			list = append(list, convertCompilerError(err, source))
		}
		if len(list) == 1 {
			return nil, list[0]
		}
		return nil, list
	}

	return s.WithSourceHash(script.HashSource([]byte(source))), nil
}

// CompileSource compiles a source loaded by script.Loader.
func CompileSource(src *script.Source, opts ...Option) (*script.Script, error) {
	s, err := Compile(src.Content, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.FileName, err)
	}
	return s, nil
}

// CompileFile loads name from fsys (case-insensitive, any supported
// encoding) and compiles it.
func CompileFile(fsys fs.FS, name string, opts ...Option) (*script.Script, error) {
	src, err := script.NewLoader(fsys).Load(name)
	if err != nil {
		return nil, err
	}
	return CompileSource(src, opts...)
}

// Errors returns every CompileError contained in err.
func Errors(err error) []*CompileError {
	var list ErrorList
	if errors.As(err, &list) {
		return list
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return []*CompileError{ce}
	}
	return nil
}

func convertParseError(err error, source string) *CompileError {
	var pe *parser.ParserError
	if !errors.As(err, &pe) {
		return &CompileError{Kind: KindParseError, Phase: PhaseParser, Message: err.Error(), cause: err}
	}
	msg := pe.Message
	if pe.Remainder != "" {
		msg = fmt.Sprintf("%s (remaining input: %q)", pe.Message, truncate(pe.Remainder, 40))
	}
	ce := newCompileError(KindParseError, PhaseParser, msg, pe.Line, pe.Column, source, err)
	ce.Remainder = pe.Remainder
	return ce
}

func convertCompilerError(err error, source string) *CompileError {
	var cerr *compiler.CompilerError
	if !errors.As(err, &cerr) {
		return &CompileError{Kind: KindUnreachableAstShape, Phase: PhaseInternal, Message: err.Error(), cause: err}
	}
	kind := Kind(cerr.Kind)
	phase := PhaseCompiler
	if kind == KindUnreachableAstShape {
		phase = PhaseInternal
	}
	return newCompileError(kind, phase, cerr.Message, cerr.Line, cerr.Column, source, err)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
