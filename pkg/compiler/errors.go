// Package compiler provides the compilation pipeline for autoscript source files.
// This file defines the CompileError type for structured error reporting.
package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies compile errors.
type Kind string

const (
	KindParseError          Kind = "ParseError"
	KindDuplicateLabel      Kind = "DuplicateLabel"
	KindUnsupportedArity    Kind = "UnsupportedArity"
	KindUnreachableAstShape Kind = "UnreachableAstShape"
)

// Sentinel errors matched with errors.Is against any *CompileError of the
// corresponding kind.
var (
	ErrParse               = errors.New("parse error")
	ErrDuplicateLabel      = errors.New("duplicate label")
	ErrUnsupportedArity    = errors.New("unsupported arity")
	ErrUnreachableAstShape = errors.New("unreachable AST shape")
)

var kindSentinels = map[Kind]error{
	KindParseError:          ErrParse,
	KindDuplicateLabel:      ErrDuplicateLabel,
	KindUnsupportedArity:    ErrUnsupportedArity,
	KindUnreachableAstShape: ErrUnreachableAstShape,
}

// Phases reported in CompileError.Phase.
const (
	PhaseParser   = "parser"
	PhaseCompiler = "compiler"
	PhaseInternal = "internal"
)

// CompileError represents a structured compilation error with location information.
type CompileError struct {
	// Kind classifies the error.
	Kind Kind

	// Phase indicates which compilation phase generated the error:
	// "parser", "compiler", or "internal" for defects.
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line is the 1-indexed line number where the error occurred.
	Line int

	// Column is the 1-indexed column number where the error occurred.
	Column int

	// Context contains the source code around the error location,
	// with a pointer (^) indicating the error column.
	Context string

	// Remainder is the unconsumed input for parse errors.
	Remainder string

	cause error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, e.Context)
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

// Is matches the sentinel for e.Kind.
func (e *CompileError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Unwrap returns the phase-specific error this one was built from.
func (e *CompileError) Unwrap() error {
	return e.cause
}

// IsDefect reports whether the error indicates a compiler bug rather than a
// problem with the source.
func (e *CompileError) IsDefect() bool {
	return e.Kind == KindUnreachableAstShape
}

// ErrorList is returned when compilation finds more than one error.
type ErrorList []*CompileError

func (l ErrorList) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes every error to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// newCompileError creates a CompileError with source context.
func newCompileError(kind Kind, phase, message string, line, column int, source string, cause error) *CompileError {
	return &CompileError{
		Kind:    kind,
		Phase:   phase,
		Message: message,
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
		cause:   cause,
	}
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column. Tabs before the column are kept
// in the pointer line so the caret lines up.
//
// Example output:
//
//	  2 | fn run() {
//	  3 |   a();
//	> 4 |   b(;
//	    |     ^
//	  5 | }
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder
	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		lineContent := strings.TrimRight(lines[i], "\r")

		if lineNum != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", lineNumWidth, lineNum, lineContent)
			continue
		}

		fmt.Fprintf(&buf, "> %*d | %s\n", lineNumWidth, lineNum, lineContent)
		fmt.Fprintf(&buf, "  %*s | %s^\n", lineNumWidth, "", pointerIndent(lineContent, column))
	}

	return buf.String()
}

// pointerIndent returns whitespace reaching the given 1-indexed byte column.
func pointerIndent(lineContent string, column int) string {
	if column <= 1 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < column-1; i++ {
		if i < len(lineContent) && lineContent[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
