// Package vm provides error handling for the autoscript virtual machine.
package vm

import (
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Script errors - the program asked for something that cannot be done
	ErrorUnknownFunction ErrorType = "UNKNOWN_FUNCTION"
	ErrorBind            ErrorType = "BIND_ERROR"
	ErrorStackOverflow   ErrorType = "STACK_OVERFLOW"

	// Host errors - the VM was used incorrectly
	ErrorNotLoaded    ErrorType = "NOT_LOADED"
	ErrorNoEntryLabel ErrorType = "NO_ENTRY_LABEL"

	// Defects - the bytecode broke an invariant the compiler guarantees
	ErrorInternal ErrorType = "INTERNAL"
)

// RuntimeError represents a runtime error in the VM.
type RuntimeError struct {
	Type     ErrorType
	Message  string
	PC       int    // PC of the failing instruction, -1 if none
	Function string // callee name when the error concerns a call
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.PC >= 0 {
		return fmt.Sprintf("[%s] %s at pc %d", e.Type, e.Message, e.PC)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// IsDefect reports whether the error indicates broken bytecode rather than a
// script or host mistake.
func (e *RuntimeError) IsDefect() bool {
	return e.Type == ErrorInternal
}

// Is matches another *RuntimeError with the same Type, so callers can write
// errors.Is(err, &vm.RuntimeError{Type: vm.ErrorBind}).
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Type == e.Type
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		PC:      -1,
	}
}

func newUnknownFunctionError(name string, pc int) *RuntimeError {
	return &RuntimeError{
		Type:     ErrorUnknownFunction,
		Message:  fmt.Sprintf("unknown function: %s", name),
		PC:       pc,
		Function: name,
	}
}

func newBindError(name string, pc int, argc int) *RuntimeError {
	return &RuntimeError{
		Type:     ErrorBind,
		Message:  fmt.Sprintf("%s rejected its %d argument(s)", name, argc),
		PC:       pc,
		Function: name,
	}
}

func newStackOverflowError(name string, pc int, limit int) *RuntimeError {
	return &RuntimeError{
		Type:     ErrorStackOverflow,
		Message:  fmt.Sprintf("stack overflow: calling %s exceeds maximum depth %d", name, limit),
		PC:       pc,
		Function: name,
	}
}

func newInternalError(pc int, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Type:    ErrorInternal,
		Message: fmt.Sprintf(format, args...),
		PC:      pc,
	}
}
