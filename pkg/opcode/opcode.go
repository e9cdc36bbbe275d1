// Package opcode defines the instruction set for the autoscript virtual machine.
// This package is the foundation that both the compiler and VM depend on.
// The compiler generates OpCode sequences, and the VM executes them.
package opcode

import "fmt"

// Cmd represents an OpCode command type.
// The zero value is OpEnd so that an unset instruction terminates the program.
type Cmd uint8

// OpCode command types for all supported operations.
const (
	// OpEnd terminates the program.
	// Operands: none
	OpEnd Cmd = iota

	// OpFn marks a named function entry point at the current PC.
	// Operand: literal index of the function name (string)
	OpFn

	// OpBlockStart opens a function body.
	// Operands: none
	OpBlockStart

	// OpBlockEnd closes a function body. Returns to the caller, or halts
	// when the call stack is empty.
	// Operands: none
	OpBlockEnd

	// OpCall invokes a script function or a native function by name.
	// Operand: literal index of the callee name (string)
	// Argc: number of OpLiteral instructions that follow
	OpCall

	// OpLiteral supplies one argument to the preceding OpCall.
	// Operand: literal index of the argument value
	OpLiteral
)

var cmdNames = [...]string{
	OpEnd:        "End",
	OpFn:         "Fn",
	OpBlockStart: "BlockStart",
	OpBlockEnd:   "BlockEnd",
	OpCall:       "Call",
	OpLiteral:    "Literal",
}

// String returns the mnemonic of the command.
func (c Cmd) String() string {
	if int(c) < len(cmdNames) {
		return cmdNames[c]
	}
	return fmt.Sprintf("Cmd(%d)", uint8(c))
}

// Valid reports whether c is a known command.
func (c Cmd) Valid() bool {
	return int(c) < len(cmdNames)
}

// OpCode represents a single fixed-size instruction for the VM.
// Operand is a literal pool index for OpFn, OpCall and OpLiteral and is
// unused otherwise. Argc is only meaningful for OpCall.
type OpCode struct {
	Cmd     Cmd
	Operand int
	Argc    int
}

// End returns the program terminator.
func End() OpCode { return OpCode{Cmd: OpEnd} }

// Fn returns a function entry marker for the named literal.
func Fn(nameIndex int) OpCode { return OpCode{Cmd: OpFn, Operand: nameIndex} }

// BlockStart returns a block opener.
func BlockStart() OpCode { return OpCode{Cmd: OpBlockStart} }

// BlockEnd returns a block closer.
func BlockEnd() OpCode { return OpCode{Cmd: OpBlockEnd} }

// Call returns a call instruction taking argc trailing literals.
func Call(nameIndex, argc int) OpCode {
	return OpCode{Cmd: OpCall, Operand: nameIndex, Argc: argc}
}

// Lit returns an argument instruction for the given literal.
func Lit(valueIndex int) OpCode { return OpCode{Cmd: OpLiteral, Operand: valueIndex} }

// HasOperand reports whether the instruction references the literal pool.
func (op OpCode) HasOperand() bool {
	switch op.Cmd {
	case OpFn, OpCall, OpLiteral:
		return true
	default:
		return false
	}
}

// String formats the instruction for disassembly listings.
func (op OpCode) String() string {
	switch op.Cmd {
	case OpCall:
		return fmt.Sprintf("%s #%d argc=%d", op.Cmd, op.Operand, op.Argc)
	case OpFn, OpLiteral:
		return fmt.Sprintf("%s #%d", op.Cmd, op.Operand)
	default:
		return op.Cmd.String()
	}
}
