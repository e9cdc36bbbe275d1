// Package script holds compiled autoscript programs and loads script sources.
//
// A Script is built once by the compiler (or decoded from an image) and is
// never mutated afterwards, so one Script may be shared read-only by any
// number of VMs.
package script

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/zurustar/autoscript/pkg/opcode"
)

// Script is a compiled program: bytecode, a deduplicated literal pool, and
// a label table mapping function names to the PC of their Fn instruction.
type Script struct {
	code       []opcode.OpCode
	literals   []opcode.Literal
	labels     map[string]int
	sourceHash [sha256.Size]byte
}

// New builds a Script from its parts. The slices, map and integer
// literals are copied.
// New does not validate; callers decoding untrusted data use Validate.
func New(code []opcode.OpCode, literals []opcode.Literal, labels map[string]int) *Script {
	s := &Script{
		code:     append([]opcode.OpCode(nil), code...),
		literals: cloneLiterals(literals),
		labels:   make(map[string]int, len(labels)),
	}
	for k, v := range labels {
		s.labels[k] = v
	}
	return s
}

// HashSource returns the digest stored alongside a Script compiled from src.
func HashSource(src []byte) [sha256.Size]byte {
	return sha256.Sum256(src)
}

// WithSourceHash returns a copy of s carrying the digest of its source.
// The copy shares the immutable code and literal slices.
func (s *Script) WithSourceHash(h [sha256.Size]byte) *Script {
	c := *s
	c.sourceHash = h
	return &c
}

// SourceHash returns the digest of the source the Script was compiled from.
// It is zero when unknown.
func (s *Script) SourceHash() [sha256.Size]byte {
	return s.sourceHash
}

// Len returns the number of instructions.
func (s *Script) Len() int {
	return len(s.code)
}

// NumLiterals returns the size of the literal pool.
func (s *Script) NumLiterals() int {
	return len(s.literals)
}

// OpcodeAt returns the instruction at pc.
func (s *Script) OpcodeAt(pc int) (opcode.OpCode, bool) {
	if pc < 0 || pc >= len(s.code) {
		return opcode.OpCode{}, false
	}
	return s.code[pc], true
}

// LiteralAt returns a copy of the literal at index i.
func (s *Script) LiteralAt(i int) (opcode.Literal, bool) {
	if i < 0 || i >= len(s.literals) {
		return opcode.Literal{}, false
	}
	return s.literals[i].Clone(), true
}

// LiteralString returns the literal at index i when it is a string.
func (s *Script) LiteralString(i int) (string, bool) {
	lit, ok := s.LiteralAt(i)
	if !ok {
		return "", false
	}
	return lit.AsString()
}

// LabelPC returns the PC of the Fn instruction for the named function.
func (s *Script) LabelPC(name string) (int, bool) {
	pc, ok := s.labels[name]
	return pc, ok
}

// Labels returns the declared function names in sorted order.
func (s *Script) Labels() []string {
	names := make([]string, 0, len(s.labels))
	for name := range s.labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Code returns a copy of the instructions.
func (s *Script) Code() []opcode.OpCode {
	return append([]opcode.OpCode(nil), s.code...)
}

// Literals returns a copy of the literal pool.
func (s *Script) Literals() []opcode.Literal {
	return cloneLiterals(s.literals)
}

func cloneLiterals(lits []opcode.Literal) []opcode.Literal {
	out := make([]opcode.Literal, len(lits))
	for i, l := range lits {
		out[i] = l.Clone()
	}
	return out
}

// Disassemble renders the program as a listing, one instruction per line,
// with literal operands resolved.
//
//	0000  Fn "run"
//	0001  BlockStart
//	0002  Call "wait_frames" argc=1
//	0003  Literal 30
func (s *Script) Disassemble() string {
	var buf strings.Builder
	for pc, op := range s.code {
		fmt.Fprintf(&buf, "%04d  %s", pc, op.Cmd)
		if op.HasOperand() {
			if lit, ok := s.LiteralAt(op.Operand); ok {
				fmt.Fprintf(&buf, " %s", lit)
			} else {
				fmt.Fprintf(&buf, " #%d?", op.Operand)
			}
		}
		if op.Cmd == opcode.OpCall {
			fmt.Fprintf(&buf, " argc=%d", op.Argc)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ValidationError describes a structurally broken Script.
type ValidationError struct {
	PC      int
	Message string
}

func (e *ValidationError) Error() string {
	if e.PC < 0 {
		return "invalid script: " + e.Message
	}
	return fmt.Sprintf("invalid script at pc %d: %s", e.PC, e.Message)
}

// Validate checks the structural invariants the VM relies on: operands
// index the literal pool, names are strings, Literal instructions appear
// only as Call arguments, labels point at their Fn instruction, and the
// program ends with End.
func (s *Script) Validate() error {
	if len(s.code) == 0 || s.code[len(s.code)-1].Cmd != opcode.OpEnd {
		return &ValidationError{PC: -1, Message: "program must end with End"}
	}

	for pc := 0; pc < len(s.code); pc++ {
		op := s.code[pc]
		if !op.Cmd.Valid() {
			return &ValidationError{PC: pc, Message: fmt.Sprintf("unknown command %s", op.Cmd)}
		}
		if op.HasOperand() {
			if _, ok := s.LiteralAt(op.Operand); !ok {
				return &ValidationError{PC: pc, Message: fmt.Sprintf("literal index %d out of range", op.Operand)}
			}
		}

		switch op.Cmd {
		case opcode.OpFn, opcode.OpCall:
			if _, ok := s.LiteralString(op.Operand); !ok {
				return &ValidationError{PC: pc, Message: fmt.Sprintf("%s name is not a string", op.Cmd)}
			}
			if op.Cmd == opcode.OpFn {
				continue
			}
			if op.Argc < 0 || pc+op.Argc >= len(s.code) {
				return &ValidationError{PC: pc, Message: fmt.Sprintf("argc %d out of range", op.Argc)}
			}
			for i := 1; i <= op.Argc; i++ {
				arg := s.code[pc+i]
				if arg.Cmd != opcode.OpLiteral {
					return &ValidationError{PC: pc + i, Message: fmt.Sprintf("expected Literal argument, found %s", arg.Cmd)}
				}
				if _, ok := s.LiteralAt(arg.Operand); !ok {
					return &ValidationError{PC: pc + i, Message: fmt.Sprintf("literal index %d out of range", arg.Operand)}
				}
			}
			pc += op.Argc
		case opcode.OpLiteral:
			return &ValidationError{PC: pc, Message: "Literal outside of a call"}
		}
	}

	for name, pc := range s.labels {
		op, ok := s.OpcodeAt(pc)
		if !ok || op.Cmd != opcode.OpFn {
			return &ValidationError{PC: pc, Message: fmt.Sprintf("label %q does not point at Fn", name)}
		}
		if got, _ := s.LiteralString(op.Operand); got != name {
			return &ValidationError{PC: pc, Message: fmt.Sprintf("label %q points at Fn %q", name, got)}
		}
	}
	return nil
}
