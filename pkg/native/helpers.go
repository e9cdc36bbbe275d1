package native

import (
	"github.com/zurustar/autoscript/pkg/opcode"
)

// Func adapts a pair of closures to Function. A nil bind accepts any
// arguments; a nil advance completes immediately.
type Func[C any] struct {
	BindFunc    func(ctx C, args []opcode.Literal) bool
	AdvanceFunc func(ctx C) bool
}

// Bind implements Function.
func (f *Func[C]) Bind(ctx C, args []opcode.Literal) bool {
	if f.BindFunc == nil {
		return true
	}
	return f.BindFunc(ctx, args)
}

// Advance implements Function.
func (f *Func[C]) Advance(ctx C) bool {
	if f.AdvanceFunc == nil {
		return true
	}
	return f.AdvanceFunc(ctx)
}

// Instant returns a factory for a call that checks its argument kinds at
// bind time and runs effect once, completing on the first advance.
func Instant[C any](effect func(ctx C, args []opcode.Literal), kinds ...opcode.LiteralKind) Factory[C] {
	return func() Function[C] {
		var bound []opcode.Literal
		return &Func[C]{
			BindFunc: func(_ C, args []opcode.Literal) bool {
				if !ExpectArgs(args, kinds...) {
					return false
				}
				bound = args
				return true
			},
			AdvanceFunc: func(ctx C) bool {
				if effect != nil {
					effect(ctx, bound)
				}
				return true
			},
		}
	}
}

// ExpectArgs reports whether args has exactly the given kinds, in order.
func ExpectArgs(args []opcode.Literal, kinds ...opcode.LiteralKind) bool {
	if len(args) != len(kinds) {
		return false
	}
	for i, k := range kinds {
		if args[i].Kind != k {
			return false
		}
	}
	return true
}

// StringArg returns args[i] as a string.
func StringArg(args []opcode.Literal, i int) (string, bool) {
	if i < 0 || i >= len(args) {
		return "", false
	}
	return args[i].AsString()
}

// IntArg returns args[i] as an int64.
func IntArg(args []opcode.Literal, i int) (int64, bool) {
	if i < 0 || i >= len(args) {
		return 0, false
	}
	return args[i].AsInt64()
}
