package native

import (
	"log/slog"

	"github.com/zurustar/autoscript/pkg/opcode"
)

// Names of the builtins every registry may carry.
const (
	NameNoop       = "noop"
	NameDebug      = "debug"
	NameWaitFrames = "wait_frames"
)

// RegisterBuiltins adds noop, debug and wait_frames to r. debug writes to
// logger, or to slog.Default() when logger is nil.
func RegisterBuiltins[C any](r *Registry[C], logger *slog.Logger) {
	r.MustRegister(NameNoop, Noop[C]())
	r.MustRegister(NameDebug, Debug[C](logger))
	r.MustRegister(NameWaitFrames, WaitFrames[C]())
}

// Noop returns a factory for a call that takes no arguments and completes
// on its first advance.
func Noop[C any]() Factory[C] {
	return Instant[C](nil)
}

// Debug returns a factory for debug(message), which logs the message.
func Debug[C any](logger *slog.Logger) Factory[C] {
	return Instant(func(_ C, args []opcode.Literal) {
		l := logger
		if l == nil {
			l = slog.Default()
		}
		msg, _ := StringArg(args, 0)
		l.Info("script debug", "message", msg)
	}, opcode.LiteralString)
}

// WaitFrames returns a factory for wait_frames(count). The call occupies
// count ticks including the tick it starts on; count 0 behaves like 1.
// Negative or non-integer counts fail to bind.
func WaitFrames[C any]() Factory[C] {
	return func() Function[C] {
		return &waitFrames[C]{}
	}
}

type waitFrames[C any] struct {
	remaining int64
}

func (w *waitFrames[C]) Bind(_ C, args []opcode.Literal) bool {
	if !ExpectArgs(args, opcode.LiteralInt) {
		return false
	}
	n, ok := IntArg(args, 0)
	if !ok || n < 0 {
		return false
	}
	w.remaining = n
	return true
}

func (w *waitFrames[C]) Advance(C) bool {
	w.remaining--
	return w.remaining <= 0
}
