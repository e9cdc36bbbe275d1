package vm

import (
	"log/slog"

	"github.com/zurustar/autoscript/pkg/opcode"
)

// DefaultEntryLabel is the function a loaded script starts at.
const DefaultEntryLabel = "run"

// MaxStackDepth is the default maximum call stack depth.
const MaxStackDepth = 1000

// TraceEvent describes one executed call.
type TraceEvent struct {
	Tick   int
	PC     int
	Name   string
	Args   []opcode.Literal
	Native bool // false for script-to-script calls
	Depth  int  // call stack depth before the call
}

// TraceFunc receives a TraceEvent for every call the VM executes.
type TraceFunc func(TraceEvent)

type config struct {
	log           *slog.Logger
	trace         TraceFunc
	entry         string
	maxStackDepth int
}

// Option configures a VM.
type Option func(*config)

// WithLogger sets the logger for the VM.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithTrace installs a callback invoked for every call.
func WithTrace(fn TraceFunc) Option {
	return func(c *config) {
		c.trace = fn
	}
}

// WithEntryLabel sets the function Load starts at.
func WithEntryLabel(label string) Option {
	return func(c *config) {
		c.entry = label
	}
}

// WithMaxStackDepth sets the maximum script call depth. Values below 1 are ignored.
func WithMaxStackDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxStackDepth = depth
		}
	}
}
