// Package vm provides the tick-driven virtual machine for autoscript.
//
// The host calls Tick once per frame. A tick runs structural instructions
// (function entry, block brackets, script-to-script calls) for free and stops
// at the first native call: the call is bound and advanced once, and the tick
// ends. While a native call is in flight, each tick advances it exactly once.
// The VM never blocks and never spawns goroutines.
package vm

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/autoscript/pkg/native"
	"github.com/zurustar/autoscript/pkg/opcode"
	"github.com/zurustar/autoscript/pkg/script"
)

// State is the lifecycle state of a VM.
type State int

const (
	// StateIdle means no script is loaded.
	StateIdle State = iota
	// StateReady means a script is loaded and no tick has run since.
	StateReady
	// StateRunning means the VM is between instructions.
	StateRunning
	// StateAwaitingCall means a native call is in flight.
	StateAwaitingCall
	// StateHalted means the program finished.
	StateHalted
	// StateFailed means a runtime error stopped the program.
	StateFailed
)

var stateNames = [...]string{
	StateIdle:         "Idle",
	StateReady:        "Ready",
	StateRunning:      "Running",
	StateAwaitingCall: "AwaitingCall",
	StateHalted:       "Halted",
	StateFailed:       "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// StatusKind is the outcome of a tick.
type StatusKind int

const (
	// Running means the program has more work.
	Running StatusKind = iota
	// Halted means the program finished normally.
	Halted
	// Failed means the program stopped with an error; see Status.Err.
	Failed
	// Idle means no script is loaded.
	Idle
)

func (k StatusKind) String() string {
	switch k {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Failed:
		return "Failed"
	case Idle:
		return "Idle"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is returned by Tick.
type Status struct {
	Kind StatusKind
	Err  error // non-nil only when Kind is Failed
}

// Done reports whether the program will make no further progress.
func (s Status) Done() bool {
	return s.Kind == Halted || s.Kind == Failed
}

// StackFrame represents a script-to-script call.
type StackFrame struct {
	FunctionName string
	ReturnPC     int
}

// nativeCall is the native call awaiting completion.
type nativeCall[C any] struct {
	fn       native.Function[C]
	name     string
	callPC   int
	resumePC int
	started  int // tick the call was bound on
}

// VM executes a Script against a native registry. C is the execution
// context the host passes to Tick; the VM hands it to natives and keeps no
// reference to it between ticks.
type VM[C any] struct {
	registry *native.Registry[C]
	cfg      config
	log      *slog.Logger

	script   *script.Script
	entry    string
	entryPC  int
	state    State
	pc       int
	stack    []StackFrame
	inFlight *nativeCall[C]
	ticks    int
	err      *RuntimeError
}

// New creates a VM in the Idle state.
func New[C any](registry *native.Registry[C], opts ...Option) *VM[C] {
	cfg := config{
		entry:         DefaultEntryLabel,
		maxStackDepth: MaxStackDepth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if registry == nil {
		registry = native.NewRegistry[C]()
	}
	log := cfg.log
	if log == nil {
		log = slog.Default()
	}
	return &VM[C]{
		registry: registry,
		cfg:      cfg,
		log:      log,
		state:    StateIdle,
	}
}

// Load loads s and positions the VM at the configured entry label.
func (vm *VM[C]) Load(s *script.Script) error {
	return vm.LoadAt(s, vm.cfg.entry)
}

// LoadAt loads s and positions the VM at label. On error the previous
// program, if any, stays loaded.
func (vm *VM[C]) LoadAt(s *script.Script, label string) error {
	if s == nil {
		return NewRuntimeError(ErrorNotLoaded, "script is nil")
	}
	pc, ok := s.LabelPC(label)
	if !ok {
		err := NewRuntimeError(ErrorNoEntryLabel, fmt.Sprintf("entry function %q is not defined", label))
		err.Function = label
		return err
	}

	vm.script = s
	vm.entry = label
	vm.entryPC = pc
	vm.restart()

	vm.log.Debug("script loaded", "entry", label, "pc", pc, "instructions", s.Len())
	return nil
}

// Reset rewinds the loaded program to its entry label. An in-flight native
// call is abandoned without notice.
func (vm *VM[C]) Reset() {
	if vm.script == nil {
		return
	}
	if vm.inFlight != nil {
		vm.log.Debug("abandoning native call", "fn", vm.inFlight.name)
	}
	vm.restart()
}

// Unload drops the program and returns to Idle.
func (vm *VM[C]) Unload() {
	vm.script = nil
	vm.entry = ""
	vm.restart()
	vm.state = StateIdle
}

func (vm *VM[C]) restart() {
	vm.state = StateReady
	vm.pc = vm.entryPC
	vm.stack = vm.stack[:0]
	vm.inFlight = nil
	vm.ticks = 0
	vm.err = nil
}

// Tick runs one frame's worth of the program.
func (vm *VM[C]) Tick(ctx C) Status {
	switch vm.state {
	case StateIdle:
		return Status{Kind: Idle}
	case StateHalted:
		return Status{Kind: Halted}
	case StateFailed:
		return Status{Kind: Failed, Err: vm.err}
	}

	vm.ticks++

	if call := vm.inFlight; call != nil {
		if call.fn.Advance(ctx) {
			vm.complete(call)
		}
		return Status{Kind: Running}
	}

	vm.state = StateRunning
	for {
		op, ok := vm.script.OpcodeAt(vm.pc)
		if !ok {
			return vm.halt()
		}

		switch op.Cmd {
		case opcode.OpFn, opcode.OpBlockStart:
			vm.pc++

		case opcode.OpBlockEnd:
			if len(vm.stack) == 0 {
				return vm.halt()
			}
			frame := vm.stack[len(vm.stack)-1]
			vm.stack = vm.stack[:len(vm.stack)-1]
			vm.pc = frame.ReturnPC

		case opcode.OpEnd:
			return vm.halt()

		case opcode.OpCall:
			if st, done := vm.call(ctx, op); done {
				return st
			}

		case opcode.OpLiteral:
			return vm.fail(newInternalError(vm.pc, "Literal instruction executed outside of a call"))

		default:
			return vm.fail(newInternalError(vm.pc, "unknown command %s", op.Cmd))
		}
	}
}

// call executes a Call instruction. It reports done when the tick must end.
func (vm *VM[C]) call(ctx C, op opcode.OpCode) (Status, bool) {
	name, ok := vm.script.LiteralString(op.Operand)
	if !ok {
		return vm.fail(newInternalError(vm.pc, "call name #%d is not a string literal", op.Operand)), true
	}
	resumePC := vm.pc + 1 + op.Argc

	if target, ok := vm.script.LabelPC(name); ok {
		if len(vm.stack) >= vm.cfg.maxStackDepth {
			return vm.fail(newStackOverflowError(name, vm.pc, vm.cfg.maxStackDepth)), true
		}
		vm.traceCall(name, nil, false)
		vm.stack = append(vm.stack, StackFrame{FunctionName: name, ReturnPC: resumePC})
		vm.pc = target
		return Status{}, false
	}

	fn, ok := vm.registry.Lookup(name)
	if !ok {
		return vm.fail(newUnknownFunctionError(name, vm.pc)), true
	}

	args := make([]opcode.Literal, op.Argc)
	for i := range args {
		argOp, ok := vm.script.OpcodeAt(vm.pc + 1 + i)
		if !ok || argOp.Cmd != opcode.OpLiteral {
			return vm.fail(newInternalError(vm.pc+1+i, "call to %s expects %d Literal operands", name, op.Argc)), true
		}
		lit, ok := vm.script.LiteralAt(argOp.Operand)
		if !ok {
			return vm.fail(newInternalError(vm.pc+1+i, "literal index %d out of range", argOp.Operand)), true
		}
		args[i] = lit
	}

	vm.traceCall(name, args, true)
	if !fn.Bind(ctx, args) {
		return vm.fail(newBindError(name, vm.pc, op.Argc)), true
	}

	call := &nativeCall[C]{fn: fn, name: name, callPC: vm.pc, resumePC: resumePC, started: vm.ticks}
	if fn.Advance(ctx) {
		vm.complete(call)
	} else {
		vm.inFlight = call
		vm.state = StateAwaitingCall
		vm.log.Debug("native call in flight", "fn", name, "pc", vm.pc, "tick", vm.ticks)
	}
	return Status{Kind: Running}, true
}

func (vm *VM[C]) complete(call *nativeCall[C]) {
	vm.inFlight = nil
	vm.pc = call.resumePC
	vm.state = StateRunning
	if ticks := vm.ticks - call.started + 1; ticks > 1 {
		vm.log.Debug("native call completed", "fn", call.name, "pc", call.callPC, "ticks", ticks)
	}
}

func (vm *VM[C]) traceCall(name string, args []opcode.Literal, isNative bool) {
	if vm.cfg.trace == nil {
		return
	}
	vm.cfg.trace(TraceEvent{
		Tick:   vm.ticks,
		PC:     vm.pc,
		Name:   name,
		Args:   args,
		Native: isNative,
		Depth:  len(vm.stack),
	})
}

func (vm *VM[C]) halt() Status {
	vm.state = StateHalted
	vm.log.Info("script halted", "entry", vm.entry, "ticks", vm.ticks)
	return Status{Kind: Halted}
}

func (vm *VM[C]) fail(err *RuntimeError) Status {
	vm.state = StateFailed
	vm.err = err
	vm.inFlight = nil
	vm.log.Error("script failed", "error", err, "type", string(err.Type), "pc", err.PC, "fn", err.Function)
	return Status{Kind: Failed, Err: err}
}

// State returns the lifecycle state.
func (vm *VM[C]) State() State {
	return vm.state
}

// PC returns the program counter.
func (vm *VM[C]) PC() int {
	return vm.pc
}

// Depth returns the number of script call frames.
func (vm *VM[C]) Depth() int {
	return len(vm.stack)
}

// Stack returns a copy of the call frames, innermost last.
func (vm *VM[C]) Stack() []StackFrame {
	return append([]StackFrame(nil), vm.stack...)
}

// Ticks returns the number of ticks consumed since the program was loaded
// or reset. Ticks on a halted or failed VM are not counted.
func (vm *VM[C]) Ticks() int {
	return vm.ticks
}

// Err returns the error that failed the program, or nil.
func (vm *VM[C]) Err() error {
	if vm.err == nil {
		return nil
	}
	return vm.err
}

// Script returns the loaded program, or nil.
func (vm *VM[C]) Script() *script.Script {
	return vm.script
}

// PendingCall returns the name of the native call in flight.
func (vm *VM[C]) PendingCall() (string, bool) {
	if vm.inFlight == nil {
		return "", false
	}
	return vm.inFlight.name, true
}

// Registry returns the native registry.
func (vm *VM[C]) Registry() *native.Registry[C] {
	return vm.registry
}
