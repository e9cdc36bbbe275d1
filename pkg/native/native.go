// Package native defines the protocol between the VM and host-provided
// operations, and a name-keyed registry of them.
//
// A native call has two phases. Bind receives the call-site arguments once;
// Advance is then called once per tick until it reports completion. Both
// receive the host's execution context C, which the VM passes through
// without inspecting.
package native

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zurustar/autoscript/pkg/opcode"
)

// Function is one in-flight native call.
type Function[C any] interface {
	// Bind validates and stores the arguments. Returning false fails the call.
	Bind(ctx C, args []opcode.Literal) bool
	// Advance performs one tick of work and reports whether the call is done.
	Advance(ctx C) bool
}

// Factory creates a fresh Function for each call.
type Factory[C any] func() Function[C]

// Errors returned by Register.
var (
	ErrEmptyName  = errors.New("native: empty function name")
	ErrNilFactory = errors.New("native: nil factory")
)

// Registry maps function names to factories. It is safe for concurrent use.
type Registry[C any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[C]
}

// NewRegistry creates an empty registry.
func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{factories: make(map[string]Factory[C])}
}

// Register adds or replaces the factory for name.
func (r *Registry[C]) Register(name string, factory Factory[C]) error {
	if name == "" {
		return ErrEmptyName
	}
	if factory == nil {
		return fmt.Errorf("%w for %q", ErrNilFactory, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry[C]) MustRegister(name string, factory Factory[C]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Lookup returns a fresh instance for name.
func (r *Registry[C]) Lookup(name string) (Function[C], bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Has reports whether name is registered.
func (r *Registry[C]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry[C]) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
