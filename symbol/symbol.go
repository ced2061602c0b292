package symbol

import (
	"context"
	"sort"
	"sync"

	"github.com/wippyai/stl/errors"
)

// ExitCode is the value an entry point returns to whoever joins its thread.
type ExitCode int32

// Func is an entry point taking only the thread argument.
type Func func(ctx context.Context, arg any) ExitCode

// SharedFunc is an entry point that also receives the shared context block.
type SharedFunc func(ctx context.Context, shared any, arg any) ExitCode

// EntryPoint is a resolved callable. Exactly one of its variants is set.
type EntryPoint struct {
	fn     Func
	shared SharedFunc
	name   string
}

// Name returns the name the entry point was registered under.
func (e EntryPoint) Name() string {
	return e.name
}

// WantsShared reports whether the entry point takes the shared context block.
func (e EntryPoint) WantsShared() bool {
	return e.shared != nil
}

// Valid reports whether e holds a function.
func (e EntryPoint) Valid() bool {
	return e.fn != nil || e.shared != nil
}

// Call invokes the entry point. shared is ignored for plain Funcs.
func (e EntryPoint) Call(ctx context.Context, shared, arg any) ExitCode {
	if e.shared != nil {
		return e.shared(ctx, shared, arg)
	}
	return e.fn(ctx, arg)
}

// Table is a name to entry point registry. Safe for concurrent use.
type Table struct {
	entries map[string]EntryPoint
	mu      sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]EntryPoint)}
}

// Register adds a plain entry point.
func (t *Table) Register(name string, fn Func) error {
	if fn == nil {
		return errors.InvalidInput(errors.PhaseResolve, "nil entry point for "+name)
	}
	return t.add(EntryPoint{name: name, fn: fn})
}

// RegisterShared adds an entry point that takes the shared context block.
func (t *Table) RegisterShared(name string, fn SharedFunc) error {
	if fn == nil {
		return errors.InvalidInput(errors.PhaseResolve, "nil entry point for "+name)
	}
	return t.add(EntryPoint{name: name, shared: fn})
}

func (t *Table) add(ep EntryPoint) error {
	if ep.name == "" {
		return errors.InvalidInput(errors.PhaseResolve, "empty entry point name")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[ep.name]; exists {
		return errors.New(errors.PhaseResolve, errors.KindDuplicate).
			Name(ep.name).
			Detail("entry point already registered").
			Build()
	}
	t.entries[ep.name] = ep
	return nil
}

// Resolve looks up name. The error is a SymbolNotFound *errors.Error.
func (t *Table) Resolve(name string) (EntryPoint, error) {
	t.mu.RLock()
	ep, ok := t.entries[name]
	t.mu.RUnlock()

	if !ok {
		return EntryPoint{}, errors.SymbolNotFound(name)
	}
	return ep, nil
}

// Names returns the registered names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entry points.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Default is the process-wide table populated by generated code.
var Default = NewTable()

// Register adds fn to Default. It panics on a duplicate or empty name since
// it is meant to be called from init.
func Register(name string, fn Func) {
	if err := Default.Register(name, fn); err != nil {
		panic(err)
	}
}

// RegisterShared adds fn to Default. It panics on a duplicate or empty name.
func RegisterShared(name string, fn SharedFunc) {
	if err := Default.RegisterShared(name, fn); err != nil {
		panic(err)
	}
}
