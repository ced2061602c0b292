package resource

import (
	"sync/atomic"
)

// Arena is a fixed array of slots. See the package doc for locking rules.
type Arena[T any] struct {
	kind  string
	slots []atomic.Pointer[Entry[T]]
}

// NewArena creates an arena with capacity slots. kind names the resource
// family in diagnostics ("threads", "mutexes", ...).
func NewArena[T any](kind string, capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[T]{
		kind:  kind,
		slots: make([]atomic.Pointer[Entry[T]], capacity),
	}
}

// Kind returns the resource family name.
func (a *Arena[T]) Kind() string {
	return a.kind
}

// Cap returns the number of slots.
func (a *Arena[T]) Cap() int {
	return len(a.slots)
}

// Allocate marks the first free slot busy, in ascending index order, and
// returns its handle. It returns false when every slot is busy.
func (a *Arena[T]) Allocate(name string, value T) (Handle, bool) {
	e := &Entry[T]{Name: name, Value: value}
	for i := range a.slots {
		if a.slots[i].CompareAndSwap(nil, e) {
			return Handle(i), true
		}
	}
	return 0, false
}

// Release frees h if it still holds e. A stale release after the slot has
// been reused is a no-op, as is releasing a Free slot.
func (a *Arena[T]) Release(h Handle, e *Entry[T]) bool {
	if e == nil || !a.valid(h) {
		return false
	}
	return a.slots[h].CompareAndSwap(e, nil)
}

// Get returns the entry of a busy slot, or nil when h is out of range or Free.
func (a *Arena[T]) Get(h Handle) *Entry[T] {
	if !a.valid(h) {
		return nil
	}
	return a.slots[h].Load()
}

// Busy reports whether h refers to a busy slot.
func (a *Arena[T]) Busy(h Handle) bool {
	return a.Get(h) != nil
}

// Len returns the number of busy slots.
func (a *Arena[T]) Len() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// Each calls fn for every busy slot in index order until fn returns false.
func (a *Arena[T]) Each(fn func(Slot[T]) bool) {
	for i := range a.slots {
		e := a.slots[i].Load()
		if e == nil {
			continue
		}
		if !fn(Slot[T]{Handle: Handle(i), Name: e.Name, Value: e.Value}) {
			return
		}
	}
}

func (a *Arena[T]) valid(h Handle) bool {
	return h >= 0 && int(h) < len(a.slots)
}
