// Package resource provides fixed-capacity slot arenas addressed by index.
//
// An Arena holds a fixed number of slots. Each slot is Free or Busy; a busy
// slot holds an Entry with the resource's name and value. The slot index is
// the resource's handle for its whole lifetime:
//
//	arena := resource.NewArena[*sem]("semaphores", 8)
//
//	// Allocate under the caller's allocation lock
//	h, ok := arena.Allocate("tick", s)
//
//	// Lock-free lookup; nil means the slot is Free
//	e := arena.Get(h)
//
// # Locking
//
// Allocate and Release do not lock. Callers that share one allocation lock
// across several arenas hold it around those calls. Reads (Get, Each, Len)
// are lock-free: a slot is published with an atomic pointer store, and an
// Entry is never mutated after it is published.
package resource
