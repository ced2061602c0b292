package resource

// Handle is the index of a slot in an arena.
// Valid handles are 0..capacity-1.
type Handle int32

// Entry is the content of a busy slot. Entries are immutable once published;
// mutable per-resource state lives behind Value.
type Entry[T any] struct {
	Value T
	Name  string
}

// Slot is a read-only view of a busy slot.
type Slot[T any] struct {
	Value  T
	Name   string
	Handle Handle
}
