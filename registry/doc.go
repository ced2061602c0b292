// Package registry is the process-wide inventory of concurrency resources
// used by generated modules: named threads, mutexes, counting semaphores and
// periodic timers, each addressed by a small integer handle.
//
// # Quick Start
//
//	symbols := symbol.NewTable()
//	symbols.Register("worker", worker)
//
//	reg := registry.New(registry.DefaultConfig(), registry.WithSymbols(symbols))
//	defer reg.Close()
//
//	sem := reg.CreateSemaphore("ready")
//	reg.CreateTimer("tick", 0.1, sem)
//	t := reg.CreateThread("worker", sem, false)
//	code := reg.Join(t)
//
// # Handles
//
// Each resource kind has its own fixed table; a handle is the slot index in
// that table, valid from 0 to capacity-1. Thread handles and mutex handles
// never collide in meaning even when numerically equal.
//
// # Failure Model
//
// Running out of slots, using a handle whose slot is not busy, misusing a
// primitive and naming an unknown entry point are all fatal: the registry
// writes one diagnostic line and the process exits with status 1. The only
// soft failure is the false returned by a non-blocking Lock or Wait.
//
// # Thread Identity
//
// A thread is a goroutine. Self finds the caller by goroutine id, so any
// goroutine that called RegisterCurrent, or was started by CreateThread,
// can discover its handle without it being passed around. Threads started by
// CreateThread are also locked to their own OS thread for their lifetime.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Allocation and release of slots
// are serialized by one lock shared by all four tables; primitive operations
// (Lock, Unlock, Post, Wait) never take it.
package registry
