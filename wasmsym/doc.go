// Package wasmsym exposes the exports of a WebAssembly core module as entry
// points for managed threads.
//
// Load compiles the module with wazero and registers every export whose
// signature fits a thread entry point: parameters () or (i32), results ()
// or (i32). The i32 parameter receives the thread argument and the i32
// result becomes the exit code. When WIT text is supplied only the
// functions it declares are registered, and their declared types must be
// 32-bit integers.
//
// Every call gets a fresh anonymous instance of the module, so threads
// never share linear memory. Guests reach the thread library through host
// functions imported from the "stl" module:
//
//	log(ptr, len)
//	thread_create(ptr, len, arg) -> handle
//	thread_join(handle) -> exit code
//	thread_self() -> handle
//	thread_cancel(handle)
//	thread_name(handle, ptr, cap) -> bytes written
//	mutex_create(ptr, len) -> handle
//	mutex_lock(handle, nowait) -> 0|1
//	mutex_unlock(handle)
//	sem_create(ptr, len) -> handle
//	sem_post(handle)
//	sem_wait(handle, nowait) -> 0|1
//	timer_create(ptr, len, interval f64, sem) -> handle
//	sleep(seconds f64)
//	debug(on)
//
// Names are passed as (ptr, len) pairs into the caller's memory. thread_name
// with a negative handle names the calling thread. Host
// functions run on the goroutine of the calling thread, so Self and mutex
// ownership behave as for Go entry points.
//
// Cancelling a thread closes its instance: a guest stuck in a loop is
// interrupted and the entry point returns ExitTrap.
package wasmsym
