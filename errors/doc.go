// Package errors provides structured error types for the thread library.
//
// Errors are categorized by Phase (which resource kind or subsystem detected
// the error) and Kind (error category). An Error may carry the handle and
// name of the slot involved and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMutex, errors.KindInvalidHandle).
//		Handle(3).
//		Detail("mutex %d not allocated", 3).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Exhausted(errors.PhaseThread, "threads", 8)
//	err := errors.InvalidHandle(errors.PhaseSemaphore, 5)
//
// Inside the registry every one of these is fatal; they are values so that
// the fatal path can report them uniformly and tests can match on them.
// All errors implement the standard error interface and support errors.Is/As.
package errors
