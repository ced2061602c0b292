package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates which subsystem detected the error
type Phase string

const (
	PhaseThread    Phase = "thread"    // thread lifecycle
	PhaseMutex     Phase = "mutex"     // mutex operations
	PhaseSemaphore Phase = "semaphore" // semaphore operations
	PhaseTimer     Phase = "timer"     // periodic timers
	PhaseResolve   Phase = "resolve"   // symbol resolution
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseWasm      Phase = "wasm"      // webassembly symbol source
	PhaseWeb       Phase = "web"       // http façade
)

// Kind categorizes the error
type Kind string

const (
	KindResourceExhausted Kind = "resource_exhausted"
	KindInvalidHandle     Kind = "invalid_handle"
	KindPrimitiveFailure  Kind = "primitive_failure"
	KindSymbolNotFound    Kind = "symbol_not_found"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindInvalidInput      Kind = "invalid_input"
	KindDuplicate         Kind = "duplicate"
	KindLoad              Kind = "load"
)

// NoHandle marks an Error that is not tied to a slot.
const NoHandle = -1

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
	Handle int32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handle >= 0 {
		b.WriteString(" #")
		b.WriteString(strconv.Itoa(int(e.Handle)))
	}
	if e.Name != "" {
		b.WriteString(" <")
		b.WriteString(e.Name)
		b.WriteByte('>')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Handle: NoHandle,
		},
	}
}

// Handle sets the slot handle
func (b *Builder) Handle(h int32) *Builder {
	b.err.Handle = h
	return b
}

// Name sets the resource or symbol name
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Exhausted reports a full slot table. The detail names the capacity so
// operators know what to resize.
func Exhausted(phase Phase, table string, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindResourceExhausted,
		Handle: NoHandle,
		Detail: fmt.Sprintf("too many %s, increase %s (currently %d)", table, table, capacity),
	}
}

// InvalidHandle reports an operation on a slot that is not busy
func InvalidHandle(phase Phase, h int32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Handle: h,
		Detail: fmt.Sprintf("%s %d not allocated", phase, h),
	}
}

// PrimitiveFailure reports a failed operation on the underlying primitive
func PrimitiveFailure(phase Phase, h int32, name, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPrimitiveFailure,
		Handle: h,
		Name:   name,
		Detail: detail,
		Cause:  cause,
	}
}

// SymbolNotFound reports a name with no registered entry point
func SymbolNotFound(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindSymbolNotFound,
		Handle: NoHandle,
		Name:   name,
		Detail: fmt.Sprintf("entry point named [%s] not found", name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Handle: NoHandle,
		Detail: detail,
	}
}

// Load creates a loading error for configuration or modules
func Load(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLoad,
		Handle: NoHandle,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Handle: NoHandle,
		Detail: detail,
		Cause:  cause,
	}
}
