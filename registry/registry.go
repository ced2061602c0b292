package registry

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/stl/diag"
	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/resource"
	"github.com/wippyai/stl/symbol"
)

// Handle identifies a slot within one resource table.
type Handle = resource.Handle

// ExitCode is the value a thread's entry point returns.
type ExitCode = symbol.ExitCode

// Config holds per-kind capacities and startup behaviour.
type Config struct {
	// MainThread, when set, registers the goroutine calling New under this
	// name. It normally takes thread handle 0 and is the name Self falls
	// back to.
	MainThread string

	Threads    int
	Mutexes    int
	Semaphores int
	Timers     int

	Debug bool
}

// DefaultCapacity is the number of slots per resource kind.
const DefaultCapacity = 8

// DefaultConfig returns eight slots per kind and a main thread named "user".
func DefaultConfig() Config {
	return Config{
		MainThread: "user",
		Threads:    DefaultCapacity,
		Mutexes:    DefaultCapacity,
		Semaphores: DefaultCapacity,
		Timers:     DefaultCapacity,
		Debug:      true,
	}
}

// Registry owns the four resource tables.
type Registry struct {
	ctx     context.Context
	shared  any
	out     io.Writer
	exit    func(int)
	log     *diag.Logger
	symbols *symbol.Table
	cancel  context.CancelFunc

	threads *resource.Arena[*thread]
	mutexes *resource.Arena[*mutex]
	sems    *resource.Arena[*semaphore]
	timers  *resource.Arena[*timer]

	// exited holds, per thread slot, the last thread that finished there
	// and has not been joined. Guarded by listMu for writes.
	exited []atomic.Pointer[thread]

	listMu    sync.Mutex
	closeOnce sync.Once
}

// Option configures a Registry.
type Option func(*Registry)

// WithSymbols sets the entry point table. Defaults to symbol.Default.
func WithSymbols(t *symbol.Table) Option {
	return func(r *Registry) {
		r.symbols = t
	}
}

// WithShared sets the context block passed to entry points created with
// hasShared.
func WithShared(block any) Option {
	return func(r *Registry) {
		r.shared = block
	}
}

// WithOutput sets the diagnostic stream. Defaults to os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(r *Registry) {
		r.out = w
	}
}

// WithExit replaces os.Exit on the fatal path. The function must not return.
func WithExit(fn func(code int)) Option {
	return func(r *Registry) {
		r.exit = fn
	}
}

// New creates a registry. Capacities below one fall back to DefaultCapacity.
func New(cfg Config, opts ...Option) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		ctx:     ctx,
		cancel:  cancel,
		symbols: symbol.Default,
		threads: resource.NewArena[*thread]("threads", capacity(cfg.Threads)),
		mutexes: resource.NewArena[*mutex]("mutexes", capacity(cfg.Mutexes)),
		sems:    resource.NewArena[*semaphore]("semaphores", capacity(cfg.Semaphores)),
		timers:  resource.NewArena[*timer]("timers", capacity(cfg.Timers)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.exited = make([]atomic.Pointer[thread], r.threads.Cap())

	logOpts := []diag.Option{
		diag.WithThreadName(r.selfName),
		diag.WithDebug(cfg.Debug),
	}
	if r.exit != nil {
		logOpts = append(logOpts, diag.WithExit(r.exit))
	}
	r.log = diag.New(r.out, logOpts...)

	if cfg.MainThread != "" {
		r.RegisterCurrent(cfg.MainThread)
	}
	return r
}

func capacity(n int) int {
	if n < 1 {
		return DefaultCapacity
	}
	return n
}

// Log returns the diagnostic logger.
func (r *Registry) Log() *diag.Logger {
	return r.log
}

// SetDebug toggles debug diagnostics.
func (r *Registry) SetDebug(on bool) {
	r.log.SetDebug(on)
}

// Symbols returns the entry point table.
func (r *Registry) Symbols() *symbol.Table {
	return r.symbols
}

// Resolve returns the entry point registered under name. An unknown name is
// fatal.
func (r *Registry) Resolve(name string) symbol.EntryPoint {
	ep, err := r.symbols.Resolve(name)
	if err != nil {
		r.fail(err)
	}
	return ep
}

// Sleep blocks the caller for the given number of seconds.
func (r *Registry) Sleep(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		r.fail(errors.PrimitiveFailure(errors.PhaseThread, errors.NoHandle, "",
			"sleep: invalid duration", nil))
	}
	time.Sleep(seconds2duration(seconds))
}

// Close cancels every running thread's context and stops every timer.
// Slots are not freed.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.cancel()
		r.timers.Each(func(s resource.Slot[*timer]) bool {
			s.Value.halt()
			return true
		})
	})
}

// fail reports err and terminates. It only returns if the exit hook does,
// which is a programming error.
func (r *Registry) fail(err error) {
	r.log.Fatal(err)
	panic(err)
}

// allocate takes a slot from a under the shared allocation lock. onAlloc
// runs under the lock with the new handle.
func allocate[T any](r *Registry, a *resource.Arena[T], phase errors.Phase, name string, v T, onAlloc func(Handle)) (Handle, *resource.Entry[T]) {
	r.listMu.Lock()
	h, ok := a.Allocate(name, v)
	var e *resource.Entry[T]
	if ok {
		e = a.Get(h)
		if onAlloc != nil {
			onAlloc(h)
		}
	}
	r.listMu.Unlock()

	if !ok {
		r.fail(errors.Exhausted(phase, a.Kind(), a.Cap()))
	}
	return h, e
}

// lookup returns the busy entry at h or fails with InvalidHandle.
func lookup[T any](r *Registry, a *resource.Arena[T], phase errors.Phase, h Handle) *resource.Entry[T] {
	e := a.Get(h)
	if e == nil {
		r.fail(errors.InvalidHandle(phase, int32(h)))
	}
	return e
}

// seconds2duration splits fractional seconds into whole seconds and a
// nanosecond remainder. Values past the range of time.Duration, +Inf
// included, saturate at the longest duration.
func seconds2duration(seconds float64) time.Duration {
	if seconds*1e9 >= math.MaxInt64 {
		return math.MaxInt64
	}
	whole := math.Floor(seconds)
	nanos := (seconds - whole) * 1e9
	d := time.Duration(whole)*time.Second + time.Duration(nanos)
	if d < 0 && seconds > 0 {
		return math.MaxInt64
	}
	return d
}
