package registry

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/resource"
	"github.com/wippyai/stl/symbol"
)

type thread struct {
	entry  symbol.EntryPoint
	arg    any
	cancel context.CancelFunc
	done   chan struct{} // nil for threads bound by RegisterCurrent
	name   string
	gid    atomic.Int64
	joined atomic.Bool
	shared bool
	code   ExitCode // written before done is closed
}

// CreateThread resolves name to an entry point and runs it on a new thread
// with arg. hasShared must match the entry point's kind: shared entry points
// receive the registry's shared context block as an extra first argument.
// The slot is freed when the entry point returns.
func (r *Registry) CreateThread(name string, arg any, hasShared bool) Handle {
	ep, err := r.symbols.Resolve(name)
	if err != nil {
		r.fail(err)
	}
	if ep.WantsShared() != hasShared {
		r.fail(errors.New(errors.PhaseThread, errors.KindSignatureMismatch).
			Name(name).
			Detail("entry point shared context = %v, requested %v", ep.WantsShared(), hasShared).
			Build())
	}

	ctx, cancel := context.WithCancel(r.ctx)
	t := &thread{
		entry:  ep,
		arg:    arg,
		cancel: cancel,
		done:   make(chan struct{}),
		name:   name,
		shared: hasShared,
	}

	h, e := allocate(r, r.threads, errors.PhaseThread, name, t, func(h Handle) {
		r.exited[h].Store(nil)
	})

	go r.run(ctx, h, e)
	return h
}

func (r *Registry) run(ctx context.Context, h Handle, e *resource.Entry[*thread]) {
	t := e.Value

	// Never unlocked: the renamed OS thread exits with the goroutine instead
	// of returning to the scheduler under a stale name.
	runtime.LockOSThread()

	t.gid.Store(goid())
	setOSThreadName(t.name)

	info := ""
	if t.shared {
		info = "[has shared context]"
	}
	r.log.Debugf("starting thread #%d <%s> %s", h, t.name, info)

	defer func() {
		r.log.Debugf("entry point <%s> has returned, thread exiting", t.name)
		r.release(h, e)
		close(t.done)
	}()

	t.code = t.entry.Call(ctx, r.shared, t.arg)
}

// release frees a finished thread's slot and keeps the thread reachable for
// Join until the slot is reused.
func (r *Registry) release(h Handle, e *resource.Entry[*thread]) {
	r.listMu.Lock()
	r.exited[h].Store(e.Value)
	r.threads.Release(h, e)
	r.listMu.Unlock()

	e.Value.cancel()
}

// RegisterCurrent binds a thread slot to the calling goroutine without
// starting anything. Calling it twice from one goroutine takes two slots.
func (r *Registry) RegisterCurrent(name string) Handle {
	t := &thread{name: name}
	t.gid.Store(goid())

	h, _ := allocate(r, r.threads, errors.PhaseThread, name, t, func(h Handle) {
		r.exited[h].Store(nil)
	})
	r.log.Debugf("registered thread #%d <%s>", h, name)
	return h
}

// Join waits for the thread at h to finish and returns its exit code. A
// thread that already finished can be joined once, until its slot is reused.
func (r *Registry) Join(h Handle) ExitCode {
	var t *thread
	if e := r.threads.Get(h); e != nil {
		t = e.Value
	} else if h >= 0 && int(h) < len(r.exited) {
		t = r.exited[h].Load()
	}
	if t == nil {
		r.fail(errors.InvalidHandle(errors.PhaseThread, int32(h)))
	}

	if t.done == nil {
		r.fail(errors.PrimitiveFailure(errors.PhaseThread, int32(h), t.name,
			"join: thread was not created by this registry", nil))
	}
	if t.gid.Load() == goid() {
		r.fail(errors.PrimitiveFailure(errors.PhaseThread, int32(h), t.name,
			"join: resource deadlock avoided", nil))
	}
	if t.joined.Swap(true) {
		r.fail(errors.New(errors.PhaseThread, errors.KindInvalidHandle).
			Handle(int32(h)).
			Name(t.name).
			Detail("join: thread already joined").
			Build())
	}

	r.log.Debugf("waiting for thread #%d <%s>", h, t.name)
	<-t.done
	r.log.Debugf("thread complete #%d <%s>", h, t.name)

	return t.code
}

// Cancel asks the thread at h to stop by cancelling the context its entry
// point received. The thread is not waited for.
func (r *Registry) Cancel(h Handle) {
	e := lookup(r, r.threads, errors.PhaseThread, h)
	if e.Value.cancel == nil {
		r.fail(errors.PrimitiveFailure(errors.PhaseThread, int32(h), e.Name,
			"cancel: thread was not created by this registry", nil))
	}

	r.log.Debugf("cancelling thread #%d <%s>", h, e.Name)
	e.Value.cancel()
}

// Self returns the handle of the calling thread, or 0 if the caller is not
// registered.
func (r *Registry) Self() Handle {
	return r.self(goid())
}

func (r *Registry) self(id int64) Handle {
	found := Handle(0)
	r.threads.Each(func(s resource.Slot[*thread]) bool {
		if s.Value.gid.Load() == id {
			found = s.Handle
			return false
		}
		return true
	})
	return found
}

// ThreadName returns the name of the thread at h; a negative h means the
// calling thread.
func (r *Registry) ThreadName(h Handle) string {
	if h < 0 {
		h = r.Self()
	}
	return lookup(r, r.threads, errors.PhaseThread, h).Name
}

// selfName names the caller for diagnostics and never fails.
func (r *Registry) selfName() string {
	if e := r.threads.Get(r.self(goid())); e != nil {
		return e.Name
	}
	return ""
}
