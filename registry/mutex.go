package registry

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/stl/errors"
)

// mutex is an error-checking lock: it knows its owner, so relocking from the
// owner and unlocking from anyone else are reported instead of deadlocking
// or corrupting state.
type mutex struct {
	mu    sync.Mutex
	owner atomic.Int64 // goroutine id of the holder, 0 when unlocked
}

// CreateMutex allocates an unlocked mutex.
func (r *Registry) CreateMutex(name string) Handle {
	h, _ := allocate(r, r.mutexes, errors.PhaseMutex, name, &mutex{}, nil)
	r.log.Debugf("create mutex #%d <%s>", h, name)
	return h
}

// Lock acquires the mutex at h. With blocking it waits indefinitely and
// returns true; without it returns false instead of waiting when the mutex
// is held, including when the caller holds it.
func (r *Registry) Lock(h Handle, blocking bool) bool {
	e := lookup(r, r.mutexes, errors.PhaseMutex, h)
	m := e.Value
	me := goid()

	if !blocking {
		if !m.mu.TryLock() {
			r.log.Debugf("test mutex - LOCKED #%d <%s>", h, e.Name)
			return false
		}
		m.owner.Store(me)
		r.log.Debugf("test mutex - UNLOCKED #%d <%s>", h, e.Name)
		return true
	}

	r.log.Debugf("attempting lock on mutex #%d <%s>", h, e.Name)
	if m.owner.Load() == me {
		r.fail(errors.PrimitiveFailure(errors.PhaseMutex, int32(h), e.Name,
			"lock: resource deadlock avoided", nil))
	}
	m.mu.Lock()
	m.owner.Store(me)
	r.log.Debugf("mutex lock obtained #%d", h)
	return true
}

// Unlock releases the mutex at h. The caller must hold it.
func (r *Registry) Unlock(h Handle) {
	e := lookup(r, r.mutexes, errors.PhaseMutex, h)
	m := e.Value

	r.log.Debugf("unlock mutex #%d <%s>", h, e.Name)
	if m.owner.Load() != goid() {
		r.fail(errors.PrimitiveFailure(errors.PhaseMutex, int32(h), e.Name,
			"unlock: operation not permitted, mutex not held by caller", nil))
	}
	m.owner.Store(0)
	m.mu.Unlock()
}
