package registry

import (
	"context"
	"math"
	"sync/atomic"

	xsem "golang.org/x/sync/semaphore"

	"github.com/wippyai/stl/errors"
)

// semaphore is a counting semaphore starting at zero. The weighted semaphore
// is created with its whole capacity already taken; Post gives one unit
// back and Wait takes one.
type semaphore struct {
	w     *xsem.Weighted
	count atomic.Int64
}

const semMax = math.MaxInt64

func newSemaphore() *semaphore {
	w := xsem.NewWeighted(semMax)
	w.TryAcquire(semMax)
	return &semaphore{w: w}
}

// CreateSemaphore allocates a counting semaphore with value 0.
func (r *Registry) CreateSemaphore(name string) Handle {
	h, _ := allocate(r, r.sems, errors.PhaseSemaphore, name, newSemaphore(), nil)
	r.log.Debugf("creating semaphore #%d <%s>", h, name)
	return h
}

// Post increments the semaphore at h, waking one waiter if any.
func (r *Registry) Post(h Handle) {
	e := lookup(r, r.sems, errors.PhaseSemaphore, h)
	s := e.Value

	r.log.Debugf("posting semaphore #%d <%s>", h, e.Name)
	if s.count.Add(1) < 0 {
		r.fail(errors.PrimitiveFailure(errors.PhaseSemaphore, int32(h), e.Name,
			"post: value overflow", nil))
	}
	s.w.Release(1)
}

// Wait decrements the semaphore at h. With blocking it waits until the
// value is positive and returns true; without it returns false instead of
// waiting.
func (r *Registry) Wait(h Handle, blocking bool) bool {
	e := lookup(r, r.sems, errors.PhaseSemaphore, h)
	s := e.Value

	if !blocking {
		if !s.w.TryAcquire(1) {
			r.log.Debugf("polling semaphore - BLOCKED #%d <%s>", h, e.Name)
			return false
		}
		s.count.Add(-1)
		r.log.Debugf("polling semaphore - FREE #%d <%s>", h, e.Name)
		return true
	}

	r.log.Debugf("waiting for semaphore #%d <%s>", h, e.Name)
	if err := s.w.Acquire(context.Background(), 1); err != nil {
		r.fail(errors.PrimitiveFailure(errors.PhaseSemaphore, int32(h), e.Name, "wait", err))
	}
	s.count.Add(-1)
	r.log.Debugf("semaphore wait complete #%d", h)
	return true
}
