package registry

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/resource"
)

type timer struct {
	stop     chan struct{}
	interval time.Duration
	ticks    atomic.Int64
	stopOnce sync.Once
	sem      Handle
}

func (t *timer) halt() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// CreateTimer starts a periodic timer that posts the semaphore at sem once
// every interval seconds. The first post happens one interval after
// creation.
func (r *Registry) CreateTimer(name string, interval float64, sem Handle) Handle {
	d := time.Duration(0)
	if !math.IsNaN(interval) && !math.IsInf(interval, 0) && interval > 0 {
		d = seconds2duration(interval)
	}
	if d <= 0 {
		r.fail(errors.PrimitiveFailure(errors.PhaseTimer, errors.NoHandle, name,
			"create: invalid interval", nil))
	}
	lookup(r, r.sems, errors.PhaseSemaphore, sem)

	t := &timer{
		stop:     make(chan struct{}),
		interval: d,
		sem:      sem,
	}
	h, e := allocate(r, r.timers, errors.PhaseTimer, name, t, nil)
	go r.tick(e)

	r.log.Debugf("create timer #%d <%s>", h, name)
	return h
}

func (r *Registry) tick(e *resource.Entry[*timer]) {
	t := e.Value
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.ticks.Add(1)
			r.Post(t.sem)
		}
	}
}
