package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/stl/resource"
)

// SlotInfo describes one busy slot.
type SlotInfo struct {
	Name   string `yaml:"name"`
	State  string `yaml:"state"`
	Handle Handle `yaml:"handle"`
}

// TableInfo describes one resource table.
type TableInfo struct {
	Busy     []SlotInfo `yaml:"busy"`
	Capacity int        `yaml:"capacity"`
}

// Snapshot is a point-in-time view of all four tables. Slots can change
// while it is being taken; each slot is read atomically.
type Snapshot struct {
	Threads    TableInfo `yaml:"threads"`
	Mutexes    TableInfo `yaml:"mutexes"`
	Semaphores TableInfo `yaml:"semaphores"`
	Timers     TableInfo `yaml:"timers"`
}

// Snapshot returns the busy slots of every table.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Threads: collect(r.threads, func(t *thread) string {
			if t.done == nil {
				return "registered"
			}
			return "running"
		}),
		Mutexes: collect(r.mutexes, func(m *mutex) string {
			if m.owner.Load() != 0 {
				return "locked"
			}
			return "unlocked"
		}),
		Semaphores: collect(r.sems, func(s *semaphore) string {
			return fmt.Sprintf("count=%d", s.count.Load())
		}),
		Timers: collect(r.timers, func(t *timer) string {
			return fmt.Sprintf("every %v -> semaphore #%d (%d ticks)", t.interval, t.sem, t.ticks.Load())
		}),
	}
}

func collect[T any](a *resource.Arena[T], state func(T) string) TableInfo {
	info := TableInfo{Capacity: a.Cap(), Busy: []SlotInfo{}}
	a.Each(func(s resource.Slot[T]) bool {
		info.Busy = append(info.Busy, SlotInfo{
			Handle: s.Handle,
			Name:   s.Name,
			State:  state(s.Value),
		})
		return true
	})
	return info
}

// YAML renders the snapshot as a YAML document.
func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
