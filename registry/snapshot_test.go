package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestSnapshot(t *testing.T) {
	r, symbols, _ := newTestRegistry(t, DefaultConfig())

	release := make(chan struct{})
	mustRegister(t, symbols, "park", func(ctx context.Context, arg any) ExitCode {
		<-release
		return 0
	})

	th := r.CreateThread("park", nil, false)
	m := r.CreateMutex("lock")
	r.Lock(m, true)
	s := r.CreateSemaphore("sem")
	r.Post(s)
	r.CreateTimer("slow", 60, s)

	snap := r.Snapshot()

	want := Snapshot{
		Threads: TableInfo{Capacity: 8, Busy: []SlotInfo{
			{Handle: 0, Name: "user", State: "registered"},
			{Handle: th, Name: "park", State: "running"},
		}},
		Mutexes: TableInfo{Capacity: 8, Busy: []SlotInfo{
			{Handle: m, Name: "lock", State: "locked"},
		}},
		Semaphores: TableInfo{Capacity: 8, Busy: []SlotInfo{
			{Handle: s, Name: "sem", State: "count=1"},
		}},
		Timers: TableInfo{Capacity: 8, Busy: []SlotInfo{
			{Handle: 0, Name: "slow", State: "every 1m0s -> semaphore #0 (0 ticks)"},
		}},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	data, err := snap.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var back Snapshot
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode YAML: %v", err)
	}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(string(data), "name: park") {
		t.Errorf("YAML missing thread entry:\n%s", data)
	}

	r.Unlock(m)
	close(release)
	r.Join(th)
}

func TestLog_LineFormat(t *testing.T) {
	r, _, out := newTestRegistry(t, DefaultConfig())

	r.Log().Logf("%s", strings.Repeat("x", 400))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	if len(last)+1 > 128 {
		t.Errorf("log line is %d bytes with newline, want at most 128", len(last)+1)
	}
	if !strings.Contains(last, "[user] xxx") {
		t.Errorf("log line should carry the calling thread name: %q", last)
	}
}

func TestLog_DebugToggle(t *testing.T) {
	r, _, out := newTestRegistry(t, DefaultConfig())

	r.SetDebug(false)
	before := out.String()
	r.CreateMutex("quiet")
	if out.String() != before {
		t.Errorf("debug output written while disabled: %q", out.String()[len(before):])
	}

	r.SetDebug(true)
	r.CreateMutex("loud")
	if !strings.Contains(out.String(), "create mutex #1 <loud>") {
		t.Errorf("expected debug line, got %q", out.String())
	}
}
