package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
)

func TestSnapshotRows(t *testing.T) {
	snap := registry.Snapshot{
		Threads: registry.TableInfo{Capacity: 8, Busy: []registry.SlotInfo{
			{Handle: 0, Name: "user", State: "registered"},
			{Handle: 1, Name: "main", State: "running"},
		}},
		Semaphores: registry.TableInfo{Capacity: 8, Busy: []registry.SlotInfo{
			{Handle: 2, Name: "tick", State: "count=3"},
		}},
	}

	want := []table.Row{
		{"thread", "0", "user", "registered"},
		{"thread", "1", "main", "running"},
		{"semaphore", "2", "tick", "count=3"},
	}
	if diff := cmp.Diff(want, snapshotRows(snap)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitorModel_JoinAndQuit(t *testing.T) {
	symbols := symbol.NewTable()
	release := make(chan struct{})
	if err := symbols.Register("main", func(ctx context.Context, arg any) symbol.ExitCode {
		<-release
		return 9
	}); err != nil {
		t.Fatal(err)
	}

	reg := registry.New(registry.DefaultConfig(),
		registry.WithSymbols(symbols),
		registry.WithOutput(io.Discard),
	)
	defer reg.Close()

	h := reg.CreateThread("main", nil, false)
	m := newMonitorModel(reg, h, "main")

	if !strings.Contains(m.View(), "threads 2/8") {
		t.Errorf("view should count busy threads:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "q cancel main") {
		t.Errorf("view should offer cancel while running:\n%s", m.View())
	}

	close(release)
	msg := m.join()
	m.Update(msg)

	if !m.done || m.code != 9 {
		t.Fatalf("after join: done=%v code=%d", m.done, m.code)
	}
	if !strings.Contains(m.View(), "main exited with 9") {
		t.Errorf("view should show the exit code:\n%s", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q after exit should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
