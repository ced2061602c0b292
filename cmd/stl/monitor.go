package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	capacityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const refreshInterval = 200 * time.Millisecond

type monitorModel struct {
	reg    *registry.Registry
	snap   registry.Snapshot
	table  table.Model
	entry  string
	code   symbol.ExitCode
	thread registry.Handle
	done   bool
}

type tickMsg time.Time

type joinedMsg struct {
	code symbol.ExitCode
}

func newMonitorModel(reg *registry.Registry, h registry.Handle, entry string) *monitorModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Kind", Width: 10},
			{Title: "#", Width: 4},
			{Title: "Name", Width: 20},
			{Title: "State", Width: 44},
		}),
		table.WithFocused(true),
		table.WithHeight(16),
	)

	m := &monitorModel{
		reg:    reg,
		table:  t,
		entry:  entry,
		thread: h,
	}
	m.refresh()
	return m
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.join, tick())
}

func (m *monitorModel) join() tea.Msg {
	return joinedMsg{code: m.reg.Join(m.thread)}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *monitorModel) refresh() {
	m.snap = m.reg.Snapshot()
	m.table.SetRows(snapshotRows(m.snap))
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.done {
				return m, tea.Quit
			}
			m.reg.Cancel(m.thread)
			return m, nil
		}

	case tickMsg:
		m.refresh()
		return m, tick()

	case joinedMsg:
		m.code = msg.code
		m.done = true
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("STL Monitor"))
	b.WriteString(" ")
	b.WriteString(m.entry)
	b.WriteString("\n\n")

	b.WriteString(capacityStyle.Render(fmt.Sprintf(
		"threads %d/%d  mutexes %d/%d  semaphores %d/%d  timers %d/%d",
		len(m.snap.Threads.Busy), m.snap.Threads.Capacity,
		len(m.snap.Mutexes.Busy), m.snap.Mutexes.Capacity,
		len(m.snap.Semaphores.Busy), m.snap.Semaphores.Capacity,
		len(m.snap.Timers.Busy), m.snap.Timers.Capacity,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(resultStyle.Render(fmt.Sprintf("%s exited with %d", m.entry, m.code)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • q quit"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ scroll • q cancel " + m.entry))
	}

	return b.String()
}

// snapshotRows flattens the four tables into table rows.
func snapshotRows(s registry.Snapshot) []table.Row {
	var rows []table.Row
	add := func(kind string, t registry.TableInfo) {
		for _, slot := range t.Busy {
			rows = append(rows, table.Row{kind, strconv.Itoa(int(slot.Handle)), slot.Name, slot.State})
		}
	}
	add("thread", s.Threads)
	add("mutex", s.Mutexes)
	add("semaphore", s.Semaphores)
	add("timer", s.Timers)
	return rows
}

// runMonitor shows the slot tables until the thread at h has been joined
// and the user quits.
func runMonitor(reg *registry.Registry, h registry.Handle, entry string) (symbol.ExitCode, error) {
	p := tea.NewProgram(newMonitorModel(reg, h, entry), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return 0, err
	}
	m := final.(*monitorModel)
	if !m.done {
		return reg.Join(h), nil
	}
	return m.code, nil
}
