package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Host is the engine's scheduler and notifier inside a Bubble Tea program.
// The engine runs on the update goroutine, so instead of sending messages
// directly (which would block) Host queues commands that App.Update
// returns after each engine call.
type Host struct {
	tickInterval time.Duration
	bell         io.Writer
	queue        []tea.Cmd
}

// NewHost returns a host ticking every interval. If bell is non-nil,
// notifications also ring the terminal bell on it.
func NewHost(interval time.Duration, bell io.Writer) *Host {
	if interval <= 0 {
		interval = time.Second
	}
	return &Host{tickInterval: interval, bell: bell}
}

// StartTicker schedules the first tick of generation gen.
func (h *Host) StartTicker(gen uint64) {
	h.queue = append(h.queue, h.tick(gen))
}

// StopTicker is a no-op: pending ticks of the old generation are dropped
// by the engine when they arrive.
func (h *Host) StopTicker() {}

// ScheduleAutoStart fires an autoStartMsg after delay.
func (h *Host) ScheduleAutoStart(token uint64, delay time.Duration) {
	h.queue = append(h.queue, tea.Tick(delay, func(time.Time) tea.Msg {
		return autoStartMsg{token: token}
	}))
}

// CancelAutoStart is a no-op: the engine ignores cancelled tokens.
func (h *Host) CancelAutoStart(uint64) {}

// Notify posts the notification to the status line.
func (h *Host) Notify(_ context.Context, title, body string) error {
	h.queue = append(h.queue, func() tea.Msg {
		return notifyMsg{title: title, body: body}
	})
	if h.bell != nil {
		if _, err := h.bell.Write([]byte{'\a'}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) tick(gen uint64) tea.Cmd {
	return tea.Tick(h.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

// drain returns and clears the queued commands.
func (h *Host) drain() tea.Cmd {
	if len(h.queue) == 0 {
		return nil
	}
	cmds := h.queue
	h.queue = nil
	return tea.Batch(cmds...)
}
