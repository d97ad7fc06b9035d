package engine

import (
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/settings"
	"github.com/sadopc/focusflow/internal/stats"
	"github.com/sadopc/focusflow/internal/tasks"
)

// Snapshot is a read-only view of the engine for rendering.
type Snapshot struct {
	Now      time.Time
	Timer    pomodoro.State
	Label    string
	Progress float64
	Settings settings.Settings

	// AutoStartPending is set while the next phase waits to start on its own.
	AutoStartPending bool

	Tasks     []tasks.Task
	Pending   []tasks.Task
	Completed []tasks.Task
	Active    *tasks.Task

	TodayKey string
	Today    stats.DayStats
	Streak   int
	Week     []stats.DayPoint
	Totals   stats.Totals
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	now := e.clock.Now()
	s := Snapshot{
		Now:       now,
		Timer:     e.machine.State(),
		Label:     e.machine.Label(),
		Progress:  e.machine.Progress(),
		Settings:  e.settings,
		Tasks:     e.tasks.Tasks(),
		Pending:   e.tasks.Pending(),
		Completed: e.tasks.CompletedTasks(),
		TodayKey:  e.stats.DayKey(now),
		Today:     e.stats.Today(now),
		Streak:    e.stats.DisplayStreak(now),
		Week:      e.stats.WeeklySeries(now),
		Totals:    e.stats.Totals(),
	}
	if t, ok := e.tasks.Active(); ok {
		s.Active = &t
	}
	s.AutoStartPending = e.machine.PendingAutoStart() != 0
	return s
}

