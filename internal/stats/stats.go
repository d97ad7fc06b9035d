// Package stats keeps per-day focus statistics and the daily streak.
package stats

import (
	"sort"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
)

// DayStats is the aggregate for one local calendar day.
type DayStats struct {
	FocusMinutes   int `json:"focusMinutes"`
	Sessions       int `json:"sessions"`
	TasksCompleted int `json:"tasksCompleted"`
}

// Streak counts consecutive days with at least one completed work session.
type Streak struct {
	Count    int    `json:"count"`
	LastDate string `json:"lastDate,omitempty"`
}

// Day is a DayStats with its date key, used for ordered listings.
type Day struct {
	Date string `json:"date"`
	DayStats
}

// DayPoint is one bar of the weekly chart.
type DayPoint struct {
	Label        string
	Date         string
	FocusMinutes int
}

// Totals are lifetime sums across all recorded days.
type Totals struct {
	FocusMinutes   int
	Sessions       int
	TasksCompleted int
	ActiveDays     int
}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Engine owns the day map and the streak. Not safe for concurrent use.
type Engine struct {
	loc    *time.Location
	days   map[string]DayStats
	streak Streak
}

// New returns an empty engine that keys days in loc (time.Local when nil).
func New(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc, days: make(map[string]DayStats)}
}

// Restore replaces the engine state with persisted data. Negative counters
// are floored at zero.
func (e *Engine) Restore(days map[string]DayStats, streak Streak) {
	e.days = make(map[string]DayStats, len(days))
	for k, d := range days {
		if _, err := clock.ParseDay(k, e.loc); err != nil {
			continue
		}
		d.FocusMinutes = max(d.FocusMinutes, 0)
		d.Sessions = max(d.Sessions, 0)
		d.TasksCompleted = max(d.TasksCompleted, 0)
		e.days[k] = d
	}
	streak.Count = max(streak.Count, 0)
	e.streak = streak
}

// DayKey returns the local date key for t.
func (e *Engine) DayKey(t time.Time) string {
	return clock.DayKey(t, e.loc)
}

// RecordWorkSession adds a completed work phase of minutes to the day of
// at and counts the day towards the streak.
func (e *Engine) RecordWorkSession(at time.Time, minutes int) {
	key := e.DayKey(at)
	d := e.days[key]
	d.FocusMinutes += minutes
	d.Sessions++
	e.days[key] = d
	e.UpdateStreak(at)
}

// UpdateStreak counts day once: consecutive days extend the streak, a gap
// restarts it at 1.
func (e *Engine) UpdateStreak(day time.Time) {
	key := e.DayKey(day)
	if e.streak.LastDate == key {
		return
	}
	local := day.In(e.loc)
	yesterday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc).AddDate(0, 0, -1)
	if e.streak.LastDate == e.DayKey(yesterday) {
		e.streak.Count++
	} else {
		e.streak.Count = 1
	}
	e.streak.LastDate = key
}

// RecordTaskCompletionDelta adjusts the completed-task counter of the day
// of at by delta. The counter never drops below zero.
func (e *Engine) RecordTaskCompletionDelta(at time.Time, delta int) {
	key := e.DayKey(at)
	d := e.days[key]
	d.TasksCompleted = max(d.TasksCompleted+delta, 0)
	e.days[key] = d
}

// Today returns the stats for the day of now without creating an entry.
func (e *Engine) Today(now time.Time) DayStats {
	return e.days[e.DayKey(now)]
}

// Streak returns the stored streak.
func (e *Engine) Streak() Streak { return e.streak }

// DisplayStreak is the streak as it should be shown on now: a streak whose
// last counted day is older than yesterday is broken and shows 0.
func (e *Engine) DisplayStreak(now time.Time) int {
	if e.streak.LastDate == "" {
		return 0
	}
	local := now.In(e.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)
	switch e.streak.LastDate {
	case e.DayKey(today), e.DayKey(today.AddDate(0, 0, -1)):
		return e.streak.Count
	}
	return 0
}

// WeeklySeries returns Monday..Sunday of the week containing now. Days
// without data report zero.
func (e *Engine) WeeklySeries(now time.Time) []DayPoint {
	monday := clock.StartOfWeek(now, e.loc)
	points := make([]DayPoint, 0, len(weekdayLabels))
	for i, label := range weekdayLabels {
		key := e.DayKey(monday.AddDate(0, 0, i))
		points = append(points, DayPoint{
			Label:        label,
			Date:         key,
			FocusMinutes: e.days[key].FocusMinutes,
		})
	}
	return points
}

// Totals sums every recorded day.
func (e *Engine) Totals() Totals {
	var t Totals
	for _, d := range e.days {
		t.FocusMinutes += d.FocusMinutes
		t.Sessions += d.Sessions
		t.TasksCompleted += d.TasksCompleted
		if d.Sessions > 0 {
			t.ActiveDays++
		}
	}
	return t
}

// Days lists every recorded day in date order.
func (e *Engine) Days() []Day {
	out := make([]Day, 0, len(e.days))
	for k, d := range e.days {
		out = append(out, Day{Date: k, DayStats: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Document returns a copy of the day map in its persisted form.
func (e *Engine) Document() map[string]DayStats {
	out := make(map[string]DayStats, len(e.days))
	for k, d := range e.days {
		out[k] = d
	}
	return out
}
