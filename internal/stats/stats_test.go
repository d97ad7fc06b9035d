package stats

import (
	"testing"
	"time"
)

var utc = time.UTC

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, utc)
}

func TestRecordWorkSession(t *testing.T) {
	e := New(utc)
	at := day(2025, time.March, 12, 10)

	e.RecordWorkSession(at, 25)
	e.RecordWorkSession(at.Add(time.Hour), 25)

	got := e.Today(at)
	if got.FocusMinutes != 50 || got.Sessions != 2 {
		t.Fatalf("unexpected day stats %+v", got)
	}
	if s := e.Streak(); s.Count != 1 || s.LastDate != "2025-03-12" {
		t.Fatalf("unexpected streak %+v", s)
	}
}

func TestTodayDoesNotCreateEntry(t *testing.T) {
	e := New(utc)
	if got := e.Today(day(2025, time.March, 12, 10)); got != (DayStats{}) {
		t.Fatalf("expected zero stats, got %+v", got)
	}
	if n := len(e.Days()); n != 0 {
		t.Fatalf("expected no days, got %d", n)
	}
}

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name  string
		start Streak
		on    time.Time
		want  Streak
	}{
		{"first ever", Streak{}, day(2025, time.March, 12, 9), Streak{1, "2025-03-12"}},
		{"same day is idempotent", Streak{3, "2025-03-12"}, day(2025, time.March, 12, 23), Streak{3, "2025-03-12"}},
		{"next day increments", Streak{3, "2025-03-11"}, day(2025, time.March, 12, 0), Streak{4, "2025-03-12"}},
		{"gap resets", Streak{7, "2025-03-09"}, day(2025, time.March, 12, 8), Streak{1, "2025-03-12"}},
		{"month boundary", Streak{2, "2025-02-28"}, day(2025, time.March, 1, 8), Streak{3, "2025-03-01"}},
		{"year boundary", Streak{5, "2024-12-31"}, day(2025, time.January, 1, 8), Streak{6, "2025-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(utc)
			e.Restore(nil, tt.start)
			e.UpdateStreak(tt.on)
			if got := e.Streak(); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestUpdateStreakTwiceSameDay(t *testing.T) {
	e := New(utc)
	at := day(2025, time.March, 12, 9)
	e.UpdateStreak(at)
	e.UpdateStreak(at.Add(2 * time.Hour))
	if c := e.Streak().Count; c != 1 {
		t.Fatalf("expected 1, got %d", c)
	}
}

func TestDayKeyUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	e := New(loc)
	// 02:00 UTC on the 13th is still the 12th at UTC-5.
	e.RecordWorkSession(time.Date(2025, time.March, 13, 2, 0, 0, 0, time.UTC), 25)
	days := e.Days()
	if len(days) != 1 || days[0].Date != "2025-03-12" {
		t.Fatalf("expected local date 2025-03-12, got %+v", days)
	}
}

func TestTaskCompletionDeltaFloorsAtZero(t *testing.T) {
	e := New(utc)
	at := day(2025, time.March, 12, 9)

	e.RecordTaskCompletionDelta(at, -1)
	if got := e.Today(at).TasksCompleted; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	e.RecordTaskCompletionDelta(at, 1)
	e.RecordTaskCompletionDelta(at, 1)
	e.RecordTaskCompletionDelta(at, -1)
	if got := e.Today(at).TasksCompleted; got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestDisplayStreak(t *testing.T) {
	e := New(utc)
	e.Restore(nil, Streak{Count: 4, LastDate: "2025-03-10"})

	tests := []struct {
		now  time.Time
		want int
	}{
		{day(2025, time.March, 10, 12), 4},
		{day(2025, time.March, 11, 12), 4},
		{day(2025, time.March, 12, 12), 0},
	}
	for _, tt := range tests {
		if got := e.DisplayStreak(tt.now); got != tt.want {
			t.Fatalf("on %s expected %d, got %d", tt.now.Format(time.DateOnly), tt.want, got)
		}
	}
	if e.Streak().Count != 4 {
		t.Fatal("display must not mutate the stored streak")
	}
}

func TestWeeklySeries(t *testing.T) {
	e := New(utc)
	// 2025-03-10 is a Monday.
	e.RecordWorkSession(day(2025, time.March, 10, 9), 25)
	e.RecordWorkSession(day(2025, time.March, 12, 9), 50)
	e.RecordWorkSession(day(2025, time.March, 16, 9), 15)
	e.RecordWorkSession(day(2025, time.March, 17, 9), 99) // next week

	for _, now := range []time.Time{day(2025, time.March, 12, 18), day(2025, time.March, 16, 23)} {
		series := e.WeeklySeries(now)
		if len(series) != 7 {
			t.Fatalf("expected 7 points, got %d", len(series))
		}
		want := []struct {
			label string
			date  string
			mins  int
		}{
			{"Mon", "2025-03-10", 25},
			{"Tue", "2025-03-11", 0},
			{"Wed", "2025-03-12", 50},
			{"Thu", "2025-03-13", 0},
			{"Fri", "2025-03-14", 0},
			{"Sat", "2025-03-15", 0},
			{"Sun", "2025-03-16", 15},
		}
		for i, w := range want {
			p := series[i]
			if p.Label != w.label || p.Date != w.date || p.FocusMinutes != w.mins {
				t.Fatalf("point %d: expected %+v, got %+v", i, w, p)
			}
		}
	}
}

func TestTotalsAndDays(t *testing.T) {
	e := New(utc)
	e.RecordWorkSession(day(2025, time.March, 12, 9), 25)
	e.RecordWorkSession(day(2025, time.March, 10, 9), 25)
	e.RecordWorkSession(day(2025, time.March, 10, 11), 25)
	e.RecordTaskCompletionDelta(day(2025, time.March, 11, 9), 1)

	tot := e.Totals()
	if tot.FocusMinutes != 75 || tot.Sessions != 3 || tot.TasksCompleted != 1 || tot.ActiveDays != 2 {
		t.Fatalf("unexpected totals %+v", tot)
	}

	days := e.Days()
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i, want := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		if days[i].Date != want {
			t.Fatalf("day %d: expected %s, got %s", i, want, days[i].Date)
		}
	}
}

func TestRestoreSanitizes(t *testing.T) {
	e := New(utc)
	e.Restore(map[string]DayStats{
		"2025-03-10": {FocusMinutes: 25, Sessions: 1, TasksCompleted: -3},
		"garbage":    {FocusMinutes: 10},
	}, Streak{Count: -2})

	days := e.Days()
	if len(days) != 1 || days[0].TasksCompleted != 0 {
		t.Fatalf("unexpected days %+v", days)
	}
	if e.Streak().Count != 0 {
		t.Fatalf("expected floored streak, got %d", e.Streak().Count)
	}

	doc := e.Document()
	doc["2025-03-10"] = DayStats{}
	if e.Today(day(2025, time.March, 10, 9)).FocusMinutes != 25 {
		t.Fatal("document must be a copy")
	}
}
