package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/settings"
	"github.com/sadopc/focusflow/internal/stats"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tasks"
)

// memStore is an in-memory domain.Store.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	writes  int
	failGet error
	failSet error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, false, m.failGet
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: m.failSet}
	}
	m.writes++
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	titles []string
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, title, _ string) error {
	m.titles = append(m.titles, title)
	return m.err
}

type mockSound struct {
	plays int
	err   error
}

func (m *mockSound) PlayChime(context.Context) error {
	m.plays++
	return m.err
}

type mockScheduler struct {
	ticking    bool
	generation uint64
	scheduled  []uint64
	cancelled  []uint64
}

func (m *mockScheduler) StartTicker(gen uint64) { m.ticking, m.generation = true, gen }
func (m *mockScheduler) StopTicker()             { m.ticking = false }
func (m *mockScheduler) ScheduleAutoStart(token uint64, _ time.Duration) {
	m.scheduled = append(m.scheduled, token)
}
func (m *mockScheduler) CancelAutoStart(token uint64) { m.cancelled = append(m.cancelled, token) }

var testNow = time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

type fixture struct {
	eng      *Engine
	store    *memStore
	notifier *mockNotifier
	sound    *mockSound
	sched    *mockScheduler
	clock    *clock.Manual
}

func newFixture(t *testing.T, st *memStore) *fixture {
	t.Helper()
	if st == nil {
		st = newMemStore()
	}
	f := &fixture{
		store:    st,
		notifier: &mockNotifier{},
		sound:    &mockSound{},
		sched:    &mockScheduler{},
		clock:    clock.NewManual(testNow),
	}
	f.eng = New(st, nil,
		WithNotifier(f.notifier),
		WithSound(f.sound),
		WithScheduler(f.sched),
		WithClock(f.clock),
		WithLocation(time.UTC),
	)
	return f
}

func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.eng.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

// runPhase ticks the active ticker until the timer stops.
func (f *fixture) runPhase(t *testing.T) {
	t.Helper()
	for i := 0; f.sched.ticking; i++ {
		if i > 100*60 {
			t.Fatal("phase never completed")
		}
		f.clock.Advance(time.Second)
		if !f.eng.Tick(f.sched.generation, f.clock.Now()) {
			t.Fatal("live tick rejected")
		}
	}
}

// ============================================================
// Load
// ============================================================

func TestLoadEmptyPersistsDefaults(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)

	if got := f.eng.Settings(); got != settings.Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	for _, key := range store.Keys {
		if f.store.raw(key) == "" {
			t.Fatalf("default for %q was not persisted", key)
		}
	}
	if got := f.store.raw(store.KeyActiveTaskID); got != "null" {
		t.Fatalf("expected null active id, got %s", got)
	}
	snap := f.eng.Snapshot()
	if snap.Timer.RemainingSeconds != 1500 || snap.Label != "Ready to focus" {
		t.Fatalf("unexpected timer %+v %q", snap.Timer, snap.Label)
	}
}

func TestLoadCorruptFallsBack(t *testing.T) {
	st := newMemStore()
	st.data[store.KeySettings] = []byte(`{not json`)
	st.data[store.KeyTasks] = []byte(`"oops"`)
	f := newFixture(t, st)

	err := f.eng.Load(context.Background())
	if err == nil {
		t.Fatal("expected load errors to be reported")
	}
	if got := f.eng.Settings(); got != settings.Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	var cfg settings.Settings
	if err := json.Unmarshal([]byte(st.raw(store.KeySettings)), &cfg); err != nil {
		t.Fatalf("settings not rewritten: %v", err)
	}
	if st.raw(store.KeyTasks) != "[]" {
		t.Fatalf("tasks not rewritten, got %s", st.raw(store.KeyTasks))
	}
}

func TestLoadReadFailure(t *testing.T) {
	st := newMemStore()
	st.failGet = errors.New("disk on fire")
	f := newFixture(t, st)

	if err := f.eng.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if f.eng.Settings() != settings.Defaults() {
		t.Fatal("expected defaults")
	}
	if len(f.eng.Snapshot().Tasks) != 0 {
		t.Fatal("expected no tasks")
	}
}

func TestLoadRestoresState(t *testing.T) {
	st := newMemStore()
	st.data[store.KeySettings] = []byte(`{"work":50,"shortBreak":10,"longBreak":200,"sessionsBeforeLong":0,"sound":false}`)
	st.data[store.KeyTasks] = []byte(`[{"id":"a","name":"Write report","estimatedPomodoros":3,"completedPomodoros":1,"completed":false,"createdAt":"2025-03-11T10:00:00Z"}]`)
	st.data[store.KeyActiveTaskID] = []byte(`"a"`)
	st.data[store.KeyStats] = []byte(`{"2025-03-12":{"focusMinutes":50,"sessions":2,"tasksCompleted":1}}`)
	st.data[store.KeyStreak] = []byte(`{"count":5,"lastDate":"2025-03-11"}`)
	f := newFixture(t, st)
	f.load(t)

	cfg := f.eng.Settings()
	if cfg.WorkMinutes != 50 || cfg.ShortBreakMinutes != 10 {
		t.Fatalf("stored values lost: %+v", cfg)
	}
	if cfg.LongBreakMinutes != 60 {
		t.Fatalf("expected long break clamped to 60, got %d", cfg.LongBreakMinutes)
	}
	if cfg.SessionsBeforeLong != 4 {
		t.Fatalf("expected invalid sessions to fall back to 4, got %d", cfg.SessionsBeforeLong)
	}
	if cfg.SoundEnabled {
		t.Fatal("sound flag lost")
	}

	snap := f.eng.Snapshot()
	if snap.Timer.TotalSeconds != 3000 {
		t.Fatalf("expected 3000s work phase, got %d", snap.Timer.TotalSeconds)
	}
	if snap.Active == nil || snap.Active.ID != "a" || snap.Active.CompletedPomodoros != 1 {
		t.Fatalf("unexpected active task %+v", snap.Active)
	}
	if snap.Today.FocusMinutes != 50 || snap.Today.Sessions != 2 {
		t.Fatalf("unexpected today %+v", snap.Today)
	}
	if snap.Streak != 5 {
		t.Fatalf("expected streak 5, got %d", snap.Streak)
	}
}

// ============================================================
// Timer flow
// ============================================================

func TestWorkCompletionFlow(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	if err := f.eng.SetSetting(settings.KeyWork, "1"); err != nil {
		t.Fatal(err)
	}
	task, err := f.eng.AddTask("Write report", 3)
	if err != nil {
		t.Fatal(err)
	}

	f.eng.Start()
	f.runPhase(t)

	snap := f.eng.Snapshot()
	if snap.Timer.Mode != pomodoro.ShortBreak || snap.Timer.Running {
		t.Fatalf("expected idle short break, got %+v", snap.Timer)
	}
	if snap.Today.FocusMinutes != 1 || snap.Today.Sessions != 1 {
		t.Fatalf("unexpected stats %+v", snap.Today)
	}
	if snap.Streak != 1 {
		t.Fatalf("expected streak 1, got %d", snap.Streak)
	}
	if snap.Active == nil || snap.Active.ID != task.ID || snap.Active.CompletedPomodoros != 1 {
		t.Fatalf("pomodoro not attributed: %+v", snap.Active)
	}
	if f.sound.plays != 1 {
		t.Fatalf("expected 1 chime, got %d", f.sound.plays)
	}
	if len(f.notifier.titles) != 1 || f.notifier.titles[0] != "Break time!" {
		t.Fatalf("unexpected notifications %v", f.notifier.titles)
	}
	if len(f.sched.scheduled) != 1 {
		t.Fatalf("expected a scheduled auto-start, got %v", f.sched.scheduled)
	}

	var days map[string]stats.DayStats
	json.Unmarshal([]byte(f.store.raw(store.KeyStats)), &days)
	if days["2025-03-12"].Sessions != 1 {
		t.Fatalf("stats not persisted: %s", f.store.raw(store.KeyStats))
	}
	var saved []tasks.Task
	json.Unmarshal([]byte(f.store.raw(store.KeyTasks)), &saved)
	if len(saved) != 1 || saved[0].CompletedPomodoros != 1 {
		t.Fatalf("tasks not persisted: %s", f.store.raw(store.KeyTasks))
	}

	// The auto-start fires and the break runs.
	if !f.eng.AutoStart(f.sched.scheduled[0]) {
		t.Fatal("auto-start rejected")
	}
	f.runPhase(t)
	if m := f.eng.Snapshot().Timer.Mode; m != pomodoro.Work {
		t.Fatalf("expected work after break, got %s", m)
	}
	if f.notifier.titles[1] != "Break is over!" {
		t.Fatalf("unexpected notification %q", f.notifier.titles[1])
	}
}

func TestStaleTicksDropped(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)

	f.eng.Start()
	first := f.sched.generation
	f.eng.Pause()
	if f.eng.Tick(first, testNow) {
		t.Fatal("tick accepted while paused")
	}
	f.eng.Start()
	if f.sched.generation == first {
		t.Fatal("resume should use a new generation")
	}
	if f.eng.Tick(first, testNow) {
		t.Fatal("stale generation accepted")
	}
	if !f.eng.Tick(f.sched.generation, testNow) {
		t.Fatal("live generation rejected")
	}
	if rem := f.eng.Snapshot().Timer.RemainingSeconds; rem != 1499 {
		t.Fatalf("expected exactly one tick applied, got %d", rem)
	}
}

func TestManualStartCancelsAutoStart(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)

	f.eng.Skip()
	if len(f.sched.scheduled) != 1 {
		t.Fatalf("expected auto-start, got %v", f.sched.scheduled)
	}
	token := f.sched.scheduled[0]
	f.eng.Start()
	if len(f.sched.cancelled) != 1 || f.sched.cancelled[0] != token {
		t.Fatalf("expected token %d cancelled, got %v", token, f.sched.cancelled)
	}
	if f.eng.AutoStart(token) {
		t.Fatal("cancelled auto-start fired")
	}
}

func TestSkipFromReadyRecordsWork(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	f.eng.Skip()
	if got := f.eng.Snapshot().Today; got.FocusMinutes != 25 || got.Sessions != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
}

func TestCollaboratorErrorsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	f.notifier.err = errors.New("no dbus")
	f.sound.err = domain.ErrNoAudio
	f.load(t)

	f.eng.Skip()
	if f.eng.Snapshot().Timer.Mode != pomodoro.ShortBreak {
		t.Fatal("completion should proceed despite collaborator errors")
	}
}

func TestStorageFailureKeepsMemoryState(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	f.store.mu.Lock()
	f.store.failSet = errors.New("read-only")
	f.store.mu.Unlock()

	if _, err := f.eng.AddTask("offline", 1); err != nil {
		t.Fatalf("storage failure should not surface: %v", err)
	}
	if len(f.eng.Snapshot().Tasks) != 1 {
		t.Fatal("task lost from memory")
	}
}

// ============================================================
// Tasks and settings
// ============================================================

func TestWriteReportScenario(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)

	task, err := f.eng.AddTask("Write report", 3)
	if err != nil {
		t.Fatal(err)
	}
	if !f.eng.ToggleTask(task.ID) {
		t.Fatal("toggle failed")
	}
	snap := f.eng.Snapshot()
	if snap.Today.TasksCompleted != 1 {
		t.Fatalf("expected 1 task completed, got %d", snap.Today.TasksCompleted)
	}
	if snap.Active != nil {
		t.Fatalf("active task should be cleared, got %+v", snap.Active)
	}
	if f.store.raw(store.KeyActiveTaskID) != "null" {
		t.Fatalf("active id not persisted, got %s", f.store.raw(store.KeyActiveTaskID))
	}
	if len(snap.Completed) != 1 || len(snap.Pending) != 0 {
		t.Fatalf("unexpected lists %d/%d", len(snap.Pending), len(snap.Completed))
	}
}

func TestTaskCommandsUnknownID(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	before := f.store.writeCount()
	if f.eng.ToggleTask("x") || f.eng.DeleteTask("x") || f.eng.SetActiveTask("x") {
		t.Fatal("unknown ids must be no-ops")
	}
	if f.store.writeCount() != before {
		t.Fatal("no-op commands must not persist")
	}
}

func TestAddTaskValidation(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	before := f.store.writeCount()
	if _, err := f.eng.AddTask("  ", 1); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.store.writeCount() != before {
		t.Fatal("rejected input must not persist")
	}
}

func TestDeleteAndActivate(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	a, _ := f.eng.AddTask("a", 1)
	b, _ := f.eng.AddTask("b", 1)

	if !f.eng.SetActiveTask(b.ID) {
		t.Fatal("set active failed")
	}
	if !f.eng.DeleteTask(b.ID) {
		t.Fatal("delete failed")
	}
	if snap := f.eng.Snapshot(); snap.Active == nil || snap.Active.ID != a.ID {
		t.Fatalf("expected %s active, got %+v", a.ID, snap.Active)
	}
	if f.store.raw(store.KeyActiveTaskID) != `"`+a.ID+`"` {
		t.Fatalf("active id not persisted: %s", f.store.raw(store.KeyActiveTaskID))
	}
}

func TestSetSetting(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)

	tests := []struct {
		key, raw string
		wantErr  bool
	}{
		{settings.KeyWork, "0", true},
		{settings.KeyWork, "abc", true},
		{settings.KeySound, "maybe", true},
		{"theme", "dark", true},
		{settings.KeyWork, "120", false},
		{settings.KeyShortBreak, "10", false},
		{settings.KeyNotifications, "false", false},
	}
	for _, tt := range tests {
		before := f.eng.Settings()
		err := f.eng.SetSetting(tt.key, tt.raw)
		if tt.wantErr {
			if !domain.IsValidation(err) {
				t.Fatalf("SetSetting(%s, %s): expected validation error, got %v", tt.key, tt.raw, err)
			}
			if f.eng.Settings() != before {
				t.Fatalf("SetSetting(%s, %s) changed settings", tt.key, tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SetSetting(%s, %s): %v", tt.key, tt.raw, err)
		}
	}

	cfg := f.eng.Settings()
	if cfg.WorkMinutes != 90 || cfg.ShortBreakMinutes != 10 || cfg.NotificationsEnabled {
		t.Fatalf("unexpected settings %+v", cfg)
	}
	if snap := f.eng.Snapshot(); snap.Timer.TotalSeconds != 90*60 {
		t.Fatalf("idle timer should adopt new duration, got %d", snap.Timer.TotalSeconds)
	}
	var stored settings.Settings
	json.Unmarshal([]byte(f.store.raw(store.KeySettings)), &stored)
	if stored != cfg {
		t.Fatalf("settings not persisted: %+v", stored)
	}
}

func TestUpdateSettingsRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	cfg := f.eng.Settings()
	cfg.SessionsBeforeLong = 1
	if err := f.eng.UpdateSettings(cfg); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResetAllData(t *testing.T) {
	f := newFixture(t, nil)
	f.load(t)
	f.eng.SetSetting(settings.KeyWork, "40")
	f.eng.AddTask("a", 1)
	f.eng.Skip()
	f.eng.Start()

	if err := f.eng.ResetAllData(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, key := range store.Keys {
		if f.store.raw(key) != "" {
			t.Fatalf("%q not deleted", key)
		}
	}
	snap := f.eng.Snapshot()
	if snap.Settings != settings.Defaults() || len(snap.Tasks) != 0 || snap.Today != (stats.DayStats{}) || snap.Streak != 0 {
		t.Fatalf("state not reset: %+v", snap)
	}
	if snap.Timer.Mode != pomodoro.Work || snap.Timer.Running || snap.Timer.CurrentSessionIndex != 1 {
		t.Fatalf("timer not reset: %+v", snap.Timer)
	}
	if f.sched.ticking {
		t.Fatal("ticker still running")
	}
}

// ============================================================
// SQLite round trip
// ============================================================

func TestPersistenceRoundTrip(t *testing.T) {
	db, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	w := store.NewWriter(db, nil)
	w.Start(ctx)
	e := New(w, nil, WithClock(clock.NewManual(testNow)), WithLocation(time.UTC))
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}
	task, _ := e.AddTask("Write report", 3)
	e.Skip()
	if err := w.Close(ctx); err != nil {
		t.Fatal(err)
	}

	e2 := New(db, nil, WithClock(clock.NewManual(testNow)), WithLocation(time.UTC))
	if err := e2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	snap := e2.Snapshot()
	if snap.Active == nil || snap.Active.ID != task.ID || snap.Active.CompletedPomodoros != 1 {
		t.Fatalf("task not restored: %+v", snap.Active)
	}
	if snap.Today.Sessions != 1 || snap.Streak != 1 {
		t.Fatalf("stats not restored: %+v streak %d", snap.Today, snap.Streak)
	}
}
