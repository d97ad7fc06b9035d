// Package engine wires the session machine, statistics and task registry to
// persistence, notifications and sound.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/domain"
	"github.com/sadopc/focusflow/internal/logger"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/settings"
	"github.com/sadopc/focusflow/internal/stats"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/tasks"
)

// Scheduler drives time for the engine. The host delivers ticks by calling
// Engine.Tick with the generation it was given, and fires auto-starts with
// Engine.AutoStart.
type Scheduler interface {
	StartTicker(generation uint64)
	StopTicker()
	ScheduleAutoStart(token uint64, delay time.Duration)
	CancelAutoStart(token uint64)
}

type nopScheduler struct{}

func (nopScheduler) StartTicker(uint64)                       {}
func (nopScheduler) StopTicker()                              {}
func (nopScheduler) ScheduleAutoStart(uint64, time.Duration) {}
func (nopScheduler) CancelAutoStart(uint64)                   {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }

type nopSound struct{}

func (nopSound) PlayChime(context.Context) error { return nil }

// Option configures the engine.
type Option func(*Engine)

// WithNotifier sets the notification sink.
func WithNotifier(n domain.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithSound sets the chime player.
func WithSound(s domain.Sound) Option {
	return func(e *Engine) { e.sound = s }
}

// WithScheduler sets the ticker/auto-start host.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLocation sets the zone used for statistics day keys.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithAutoStartDelay sets the pause before an automatic phase start.
func WithAutoStartDelay(d time.Duration) Option {
	return func(e *Engine) { e.autoStartDelay = d }
}

// Engine owns all focus state. Not safe for concurrent use: the host calls
// one method at a time.
type Engine struct {
	store    domain.Store
	notifier domain.Notifier
	sound    domain.Sound
	sched    Scheduler
	log      *logger.Logger
	clock    clock.Clock
	loc      *time.Location

	autoStartDelay time.Duration

	settings settings.Settings
	machine  *pomodoro.Machine
	stats    *stats.Engine
	tasks    *tasks.Registry
}

// New creates an engine with default state. Call Load to restore persisted
// data.
func New(st domain.Store, log *logger.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	e := &Engine{
		store:          st,
		notifier:       nopNotifier{},
		sound:          nopSound{},
		sched:          nopScheduler{},
		log:            log,
		clock:          clock.System{},
		loc:            time.Local,
		autoStartDelay: pomodoro.DefaultAutoStartDelay,
		settings:       settings.Defaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stats = stats.New(e.loc)
	e.tasks = tasks.NewRegistry(e.stats, tasks.WithClock(e.clock))
	e.machine = pomodoro.New(e.settings,
		pomodoro.WithClock(e.clock),
		pomodoro.WithAutoStartDelay(e.autoStartDelay),
	)
	return e
}

// Load restores every document from the store. A document that is missing,
// unreadable or corrupt is replaced by its default, which is written back
// immediately. The returned error joins the read and decode failures (a
// missing document is not one); the engine is usable either way.
func (e *Engine) Load(ctx context.Context) error {
	var errs []error
	fallback := func(key string, err error, def any) {
		if !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
		}
		e.persist(key, def)
	}

	cfg := settings.Defaults()
	if err := e.load(ctx, store.KeySettings, &cfg); err != nil {
		cfg = settings.Defaults()
		fallback(store.KeySettings, err, cfg)
	}
	cfg = settings.Merge(cfg)

	var list []tasks.Task
	if err := e.load(ctx, store.KeyTasks, &list); err != nil {
		list = nil
		fallback(store.KeyTasks, err, []tasks.Task{})
	}

	days := map[string]stats.DayStats{}
	if err := e.load(ctx, store.KeyStats, &days); err != nil {
		days = map[string]stats.DayStats{}
		fallback(store.KeyStats, err, days)
	}

	var streak stats.Streak
	if err := e.load(ctx, store.KeyStreak, &streak); err != nil {
		streak = stats.Streak{}
		fallback(store.KeyStreak, err, streak)
	}

	var activeID *string
	if err := e.load(ctx, store.KeyActiveTaskID, &activeID); err != nil {
		activeID = nil
		fallback(store.KeyActiveTaskID, err, nil)
	}

	e.settings = cfg
	e.stats.Restore(days, streak)
	id := ""
	if activeID != nil {
		id = *activeID
	}
	e.tasks.Restore(list, id)
	e.apply(e.machine.Restart(cfg))

	e.log.Info("loaded %d tasks, %d days of stats, streak %d", len(e.tasks.Tasks()), len(days), streak.Count)
	return errors.Join(errs...)
}

// load decodes key into v. A missing key is reported as domain.ErrNotFound.
func (e *Engine) load(ctx context.Context, key string, v any) error {
	data, ok, err := e.store.Get(ctx, key)
	if err != nil {
		e.log.Warn("load %s: %v, using defaults", key, err)
		return fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		e.log.Debug("load %s: not stored yet, using defaults", key)
		return fmt.Errorf("load %s: %w", key, domain.ErrNotFound)
	}
	if err := json.Unmarshal(data, v); err != nil {
		e.log.Warn("load %s: corrupt document: %v, using defaults", key, err)
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// persist queues v under key. Failures are logged; in-memory state stays
// authoritative.
func (e *Engine) persist(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		e.log.Error("encode %s: %v", key, err)
		return
	}
	if err := e.store.Set(context.Background(), key, data); err != nil {
		e.log.Error("persist %s: %v", key, err)
	}
}

func (e *Engine) persistTasks() {
	e.persist(store.KeyTasks, e.tasks.Tasks())
	if id := e.tasks.ActiveID(); id != "" {
		e.persist(store.KeyActiveTaskID, id)
	} else {
		e.persist(store.KeyActiveTaskID, nil)
	}
}

func (e *Engine) persistStats() {
	e.persist(store.KeyStats, e.stats.Document())
	e.persist(store.KeyStreak, e.stats.Streak())
}

// apply carries out machine effects in order.
func (e *Engine) apply(effects []pomodoro.Effect) {
	ctx := context.Background()
	for _, eff := range effects {
		switch eff.Kind {
		case pomodoro.EffectStartTicker:
			e.sched.StartTicker(eff.Generation)
		case pomodoro.EffectStopTicker:
			e.sched.StopTicker()
		case pomodoro.EffectScheduleAutoStart:
			e.sched.ScheduleAutoStart(eff.Token, eff.Delay)
		case pomodoro.EffectCancelAutoStart:
			e.sched.CancelAutoStart(eff.Token)
		case pomodoro.EffectPlayChime:
			if err := e.sound.PlayChime(ctx); err != nil {
				e.log.Warn("play chime: %v", err)
			}
		case pomodoro.EffectNotify:
			if err := e.notifier.Notify(ctx, eff.Title, eff.Body); err != nil {
				e.log.Debug("notify: %v", err)
			}
		case pomodoro.EffectWorkCompleted:
			e.stats.RecordWorkSession(eff.At, eff.Minutes)
			e.tasks.AttributePomodoro()
			e.persistStats()
			e.persistTasks()
			e.log.Info("work session completed (%d min)", eff.Minutes)
		case pomodoro.EffectPhaseChanged:
			e.log.Debug("phase %s -> %s", eff.From, eff.To)
		case pomodoro.EffectDisplay:
		}
	}
}

// Start begins or resumes the timer.
func (e *Engine) Start() { e.apply(e.machine.Start()) }

// Pause pauses a running timer.
func (e *Engine) Pause() { e.apply(e.machine.Pause()) }

// Toggle pauses a ticking timer and starts it otherwise.
func (e *Engine) Toggle() { e.apply(e.machine.Toggle()) }

// Reset refills the current phase.
func (e *Engine) Reset() { e.apply(e.machine.Reset()) }

// Skip completes the current phase now.
func (e *Engine) Skip() { e.apply(e.machine.Skip()) }

// SwitchMode selects a phase while the timer is idle.
func (e *Engine) SwitchMode(mode pomodoro.Mode) { e.apply(e.machine.SwitchMode(mode)) }

// Tick delivers one second for ticker generation gen. Stale generations are
// dropped and reported as false.
func (e *Engine) Tick(gen uint64, now time.Time) bool {
	if gen != e.machine.Generation() || !e.machine.Ticking() {
		return false
	}
	e.apply(e.machine.Tick(now))
	return true
}

// AutoStart fires a scheduled auto-start. Cancelled tokens are ignored.
func (e *Engine) AutoStart(token uint64) bool {
	effects := e.machine.AutoStart(token)
	e.apply(effects)
	return effects != nil
}

// Ticking reports whether the host should keep delivering ticks.
func (e *Engine) Ticking() bool { return e.machine.Ticking() }

// Generation is the currently valid ticker generation.
func (e *Engine) Generation() uint64 { return e.machine.Generation() }

// AddTask creates a task. Returns a *domain.ValidationError for bad input.
func (e *Engine) AddTask(name string, estimated int) (tasks.Task, error) {
	t, err := e.tasks.AddTask(name, estimated)
	if err != nil {
		return tasks.Task{}, err
	}
	e.persistTasks()
	e.log.Debug("added task %s %q", t.ID, t.Name)
	return t, nil
}

// ToggleTask flips a task's completion state.
func (e *Engine) ToggleTask(id string) bool {
	if !e.tasks.ToggleTask(id) {
		return false
	}
	e.persistTasks()
	e.persistStats()
	return true
}

// DeleteTask removes a task.
func (e *Engine) DeleteTask(id string) bool {
	if !e.tasks.DeleteTask(id) {
		return false
	}
	e.persistTasks()
	return true
}

// SetActiveTask selects the task that receives completed pomodoros.
func (e *Engine) SetActiveTask(id string) bool {
	if !e.tasks.SetActiveTask(id) {
		return false
	}
	e.persistTasks()
	return true
}

// UpdateSettings replaces the settings. Values below their minimum are
// rejected; values above the maximum are clamped.
func (e *Engine) UpdateSettings(cfg settings.Settings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg = cfg.Normalize()
	e.settings = cfg
	e.apply(e.machine.ApplySettings(cfg))
	e.persist(store.KeySettings, cfg)
	return nil
}

// SetSetting applies a single textual edit, as delivered by a form field.
func (e *Engine) SetSetting(key, raw string) error {
	cfg, err := e.settings.Set(key, raw)
	if err != nil {
		return err
	}
	return e.UpdateSettings(cfg)
}

// ResetAllData deletes every stored document and returns to defaults.
func (e *Engine) ResetAllData(ctx context.Context) error {
	var errs []error
	for _, key := range store.Keys {
		if err := e.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	e.settings = settings.Defaults()
	e.stats.Restore(nil, stats.Streak{})
	e.tasks.Clear()
	e.apply(e.machine.Restart(e.settings))
	e.log.Info("all data reset")
	return errors.Join(errs...)
}

// Settings returns the current settings.
func (e *Engine) Settings() settings.Settings { return e.settings }

// Days lists the statistics history in date order.
func (e *Engine) Days() []stats.Day { return e.stats.Days() }

// Now returns the engine clock's time.
func (e *Engine) Now() time.Time { return e.clock.Now() }
