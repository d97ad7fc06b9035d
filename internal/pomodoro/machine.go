// Package pomodoro implements the focus timer session state machine.
//
// The machine is pure: it never sleeps, starts goroutines or calls
// collaborators. Every command returns an ordered []Effect that the caller
// applies (start/stop the ticker, play the chime, record statistics, ...).
// Ticks arrive through Tick(now) from whatever clock drives the host.
package pomodoro

import (
	"fmt"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/settings"
)

// Mode is the timer phase type.
type Mode int

const (
	Work Mode = iota
	ShortBreak
	LongBreak
)

var modeNames = map[Mode]string{
	Work:       "work",
	ShortBreak: "shortBreak",
	LongBreak:  "longBreak",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// DefaultAutoStartDelay is the pause between a phase completing and an
// automatic start of the next one.
const DefaultAutoStartDelay = 500 * time.Millisecond

// State is the observable timer state.
type State struct {
	Mode                Mode
	Running             bool
	Paused              bool
	RemainingSeconds    int
	TotalSeconds        int
	CurrentSessionIndex int
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the clock used to timestamp completions triggered by Skip.
func WithClock(c clock.Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithAutoStartDelay sets the delay carried by auto-start effects.
func WithAutoStartDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.autoStartDelay = d
	}
}

// Machine is the session state machine. Not safe for concurrent use; the
// host delivers one command at a time.
type Machine struct {
	cfg            settings.Settings
	state          State
	clock          clock.Clock
	autoStartDelay time.Duration

	generation uint64 // ticker generation, bumped on every start
	pending    uint64 // outstanding auto-start token, 0 when none
	lastToken  uint64
}

// New returns a machine in Ready/Work with a full work countdown.
func New(cfg settings.Settings, opts ...Option) *Machine {
	m := &Machine{
		cfg:            cfg,
		clock:          clock.System{},
		autoStartDelay: DefaultAutoStartDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.CurrentSessionIndex = 1
	m.setMode(Work)
	return m
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state }

// Settings returns the settings in effect.
func (m *Machine) Settings() settings.Settings { return m.cfg }

// Generation is the tag of the currently valid ticker. Ticks carrying any
// other generation are stale and must be dropped by the host.
func (m *Machine) Generation() uint64 { return m.generation }

// PendingAutoStart returns the outstanding auto-start token, or 0.
func (m *Machine) PendingAutoStart() uint64 { return m.pending }

// Ticking reports whether the ticker should be delivering ticks.
func (m *Machine) Ticking() bool { return m.state.Running && !m.state.Paused }

// Start begins or resumes the countdown.
func (m *Machine) Start() []Effect {
	effects := m.cancelPending(nil)
	return m.start(effects)
}

// Pause freezes a running countdown. No-op unless running and not paused.
func (m *Machine) Pause() []Effect {
	effects := m.cancelPending(nil)
	if !m.state.Running || m.state.Paused {
		return effects
	}
	m.state.Paused = true
	return append(effects, Effect{Kind: EffectStopTicker}, Effect{Kind: EffectDisplay})
}

// Toggle is the start/pause button: pause when ticking, start otherwise.
func (m *Machine) Toggle() []Effect {
	if m.Ticking() {
		return m.Pause()
	}
	return m.Start()
}

// Reset stops the countdown and refills it from the current settings.
func (m *Machine) Reset() []Effect {
	effects := m.cancelPending(nil)
	m.state.Running = false
	m.state.Paused = false
	m.setMode(m.state.Mode)
	return append(effects, Effect{Kind: EffectStopTicker}, Effect{Kind: EffectDisplay})
}

// Restart returns the machine to Ready/Work with session index 1 under
// cfg. The ticker generation keeps counting so ticks from before the
// restart stay stale.
func (m *Machine) Restart(cfg settings.Settings) []Effect {
	effects := m.cancelPending(nil)
	m.cfg = cfg
	m.state = State{CurrentSessionIndex: 1}
	m.setMode(Work)
	return append(effects, Effect{Kind: EffectStopTicker}, Effect{Kind: EffectDisplay})
}

// Skip completes the current phase immediately, exactly as if it expired.
// A phase that was never started still counts as completed.
func (m *Machine) Skip() []Effect {
	effects := m.cancelPending(nil)
	return m.complete(effects, m.clock.Now())
}

// Tick advances the countdown by one second. It is a no-op unless the
// timer is running and not paused.
func (m *Machine) Tick(now time.Time) []Effect {
	if !m.Ticking() {
		return nil
	}
	m.state.RemainingSeconds--
	if m.state.RemainingSeconds <= 0 {
		m.state.RemainingSeconds = 0
		return m.complete(nil, now)
	}
	return []Effect{{Kind: EffectDisplay}}
}

// SwitchMode selects a phase manually. Ignored while running or paused.
func (m *Machine) SwitchMode(mode Mode) []Effect {
	if m.state.Running {
		return nil
	}
	effects := m.cancelPending(nil)
	if _, ok := modeNames[mode]; !ok {
		return effects
	}
	from := m.state.Mode
	m.setMode(mode)
	// Index 0 only exists during a long break.
	if mode != LongBreak && m.state.CurrentSessionIndex == 0 {
		m.state.CurrentSessionIndex = 1
	}
	return append(effects,
		Effect{Kind: EffectPhaseChanged, From: from, To: mode},
		Effect{Kind: EffectDisplay},
	)
}

// AutoStart fires a deferred auto-start. Tokens that were cancelled or
// superseded are ignored.
func (m *Machine) AutoStart(token uint64) []Effect {
	if token == 0 || token != m.pending {
		return nil
	}
	m.pending = 0
	return m.start(nil)
}

// ApplySettings replaces the settings. An idle timer picks up the new
// duration for its mode immediately; a running or paused one keeps its
// countdown until the next phase.
func (m *Machine) ApplySettings(cfg settings.Settings) []Effect {
	m.cfg = cfg
	if !m.state.Running && !m.state.Paused {
		m.setMode(m.state.Mode)
	}
	return []Effect{{Kind: EffectDisplay}}
}

// Label is the human-readable timer status.
func (m *Machine) Label() string {
	switch {
	case m.state.Paused:
		return "Paused"
	case !m.state.Running:
		return "Ready to focus"
	}
	switch m.state.Mode {
	case ShortBreak:
		return "Short break"
	case LongBreak:
		return "Long break"
	default:
		return "Focusing"
	}
}

// Progress is the elapsed fraction of the current phase in [0, 1].
func (m *Machine) Progress() float64 {
	if m.state.TotalSeconds <= 0 {
		return 0
	}
	p := 1 - float64(m.state.RemainingSeconds)/float64(m.state.TotalSeconds)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Duration returns the configured length of mode.
func (m *Machine) Duration(mode Mode) time.Duration {
	return time.Duration(m.minutes(mode)) * time.Minute
}

func (m *Machine) start(effects []Effect) []Effect {
	if m.Ticking() {
		return effects
	}
	if m.state.Paused {
		m.state.Paused = false
	} else {
		m.state.Running = true
	}
	m.generation++
	return append(effects,
		Effect{Kind: EffectStartTicker, Generation: m.generation},
		Effect{Kind: EffectDisplay},
	)
}

func (m *Machine) complete(effects []Effect, now time.Time) []Effect {
	m.state.Running = false
	m.state.Paused = false
	effects = append(effects, Effect{Kind: EffectStopTicker})

	if m.cfg.SoundEnabled {
		effects = append(effects, Effect{Kind: EffectPlayChime})
	}

	from := m.state.Mode
	var next Mode
	var title, body string
	var autoStart bool

	if from == Work {
		if m.state.CurrentSessionIndex >= m.cfg.SessionsBeforeLong {
			next = LongBreak
			title = "Long break time!"
			body = fmt.Sprintf("Great work! You completed %d sessions. Take a longer break.", m.cfg.SessionsBeforeLong)
		} else {
			next = ShortBreak
			title = "Break time!"
			body = "Good job! Take a short break."
		}
		autoStart = m.cfg.AutoStartBreaks
	} else {
		next = Work
		title = "Break is over!"
		body = "Time to focus again."
		autoStart = m.cfg.AutoStartWork
	}

	if m.cfg.NotificationsEnabled {
		effects = append(effects, Effect{Kind: EffectNotify, Title: title, Body: body})
	}

	switch from {
	case Work:
		effects = append(effects, Effect{Kind: EffectWorkCompleted, Minutes: m.cfg.WorkMinutes, At: now})
		if next == LongBreak {
			// Becomes 1 once the long break completes.
			m.state.CurrentSessionIndex = 0
		}
	case LongBreak:
		m.state.CurrentSessionIndex = 1
	default:
		m.state.CurrentSessionIndex++
	}

	m.setMode(next)

	if autoStart {
		m.lastToken++
		m.pending = m.lastToken
		effects = append(effects, Effect{Kind: EffectScheduleAutoStart, Token: m.pending, Delay: m.autoStartDelay})
	}

	return append(effects,
		Effect{Kind: EffectPhaseChanged, From: from, To: next},
		Effect{Kind: EffectDisplay},
	)
}

func (m *Machine) cancelPending(effects []Effect) []Effect {
	if m.pending == 0 {
		return effects
	}
	token := m.pending
	m.pending = 0
	return append(effects, Effect{Kind: EffectCancelAutoStart, Token: token})
}

func (m *Machine) setMode(mode Mode) {
	m.state.Mode = mode
	m.state.TotalSeconds = int(m.Duration(mode) / time.Second)
	m.state.RemainingSeconds = m.state.TotalSeconds
}

func (m *Machine) minutes(mode Mode) int {
	switch mode {
	case ShortBreak:
		return m.cfg.ShortBreakMinutes
	case LongBreak:
		return m.cfg.LongBreakMinutes
	default:
		return m.cfg.WorkMinutes
	}
}
