package pomodoro

import "time"

// EffectKind identifies what the host must do for an Effect.
type EffectKind int

const (
	// EffectStartTicker asks the host to deliver ticks tagged with Generation.
	EffectStartTicker EffectKind = iota
	// EffectStopTicker asks the host to stop delivering ticks.
	EffectStopTicker
	// EffectScheduleAutoStart asks the host to call AutoStart(Token) after Delay.
	EffectScheduleAutoStart
	// EffectCancelAutoStart withdraws a previously scheduled auto-start.
	EffectCancelAutoStart
	// EffectPlayChime asks for the completion sound.
	EffectPlayChime
	// EffectNotify asks for a desktop notification with Title and Body.
	EffectNotify
	// EffectWorkCompleted reports a finished work phase of Minutes at At.
	EffectWorkCompleted
	// EffectPhaseChanged reports a mode transition From -> To.
	EffectPhaseChanged
	// EffectDisplay signals that the visible timer state changed.
	EffectDisplay
)

var effectNames = map[EffectKind]string{
	EffectStartTicker:       "start_ticker",
	EffectStopTicker:        "stop_ticker",
	EffectScheduleAutoStart: "schedule_autostart",
	EffectCancelAutoStart:   "cancel_autostart",
	EffectPlayChime:         "play_chime",
	EffectNotify:            "notify",
	EffectWorkCompleted:     "work_completed",
	EffectPhaseChanged:      "phase_changed",
	EffectDisplay:           "display",
}

func (k EffectKind) String() string {
	if s, ok := effectNames[k]; ok {
		return s
	}
	return "unknown"
}

// Effect is one step of the ordered side-effect list a transition returns.
// Only the fields relevant to Kind are set.
type Effect struct {
	Kind       EffectKind
	Generation uint64
	Token      uint64
	Delay      time.Duration
	Title      string
	Body       string
	Minutes    int
	At         time.Time
	From       Mode
	To         Mode
}
