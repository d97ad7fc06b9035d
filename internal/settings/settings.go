// Package settings defines the user-editable timer configuration and its
// validation rules.
package settings

import (
	"strconv"
	"strings"

	"github.com/sadopc/focusflow/internal/domain"
)

// Setting keys accepted by Set.
const (
	KeyWork               = "work"
	KeyShortBreak         = "shortBreak"
	KeyLongBreak          = "longBreak"
	KeySessionsBeforeLong = "sessionsBeforeLong"
	KeyAutoStartBreaks    = "autoStartBreaks"
	KeyAutoStartWork      = "autoStartPomodoros"
	KeyNotifications      = "notifications"
	KeySound              = "sound"
)

// Settings is the persisted timer configuration. JSON names match the
// stored document.
type Settings struct {
	WorkMinutes          int  `json:"work"`
	ShortBreakMinutes    int  `json:"shortBreak"`
	LongBreakMinutes     int  `json:"longBreak"`
	SessionsBeforeLong   int  `json:"sessionsBeforeLong"`
	AutoStartBreaks      bool `json:"autoStartBreaks"`
	AutoStartWork        bool `json:"autoStartPomodoros"`
	NotificationsEnabled bool `json:"notifications"`
	SoundEnabled         bool `json:"sound"`
}

type limit struct{ min, max int }

var limits = map[string]limit{
	KeyWork:               {1, 90},
	KeyShortBreak:         {1, 30},
	KeyLongBreak:          {1, 60},
	KeySessionsBeforeLong: {2, 8},
}

// Defaults returns the compiled-in settings.
func Defaults() Settings {
	return Settings{
		WorkMinutes:          25,
		ShortBreakMinutes:    5,
		LongBreakMinutes:     15,
		SessionsBeforeLong:   4,
		AutoStartBreaks:      true,
		AutoStartWork:        false,
		NotificationsEnabled: true,
		SoundEnabled:         true,
	}
}

// Validate checks the lower bounds. Values above the upper limits are not an
// error; Normalize clamps them.
func (s Settings) Validate() error {
	checks := []struct {
		key string
		v   int
	}{
		{KeyWork, s.WorkMinutes},
		{KeyShortBreak, s.ShortBreakMinutes},
		{KeyLongBreak, s.LongBreakMinutes},
		{KeySessionsBeforeLong, s.SessionsBeforeLong},
	}
	for _, c := range checks {
		if min := limits[c.key].min; c.v < min {
			return domain.Invalid(c.key, "must be at least %d, got %d", min, c.v)
		}
	}
	return nil
}

// Normalize clamps numeric fields into their allowed ranges.
func (s Settings) Normalize() Settings {
	s.WorkMinutes = clamp(KeyWork, s.WorkMinutes)
	s.ShortBreakMinutes = clamp(KeyShortBreak, s.ShortBreakMinutes)
	s.LongBreakMinutes = clamp(KeyLongBreak, s.LongBreakMinutes)
	s.SessionsBeforeLong = clamp(KeySessionsBeforeLong, s.SessionsBeforeLong)
	return s
}

// Merge repairs a stored document that was decoded on top of Defaults():
// numeric fields below their minimum fall back to the default value and
// values above the maximum are clamped.
func Merge(stored Settings) Settings {
	out := Defaults()
	pick := func(key string, v int, dst *int) {
		if v >= limits[key].min {
			*dst = clamp(key, v)
		}
	}
	pick(KeyWork, stored.WorkMinutes, &out.WorkMinutes)
	pick(KeyShortBreak, stored.ShortBreakMinutes, &out.ShortBreakMinutes)
	pick(KeyLongBreak, stored.LongBreakMinutes, &out.LongBreakMinutes)
	pick(KeySessionsBeforeLong, stored.SessionsBeforeLong, &out.SessionsBeforeLong)
	out.AutoStartBreaks = stored.AutoStartBreaks
	out.AutoStartWork = stored.AutoStartWork
	out.NotificationsEnabled = stored.NotificationsEnabled
	out.SoundEnabled = stored.SoundEnabled
	return out
}

// Set applies a single edit given as text, the way a form field delivers it.
// Numeric values below the minimum or non-numeric input are rejected;
// values above the maximum are clamped.
func (s Settings) Set(key, raw string) (Settings, error) {
	raw = strings.TrimSpace(raw)
	if lim, ok := limits[key]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return s, domain.Invalid(key, "%q is not a number", raw)
		}
		if n < lim.min {
			return s, domain.Invalid(key, "must be at least %d, got %d", lim.min, n)
		}
		n = clamp(key, n)
		switch key {
		case KeyWork:
			s.WorkMinutes = n
		case KeyShortBreak:
			s.ShortBreakMinutes = n
		case KeyLongBreak:
			s.LongBreakMinutes = n
		case KeySessionsBeforeLong:
			s.SessionsBeforeLong = n
		}
		return s, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return s, domain.Invalid(key, "%q is not a boolean", raw)
	}
	switch key {
	case KeyAutoStartBreaks:
		s.AutoStartBreaks = b
	case KeyAutoStartWork:
		s.AutoStartWork = b
	case KeyNotifications:
		s.NotificationsEnabled = b
	case KeySound:
		s.SoundEnabled = b
	default:
		return s, domain.Invalid("setting", "unknown key %q", key)
	}
	return s, nil
}

// Range returns the allowed range for a numeric key.
func Range(key string) (min, max int, ok bool) {
	lim, ok := limits[key]
	return lim.min, lim.max, ok
}

func clamp(key string, v int) int {
	lim := limits[key]
	if v < lim.min {
		return lim.min
	}
	if v > lim.max {
		return lim.max
	}
	return v
}
