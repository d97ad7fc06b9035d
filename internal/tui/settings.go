package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/settings"
)

type settingsModel struct {
	eng    *engine.Engine
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	work          *string
	shortBreak    *string
	longBreak     *string
	sessions      *string
	autoBreaks    *bool
	autoWork      *bool
	notifications *bool
	sound         *bool
}

func newSettingsModel(e *engine.Engine) settingsModel {
	w, sb, lb, n := "", "", "", ""
	var ab, aw, nt, snd bool
	return settingsModel{
		eng:           e,
		work:          &w,
		shortBreak:    &sb,
		longBreak:     &lb,
		sessions:      &n,
		autoBreaks:    &ab,
		autoWork:      &aw,
		notifications: &nt,
		sound:         &snd,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Edit), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

// rangeValidator rejects input the settings package would refuse.
func rangeValidator(k string) func(string) error {
	return func(raw string) error {
		_, err := settings.Defaults().Set(k, raw)
		return err
	}
}

func rangeTitle(title, k string) string {
	lo, hi, _ := settings.Range(k)
	return fmt.Sprintf("%s (%d-%d)", title, lo, hi)
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.eng.Settings()
	*s.work = strconv.Itoa(cur.WorkMinutes)
	*s.shortBreak = strconv.Itoa(cur.ShortBreakMinutes)
	*s.longBreak = strconv.Itoa(cur.LongBreakMinutes)
	*s.sessions = strconv.Itoa(cur.SessionsBeforeLong)
	*s.autoBreaks = cur.AutoStartBreaks
	*s.autoWork = cur.AutoStartWork
	*s.notifications = cur.NotificationsEnabled
	*s.sound = cur.SoundEnabled

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(rangeTitle("Focus (min)", settings.KeyWork)).
				Validate(rangeValidator(settings.KeyWork)).Value(s.work),
			huh.NewInput().Title(rangeTitle("Short break (min)", settings.KeyShortBreak)).
				Validate(rangeValidator(settings.KeyShortBreak)).Value(s.shortBreak),
			huh.NewInput().Title(rangeTitle("Long break (min)", settings.KeyLongBreak)).
				Validate(rangeValidator(settings.KeyLongBreak)).Value(s.longBreak),
			huh.NewInput().Title(rangeTitle("Sessions before long break", settings.KeySessionsBeforeLong)).
				Validate(rangeValidator(settings.KeySessionsBeforeLong)).Value(s.sessions),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Auto-start breaks").Value(s.autoBreaks),
			huh.NewConfirm().Title("Auto-start pomodoros").Value(s.autoWork),
			huh.NewConfirm().Title("Notifications").Value(s.notifications),
			huh.NewConfirm().Title("Sound").Value(s.sound),
		).Title("Behaviour"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.save(); err != nil {
			return s, statusCmd(err.Error(), true)
		}
		return s, statusCmd("Settings saved", false)
	}

	return s, cmd
}

func (s settingsModel) save() error {
	cfg := s.eng.Settings()
	edits := []struct{ key, raw string }{
		{settings.KeyWork, *s.work},
		{settings.KeyShortBreak, *s.shortBreak},
		{settings.KeyLongBreak, *s.longBreak},
		{settings.KeySessionsBeforeLong, *s.sessions},
		{settings.KeyAutoStartBreaks, strconv.FormatBool(*s.autoBreaks)},
		{settings.KeyAutoStartWork, strconv.FormatBool(*s.autoWork)},
		{settings.KeyNotifications, strconv.FormatBool(*s.notifications)},
		{settings.KeySound, strconv.FormatBool(*s.sound)},
	}
	for _, e := range edits {
		var err error
		if cfg, err = cfg.Set(e.key, e.raw); err != nil {
			return err
		}
	}
	return s.eng.UpdateSettings(cfg)
}

func (s settingsModel) view() string {
	w := s.width - 4
	if s.formActive && s.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Edit Settings"), "", s.form.View())
		return panelStyle.Width(w).Render(content)
	}

	cur := s.eng.Settings()
	rows := []string{
		titleStyle.Render("Settings"),
		"",
		settingRow("Focus", fmt.Sprintf("%d min", cur.WorkMinutes)),
		settingRow("Short break", fmt.Sprintf("%d min", cur.ShortBreakMinutes)),
		settingRow("Long break", fmt.Sprintf("%d min", cur.LongBreakMinutes)),
		settingRow("Sessions before long break", strconv.Itoa(cur.SessionsBeforeLong)),
		"",
		settingRow("Auto-start breaks", onOff(cur.AutoStartBreaks)),
		settingRow("Auto-start pomodoros", onOff(cur.AutoStartWork)),
		settingRow("Notifications", onOff(cur.NotificationsEnabled)),
		settingRow("Sound", onOff(cur.SoundEnabled)),
		"",
		mutedStyle.Render("enter: edit  R: reset all data"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(label, value string) string {
	return "  " + mutedStyle.Render(fmt.Sprintf("%-30s", label)) + " " + highlightStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
