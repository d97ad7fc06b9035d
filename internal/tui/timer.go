package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/pomodoro"
)

// timerModel is the main countdown view. All timer state lives in the
// engine; the model only handles keys and layout.
type timerModel struct {
	eng    *engine.Engine
	width  int
	height int
}

func newTimerModel(e *engine.Engine) timerModel {
	return timerModel{eng: e}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

var modeCycle = []pomodoro.Mode{pomodoro.Work, pomodoro.ShortBreak, pomodoro.LongBreak}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return t, nil
	}
	switch {
	case key.Matches(km, keys.Toggle):
		t.eng.Toggle()
	case key.Matches(km, keys.Reset):
		t.eng.Reset()
	case key.Matches(km, keys.Skip):
		t.eng.Skip()
	case key.Matches(km, keys.Mode):
		st := t.eng.Snapshot().Timer
		if st.Running {
			return t, statusCmd("Pause the timer before switching mode", true)
		}
		next := modeCycle[0]
		for i, m := range modeCycle {
			if m == st.Mode {
				next = modeCycle[(i+1)%len(modeCycle)]
			}
		}
		t.eng.SwitchMode(next)
	}
	return t, nil
}

func (t timerModel) view() string {
	snap := t.eng.Snapshot()
	st := snap.Timer
	w := t.width - 4
	if w < 20 {
		w = 20
	}
	inner := w - 6

	modeTitle := lipgloss.NewStyle().Bold(true).Foreground(modeColor(st.Mode)).
		Render(strings.ToUpper(modeName(st.Mode)))
	clock := timerStyle(st).Width(inner).Render(formatClock(st.RemainingSeconds))
	label := mutedStyle.Render(snap.Label)

	content := lipgloss.JoinVertical(lipgloss.Center,
		modeTitle,
		"",
		clock,
		label,
		"",
		renderBar(snap.Progress, inner-10, modeColor(st.Mode)),
		"",
		renderSessionDots(st, snap.Settings.SessionsBeforeLong),
		"",
		renderActiveTask(snap),
	)

	controls := mutedStyle.Render(timerControls(st, snap.AutoStartPending))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func modeName(m pomodoro.Mode) string {
	switch m {
	case pomodoro.ShortBreak:
		return "Short break"
	case pomodoro.LongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

func timerControls(st pomodoro.State, autoStart bool) string {
	switch {
	case autoStart && !st.Running:
		return "starting next phase…  space: start now  s: skip"
	case st.Paused:
		return "space: resume  r: reset  s: skip"
	case st.Running:
		return "space: pause  r: reset  s: skip"
	default:
		return "space: start  s: skip  m: mode"
	}
}

// renderBar draws a horizontal progress bar of the given width.
func renderBar(progress float64, width int, color lipgloss.Color) string {
	if width < 10 {
		width = 10
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar + mutedStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))
}

// renderSessionDots shows progress through the current cycle.
func renderSessionDots(st pomodoro.State, total int) string {
	if total < 1 {
		return ""
	}
	// Index 0 marks the long break that closes a full cycle. During a short
	// break the index still names the work session just finished.
	done := st.CurrentSessionIndex
	switch {
	case st.CurrentSessionIndex == 0:
		done = total
	case st.Mode == pomodoro.Work:
		done--
	}
	var parts []string
	for i := 0; i < total; i++ {
		switch {
		case i < done:
			parts = append(parts, successStyle.Render("●"))
		case i == done && st.Mode == pomodoro.Work && (st.Running || st.Paused):
			parts = append(parts, lipgloss.NewStyle().Foreground(colorPrimary).Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	session := st.CurrentSessionIndex
	if session == 0 {
		session = total
	}
	return strings.Join(parts, " ") + mutedStyle.Render(fmt.Sprintf("  session %d/%d", session, total))
}

func renderActiveTask(snap engine.Snapshot) string {
	if snap.Active == nil {
		return mutedStyle.Render("No active task (press 2 to pick one)")
	}
	a := snap.Active
	return highlightStyle.Render("▶ "+a.Name) +
		mutedStyle.Render(fmt.Sprintf("  %d/%d pomodoros", a.CompletedPomodoros, a.EstimatedPomodoros))
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}
