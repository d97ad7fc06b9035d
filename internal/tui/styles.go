package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#E0604F")
	colorShort     = lipgloss.Color("#2EC4B6")
	colorLong      = lipgloss.Color("#7AA2F7")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#BB9AF7")
)

var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	doneItemStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)
)

// modeColor is the accent for a timer phase.
func modeColor(m pomodoro.Mode) lipgloss.Color {
	switch m {
	case pomodoro.ShortBreak:
		return colorShort
	case pomodoro.LongBreak:
		return colorLong
	default:
		return colorPrimary
	}
}

// timerStyle renders the countdown for the given state.
func timerStyle(st pomodoro.State) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Align(lipgloss.Center)
	switch {
	case st.Paused:
		return s.Foreground(colorWarning)
	case st.Running:
		return s.Foreground(modeColor(st.Mode))
	default:
		return s.Foreground(colorFg)
	}
}
