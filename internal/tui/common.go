package tui

import (
	"fmt"
	"time"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewStats
	viewSettings
	viewHelp
)

var viewNames = []string{"Timer", "Tasks", "Stats", "Settings", "Help"}

// --- Messages ---

type tickMsg struct {
	gen uint64
	at  time.Time
}

type autoStartMsg struct {
	token uint64
}

type notifyMsg struct {
	title string
	body  string
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// formatClock renders a countdown as MM:SS. Minutes may exceed 59.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

