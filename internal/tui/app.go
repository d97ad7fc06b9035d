package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/export"
	"github.com/sadopc/focusflow/internal/logger"
	"github.com/sadopc/focusflow/internal/stats"
	"github.com/sadopc/focusflow/internal/tasks"
)

// Option configures an App.
type Option func(*App)

// WithExportDir sets where exports are written. Defaults to the home
// directory.
func WithExportDir(dir string) Option {
	return func(a *App) { a.exportDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) { a.log = l }
}

// App is the root Bubble Tea model.
type App struct {
	eng  *engine.Engine
	host *Host
	log  *logger.Logger

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	confirmReset  bool
	exportDir     string

	timer    timerModel
	tasks    tasksModel
	stats    statsModel
	settings settingsModel
	guide    helpModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the UI around e. host must be the scheduler and notifier
// the engine was created with.
func NewApp(e *engine.Engine, host *Host, opts ...Option) App {
	h := help.New()
	h.ShowAll = false

	a := App{
		eng:        e,
		host:       host,
		log:        logger.Discard(),
		activeView: viewTimer,
		timer:      newTimerModel(e),
		tasks:      newTasksModel(e),
		stats:      newStatsModel(e),
		settings:   newSettingsModel(e),
		guide:      newHelpModel(),
		help:       h,
	}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func (a App) Init() tea.Cmd {
	return a.host.drain()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.update(msg)
	return model, tea.Batch(cmd, a.host.drain())
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.guide.setSize(a.width, contentHeight)
		return a, nil

	case tickMsg:
		if a.eng.Tick(msg.gen, msg.at) && a.eng.Ticking() && a.eng.Generation() == msg.gen {
			return a, a.host.tick(msg.gen)
		}
		return a, nil

	case autoStartMsg:
		a.eng.AutoStart(msg.token)
		return a, nil

	case notifyMsg:
		a.status = msg.title + " " + msg.body
		a.statusErr = false
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.confirmReset {
			return a.updateConfirmReset(msg)
		}

		// A child form captures all input until it closes.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.ResetData):
			a.confirmReset = true
			return a, nil
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewHelp
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewTasks:
		content = a.tasks.view()
	case viewStats:
		content = a.stats.view()
	case viewSettings:
		content = a.settings.view()
	case viewHelp:
		content = a.guide.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	switch {
	case a.exportPicking:
		content = a.renderExportPicker()
	case a.confirmReset:
		content = a.renderConfirmReset()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusflow")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator, visible from every view
	timerInfo := ""
	st := a.eng.Snapshot().Timer
	switch {
	case st.Paused:
		timerInfo = warningStyle.Render(" ⏸ " + formatClock(st.RemainingSeconds))
	case st.Running:
		timerInfo = successStyle.Render(" ● " + formatClock(st.RemainingSeconds))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// --- Reset all data ---

func (a App) renderConfirmReset() string {
	rows := []string{
		errorStyle.Bold(true).Render("Reset all data?"),
		"",
		"Settings, tasks, statistics and the streak will be deleted.",
		"",
		mutedStyle.Render("  y: reset  any other key: cancel"),
	}
	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateConfirmReset(msg tea.KeyMsg) (App, tea.Cmd) {
	a.confirmReset = false
	if !key.Matches(msg, keys.Confirm) {
		return a, nil
	}
	if err := a.eng.ResetAllData(context.Background()); err != nil {
		a.log.Error("reset data: %v", err)
		return a, statusCmd(fmt.Sprintf("Reset error: %v", err), true)
	}
	return a, statusCmd("All data reset", false)
}

// --- Export ---

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport copies the history on the update goroutine and writes it in a
// command.
func (a App) doExport(format int) tea.Cmd {
	days := a.eng.Days()
	snap := a.eng.Snapshot()
	dir := a.exportDir
	log := a.log
	return func() tea.Msg {
		path, err := writeExport(format, dir, snap.TodayKey, days, snap.Tasks)
		if err != nil {
			log.Error("export: %v", err)
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		log.Info("exported %d days to %s", len(days), path)
		return exportDoneMsg{path: path}
	}
}

func writeExport(format int, dir, date string, days []stats.Day, taskList []tasks.Task) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = home
	}
	if format == 0 {
		path := filepath.Join(dir, fmt.Sprintf("focusflow-export-%s.csv", date))
		return path, export.ToCSV(days, path)
	}
	path := filepath.Join(dir, fmt.Sprintf("focusflow-export-%s.json", date))
	return path, export.ToJSON(days, taskList, path)
}
