package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/tasks"
)

type tasksModel struct {
	eng    *engine.Engine
	width  int
	height int
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName     *string
	formEstimate *int
}

func newTasksModel(e *engine.Engine) tasksModel {
	name, est := "", 1
	return tasksModel{
		eng:          e,
		formName:     &name,
		formEstimate: &est,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	list := m.eng.Snapshot().Tasks
	m.cursor = clampCursor(m.cursor, len(list))

	switch {
	case key.Matches(km, keys.New):
		return m.showForm()
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(list)-1 {
			m.cursor++
		}
	}
	if len(list) == 0 {
		return m, nil
	}
	sel := list[m.cursor]

	switch {
	case key.Matches(km, keys.Done):
		m.eng.ToggleTask(sel.ID)
	case key.Matches(km, keys.Activate):
		if sel.Completed {
			return m, statusCmd("Completed tasks cannot be focused", true)
		}
		m.eng.SetActiveTask(sel.ID)
	case key.Matches(km, keys.Delete):
		m.eng.DeleteTask(sel.ID)
		m.cursor = clampCursor(m.cursor, len(list)-1)
	}
	return m, nil
}

func (m tasksModel) showForm() (tasksModel, tea.Cmd) {
	*m.formName = ""
	*m.formEstimate = 1

	opts := make([]huh.Option[int], 0, tasks.MaxEstimate)
	for n := tasks.MinEstimate; n <= tasks.MaxEstimate; n++ {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d × 🍅", n), n))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").
				Placeholder("What are you working on?").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}).
				Value(m.formName),
			huh.NewSelect[int]().Title("Estimated pomodoros").Options(opts...).Value(m.formEstimate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		t, err := m.eng.AddTask(*m.formName, *m.formEstimate)
		if err != nil {
			return m, statusCmd(err.Error(), true)
		}
		return m, statusCmd("Added "+t.Name, false)
	}

	return m, cmd
}

func (m tasksModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	snap := m.eng.Snapshot()
	title := titleStyle.Render("Tasks") +
		mutedStyle.Render(fmt.Sprintf("  %d pending · %d done", len(snap.Pending), len(snap.Completed)))

	if len(snap.Tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	cursor := clampCursor(m.cursor, len(snap.Tasks))
	activeID := ""
	if snap.Active != nil {
		activeID = snap.Active.ID
	}

	rows := []string{title, ""}
	for i, t := range snap.Tasks {
		rows = append(rows, renderTaskRow(t, i == cursor, t.ID == activeID))
	}
	rows = append(rows, "", mutedStyle.Render("n: new  x: done  a: focus  d: delete"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderTaskRow(t tasks.Task, selected, active bool) string {
	prefix := "  "
	if selected {
		prefix = "> "
	}
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	marker := " "
	if active {
		marker = "▶"
	}
	count := fmt.Sprintf("%d/%d", t.CompletedPomodoros, t.EstimatedPomodoros)

	name := t.Name
	style := normalItemStyle
	switch {
	case t.Completed:
		style = doneItemStyle
	case selected:
		style = selectedItemStyle
	}
	line := fmt.Sprintf("%s%s %s ", prefix, check, marker) + style.Render(fmt.Sprintf("%-32s", name))
	if t.CompletedPomodoros > t.EstimatedPomodoros {
		return line + warningStyle.Render(count)
	}
	return line + mutedStyle.Render(count)
}
