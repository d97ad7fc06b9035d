package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/engine"
	"github.com/sadopc/focusflow/internal/export"
	"github.com/sadopc/focusflow/internal/stats"
)

type statsModel struct {
	eng    *engine.Engine
	width  int
	height int
}

func newStatsModel(e *engine.Engine) statsModel {
	return statsModel{eng: e}
}

func (m *statsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m statsModel) buildChart(week []stats.DayPoint, today string) barchart.Model {
	chartWidth := m.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if m.height > 30 {
		chartHeight = 14
	}

	chart := barchart.New(chartWidth, chartHeight)
	bars := make([]barchart.BarData, 0, len(week))
	for _, p := range week {
		style := lipgloss.NewStyle().Foreground(colorSubtle)
		if p.FocusMinutes > 0 {
			style = lipgloss.NewStyle().Foreground(colorShort)
		}
		if p.Date == today {
			style = lipgloss.NewStyle().Foreground(colorPrimary)
		}
		bars = append(bars, barchart.BarData{
			Label: p.Label,
			Values: []barchart.BarValue{{
				Name:  p.Date,
				Value: float64(p.FocusMinutes),
				Style: style,
			}},
		})
	}
	chart.PushAll(bars)
	chart.Draw()
	return chart
}

func (m statsModel) view() string {
	w := m.width - 4
	snap := m.eng.Snapshot()

	kpis := lipgloss.JoinHorizontal(lipgloss.Top,
		kpiCard("Focus today", export.FormatMinutes(snap.Today.FocusMinutes)),
		kpiCard("Sessions", fmt.Sprintf("%d", snap.Today.Sessions)),
		kpiCard("Tasks done", fmt.Sprintf("%d", snap.Today.TasksCompleted)),
		kpiCard("Streak", plural(snap.Streak, "day")),
	)

	weekTotal := 0
	for _, p := range snap.Week {
		weekTotal += p.FocusMinutes
	}
	chartTitle := titleStyle.Render("This week") +
		mutedStyle.Render("  "+export.FormatMinutes(weekTotal)+" focused (minutes per day)")
	chart := m.buildChart(snap.Week, snap.TodayKey)

	t := snap.Totals
	totals := mutedStyle.Render(fmt.Sprintf("All time: %s across %s · %s · %s completed",
		export.FormatMinutes(t.FocusMinutes),
		plural(t.ActiveDays, "day"),
		plural(t.Sessions, "session"),
		plural(t.TasksCompleted, "task"),
	))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Statistics"), "",
			kpis, "",
			chartTitle, chart.View(), "",
			totals,
		),
	)
}

func kpiCard(label, value string) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		subtitleStyle.Render(label),
		lipgloss.NewStyle().Bold(true).Foreground(colorFg).Render(value),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(0, 2).
		MarginRight(1).
		Width(18).
		Render(body)
}

