package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/focusflow/internal/stats"
	"github.com/sadopc/focusflow/internal/tasks"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Totals     jsonTotals `json:"totals"`
	Days       []jsonDay  `json:"days"`
	Tasks      []jsonTask `json:"tasks,omitempty"`
}

type jsonTotals struct {
	FocusMinutes   int `json:"focus_minutes"`
	Sessions       int `json:"sessions"`
	TasksCompleted int `json:"tasks_completed"`
}

type jsonDay struct {
	Date           string `json:"date"`
	FocusMinutes   int    `json:"focus_minutes"`
	Focus          string `json:"focus"`
	Sessions       int    `json:"sessions"`
	TasksCompleted int    `json:"tasks_completed"`
}

type jsonTask struct {
	Name               string `json:"name"`
	EstimatedPomodoros int    `json:"estimated_pomodoros"`
	CompletedPomodoros int    `json:"completed_pomodoros"`
	Completed          bool   `json:"completed"`
	CreatedAt          string `json:"created_at"`
	CompletedAt        string `json:"completed_at,omitempty"`
}

// ToJSON writes the day history, lifetime totals and the task list.
func ToJSON(days []stats.Day, taskList []tasks.Task, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(days),
		Days:       []jsonDay{},
	}

	for _, d := range days {
		export.Totals.FocusMinutes += d.FocusMinutes
		export.Totals.Sessions += d.Sessions
		export.Totals.TasksCompleted += d.TasksCompleted
		export.Days = append(export.Days, jsonDay{
			Date:           d.Date,
			FocusMinutes:   d.FocusMinutes,
			Focus:          FormatMinutes(d.FocusMinutes),
			Sessions:       d.Sessions,
			TasksCompleted: d.TasksCompleted,
		})
	}

	for _, t := range taskList {
		jt := jsonTask{
			Name:               t.Name,
			EstimatedPomodoros: t.EstimatedPomodoros,
			CompletedPomodoros: t.CompletedPomodoros,
			Completed:          t.Completed,
			CreatedAt:          t.CreatedAt.Local().Format(time.RFC3339),
		}
		if t.CompletedAt != nil {
			jt.CompletedAt = t.CompletedAt.Local().Format(time.RFC3339)
		}
		export.Tasks = append(export.Tasks, jt)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
