// Package export writes the statistics history to CSV or JSON files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/focusflow/internal/stats"
)

// ToCSV writes one row per recorded day.
func ToCSV(days []stats.Day, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Focus (min)", "Focus", "Sessions", "Tasks Completed"}); err != nil {
		return err
	}

	for _, d := range days {
		row := []string{
			d.Date,
			strconv.Itoa(d.FocusMinutes),
			FormatMinutes(d.FocusMinutes),
			strconv.Itoa(d.Sessions),
			strconv.Itoa(d.TasksCompleted),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatMinutes renders a minute count as "1h 5m" or "25m".
func FormatMinutes(mins int) string {
	h := mins / 60
	m := mins % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
