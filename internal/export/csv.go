package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

// TasksToCSV writes one row per task, days in the given order.
func TasksToCSV(days []store.DayRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Date", "ID", "Title", "Status", "Priority", "Estimate (min)", "Tags", "Carried From", "Created", "Note"}); err != nil {
		return err
	}

	for _, d := range days {
		for _, t := range d.Tasks {
			estimate := ""
			if t.EstimateMinutes != store.EstimateNone {
				estimate = fmt.Sprintf("%d", t.EstimateMinutes)
			}
			carried := ""
			if t.CarriedFrom != nil {
				carried = *t.CarriedFrom
			}
			row := []string{
				d.Date,
				t.ID,
				t.Title,
				string(t.Status),
				fmt.Sprintf("%d", t.Priority),
				estimate,
				strings.Join(t.Tags, " "),
				carried,
				formatMillis(t.CreatedAt),
				t.Note,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}

// SessionsToCSV writes one row per completed focus session.
func SessionsToCSV(sessions []store.FocusSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"ID", "Date", "Task ID", "Mode", "Planned (min)", "Start", "End", "Duration (s)", "Duration"}); err != nil {
		return err
	}

	for _, s := range sessions {
		taskID := ""
		if s.TaskID != nil {
			taskID = *s.TaskID
		}
		row := []string{
			s.ID,
			s.Date,
			taskID,
			string(s.Mode),
			fmt.Sprintf("%d", s.PlannedMinutes),
			formatMillis(s.StartedAt),
			formatMillis(s.EndedAt),
			fmt.Sprintf("%d", s.DurationSeconds),
			formatDuration(s.DurationSeconds),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return clock.FromMillis(ms).Format(time.RFC3339)
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
