package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
	"github.com/sadopc/sidedock/internal/tasks"
)

// Version is the export document version written by Export.
const Version = 1

// ErrMalformed is returned by Import when the document has no usable days
// array. Nothing has been cleared when it is returned.
var ErrMalformed = errors.New("malformed import")

// Store is what export and import need from persistence.
type Store interface {
	ListAllDays() ([]store.DayRecord, error)
	LastOpenedDate() (string, error)
	ReplaceAll(days []store.DayRecord, meta map[string]any) error
}

type Document struct {
	Version    int               `json:"version"`
	ExportedAt int64             `json:"exportedAt"`
	Days       []store.DayRecord `json:"days"`
	Meta       Meta              `json:"meta"`
}

type Meta struct {
	LastOpenedDate *string `json:"lastOpenedDate,omitempty"`
}

// Export writes every day record and the last opened date as indented JSON.
func Export(st Store, at time.Time, w io.Writer) error {
	days, err := st.ListAllDays()
	if err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	if days == nil {
		days = []store.DayRecord{}
	}
	last, err := st.LastOpenedDate()
	if err != nil {
		return fmt.Errorf("read last opened date: %w", err)
	}

	doc := Document{Version: Version, ExportedAt: clock.Millis(at), Days: days}
	if last != "" {
		doc.Meta.LastOpenedDate = &last
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func ToJSON(st Store, at time.Time, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	if err := Export(st, at, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// importDoc keeps tasks raw so older shapes can be migrated.
type importDoc struct {
	Days *[]importDay `json:"days"`
	Meta struct {
		LastOpenedDate *string `json:"lastOpenedDate"`
	} `json:"meta"`
}

type importDay struct {
	Date      string            `json:"date"`
	Tasks     []json.RawMessage `json:"tasks"`
	UpdatedAt int64             `json:"updatedAt"`
}

// legacyTask exposes the fields whose absence or older form needs migrating.
type legacyTask struct {
	Done     *bool   `json:"done"`
	Status   *string `json:"status"`
	Priority *int    `json:"priority"`
}

// Import validates the document, migrates legacy task shapes and replaces
// all days, meta, focus sessions and completion logs with its contents.
// It returns the number of days imported.
func Import(st Store, r io.Reader) (int, error) {
	var doc importDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Days == nil {
		return 0, fmt.Errorf("%w: missing days", ErrMalformed)
	}

	days := make([]store.DayRecord, 0, len(*doc.Days))
	for _, d := range *doc.Days {
		if _, err := clock.ParseDateKey(d.Date); err != nil {
			return 0, fmt.Errorf("%w: bad date %q", ErrMalformed, d.Date)
		}
		rec := store.DayRecord{Date: d.Date, UpdatedAt: d.UpdatedAt, Tasks: []store.Task{}}
		for _, raw := range d.Tasks {
			t, err := migrateTask(raw)
			if err != nil {
				return 0, fmt.Errorf("%w: task on %s: %v", ErrMalformed, d.Date, err)
			}
			rec.Tasks = append(rec.Tasks, t)
		}
		days = append(days, rec)
	}

	meta := map[string]any{}
	if doc.Meta.LastOpenedDate != nil {
		meta[store.MetaLastOpenedDate] = *doc.Meta.LastOpenedDate
	}
	if err := st.ReplaceAll(days, meta); err != nil {
		return 0, fmt.Errorf("replace data: %w", err)
	}
	return len(days), nil
}

func FromJSON(st Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open json file: %w", err)
	}
	defer f.Close()
	return Import(st, f)
}

func migrateTask(raw json.RawMessage) (store.Task, error) {
	var t store.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, err
	}
	var old legacyTask
	if err := json.Unmarshal(raw, &old); err != nil {
		return t, err
	}

	if old.Status == nil || !t.Status.Valid() {
		t.Status = store.StatusInProgress
		if old.Done != nil && *old.Done {
			t.Status = store.StatusDone
		}
	}
	if old.Priority == nil || !t.Priority.Valid() {
		t.Priority = store.PriorityLow
	}
	if t.EstimateMinutes <= 0 {
		t.EstimateMinutes = store.EstimateNone
	} else {
		t.EstimateMinutes = store.SnapEstimate(int(t.EstimateMinutes))
	}
	if t.Subtasks == nil {
		t.Subtasks = []store.Subtask{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Title == "" {
		t.Title = tasks.Untitled
	}
	return t, nil
}
