package rollover

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

// DefaultRetentionDays is how many calendar days the purge keeps.
const DefaultRetentionDays = 7

// Store is the persistence the engine needs.
type Store interface {
	GetDay(date string) (*store.DayRecord, error)
	GetOrCreateDay(date string) (*store.DayRecord, error)
	PutDay(rec *store.DayRecord) error
	ListAllDays() ([]store.DayRecord, error)
	DeleteDay(date string) error
	LastOpenedDate() (string, error)
	SetLastOpenedDate(date string) error
}

// Engine copies unfinished work forward when the day changes and prunes
// records outside the retention window.
type Engine struct {
	store     Store
	clock     clock.Clock
	log       *slog.Logger
	retention int
	newID     func() string
	onChange  func()
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithRetentionDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retention = n
		}
	}
}

func WithIDs(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

func New(st Store, c clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		clock:     c,
		log:       slog.Default(),
		retention: DefaultRetentionDays,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OnChange registers f to run after rollover or restore writes tasks.
func (e *Engine) OnChange(f func()) {
	e.onChange = f
}

// Check carries open tasks from the last opened day into today when the day
// key has changed, then records today as last opened. It returns the number
// of tasks copied. Only the immediately previous opened day is considered.
func (e *Engine) Check() (int, error) {
	today := clock.Today(e.clock)
	last, err := e.store.LastOpenedDate()
	if err != nil {
		return 0, fmt.Errorf("read last opened date: %w", err)
	}

	n := 0
	if last != "" && last != today {
		n, err = e.carry(last, today)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			e.log.Info("rollover", "from", last, "to", today, "carried", n)
		}
	}

	if last != today {
		if err := e.store.SetLastOpenedDate(today); err != nil {
			return n, fmt.Errorf("write last opened date: %w", err)
		}
	}
	return n, nil
}

// RestoreIncomplete copies the open tasks of an archived day into today
// with the same rules as rollover.
func (e *Engine) RestoreIncomplete(from string) (int, error) {
	today := clock.Today(e.clock)
	if from == today {
		return 0, nil
	}
	n, err := e.carry(from, today)
	if err != nil {
		return 0, err
	}
	e.log.Info("restored incomplete tasks", "from", from, "to", today, "count", n)
	return n, nil
}

// carry appends fresh copies of from's open tasks to to and persists to once.
func (e *Engine) carry(from, to string) (int, error) {
	src, err := e.store.GetDay(from)
	if err != nil {
		return 0, fmt.Errorf("get day %s: %w", from, err)
	}
	if src == nil {
		return 0, nil
	}

	var open []store.Task
	for _, t := range src.Tasks {
		if t.Status.Open() {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return 0, nil
	}

	dst, err := e.store.GetOrCreateDay(to)
	if err != nil {
		return 0, fmt.Errorf("get day %s: %w", to, err)
	}
	next := dst.MaxOrder() + 1
	now := clock.Millis(e.clock.Now())
	carried := from
	for i, t := range open {
		tags := make([]string, len(t.Tags))
		copy(tags, t.Tags)
		dst.Tasks = append(dst.Tasks, store.Task{
			ID:              e.newID(),
			Title:           t.Title,
			Status:          t.Status,
			Priority:        t.Priority,
			EstimateMinutes: t.EstimateMinutes,
			Tags:            tags,
			Order:           next + i,
			CreatedAt:       now,
			UpdatedAt:       now,
			CarriedFrom:     &carried,
			Subtasks:        []store.Subtask{},
		})
	}
	if err := e.store.PutDay(dst); err != nil {
		return 0, fmt.Errorf("save day %s: %w", to, err)
	}
	if e.onChange != nil {
		e.onChange()
	}
	return len(open), nil
}

// Purge deletes every day record older than the most recent retention
// days. Today and future-dated days are always kept.
func (e *Engine) Purge() (int, error) {
	recent := clock.RecentDates(e.clock.Now(), e.retention)
	oldest := recent[len(recent)-1]

	days, err := e.store.ListAllDays()
	if err != nil {
		return 0, fmt.Errorf("list days: %w", err)
	}
	n := 0
	for _, d := range days {
		if d.Date >= oldest {
			continue
		}
		if err := e.store.DeleteDay(d.Date); err != nil {
			return n, fmt.Errorf("delete day %s: %w", d.Date, err)
		}
		n++
	}
	if n > 0 {
		e.log.Info("purged old days", "count", n, "retention", e.retention)
	}
	return n, nil
}

// Activate is the foreground hook: rollover, then the retention sweep.
func (e *Engine) Activate() error {
	if _, err := e.Check(); err != nil {
		return err
	}
	_, err := e.Purge()
	return err
}
