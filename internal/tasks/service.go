package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

// Untitled replaces a blank title on create.
const Untitled = "(untitled)"

// DefaultMaxPins is the global pin cap.
const DefaultMaxPins = 3

// ErrPinCapacity is returned when pinning would exceed the global pin cap.
var ErrPinCapacity = errors.New("pin capacity reached")

// Store is the persistence the service needs: whole-record day access plus the
// completion log.
type Store interface {
	GetDay(date string) (*store.DayRecord, error)
	GetOrCreateDay(date string) (*store.DayRecord, error)
	PutDay(rec *store.DayRecord) error
	ListAllDays() ([]store.DayRecord, error)
	PutDayWithLog(rec *store.DayRecord, ch store.LogChange) error
}

// Service applies task mutations. Each operation fetches (or stubs) the day
// record, mutates it in memory and persists the whole record.
type Service struct {
	store    Store
	clock    clock.Clock
	log      *slog.Logger
	maxPins  int
	onChange func()
	newID    func() string
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithMaxPins(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPins = n
		}
	}
}

// WithIDs overrides id generation.
func WithIDs(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

func New(st Store, c clock.Clock, opts ...Option) *Service {
	s := &Service{
		store:   st,
		clock:   c,
		log:     slog.Default(),
		maxPins: DefaultMaxPins,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers f to run after every persisted task mutation. The
// reminder scheduler hooks in here.
func (s *Service) OnChange(f func()) {
	s.onChange = f
}

func (s *Service) now() int64 {
	return clock.Millis(s.clock.Now())
}

func (s *Service) save(rec *store.DayRecord) error {
	if err := s.store.PutDay(rec); err != nil {
		return fmt.Errorf("save day %s: %w", rec.Date, err)
	}
	s.changed()
	return nil
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Day returns the record for date, or an unpersisted empty stub.
func (s *Service) Day(date string) (*store.DayRecord, error) {
	rec, err := s.store.GetOrCreateDay(date)
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}
	return rec, nil
}

// AddTask appends a new IN_PROGRESS task to date. Order is one past the
// largest order in the whole record, regardless of status.
func (s *Service) AddTask(date, title string, tags []string, estimate store.Estimate, dueAt *int64) (*store.Task, error) {
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = Untitled
	}
	if tags == nil {
		tags = []string{}
	}
	now := s.now()
	t := store.Task{
		ID:              s.newID(),
		Title:           title,
		Status:          store.StatusInProgress,
		Priority:        store.PriorityLow,
		EstimateMinutes: estimate,
		Tags:            tags,
		Order:           rec.MaxOrder() + 1,
		CreatedAt:       now,
		UpdatedAt:       now,
		DueAt:           dueAt,
		Subtasks:        []store.Subtask{},
	}
	rec.Tasks = append(rec.Tasks, t)
	if err := s.save(rec); err != nil {
		return nil, err
	}
	s.log.Debug("task added", "date", date, "id", t.ID)
	return &t, nil
}

// AddFromInput parses free text (see ParseInput) and adds the result.
func (s *Service) AddFromInput(date, text string) (*store.Task, error) {
	in := ParseInput(text)
	return s.AddTask(date, in.Title, in.Tags, in.Estimate, nil)
}

// Patch holds optional field updates. Nil fields are left alone.
type Patch struct {
	Title      *string
	Note       *string
	Tags       []string
	Priority   *store.Priority
	Estimate   *store.Estimate
	DueAt      *int64
	ClearDueAt bool
}

// UpdateTask merges p into the task. An unknown id is a silent no-op and
// returns (nil, nil).
func (s *Service) UpdateTask(date, id string, p Patch) (*store.Task, error) {
	return s.mutate(date, id, func(t *store.Task) error {
		if p.Title != nil {
			if title := strings.TrimSpace(*p.Title); title != "" {
				t.Title = title
			}
		}
		if p.Note != nil {
			t.Note = *p.Note
		}
		if p.Tags != nil {
			t.Tags = p.Tags
		}
		if p.Priority != nil && p.Priority.Valid() {
			t.Priority = *p.Priority
		}
		if p.Estimate != nil {
			t.EstimateMinutes = *p.Estimate
		}
		if p.DueAt != nil {
			t.DueAt = p.DueAt
		}
		if p.ClearDueAt {
			t.DueAt = nil
		}
		return nil
	})
}

// mutate loads date, applies fn to task id and persists. Unknown ids return
// (nil, nil) without writing.
func (s *Service) mutate(date, id string, fn func(t *store.Task) error) (*store.Task, error) {
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}
	t := rec.Find(id)
	if t == nil {
		return nil, nil
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	if err := s.save(rec); err != nil {
		return nil, err
	}
	out := *t
	return &out, nil
}

// DeleteTask removes a task. Sibling orders are not renumbered.
func (s *Service) DeleteTask(date, id string) error {
	rec, err := s.Day(date)
	if err != nil {
		return err
	}
	idx := indexOf(rec.Tasks, id)
	if idx < 0 {
		return nil
	}
	rec.Tasks = append(rec.Tasks[:idx], rec.Tasks[idx+1:]...)
	if err := s.save(rec); err != nil {
		return err
	}
	s.log.Debug("task deleted", "date", date, "id", id)
	return nil
}

// SetReminder sets or clears (at == nil) the base reminder time. Any snooze
// is dropped.
func (s *Service) SetReminder(date, id string, at *int64) (*store.Task, error) {
	return s.mutate(date, id, func(t *store.Task) error {
		t.RemindAt = at
		t.RemindSnoozedUntil = nil
		return nil
	})
}

// SnoozeReminder defers the effective reminder time to until.
func (s *Service) SnoozeReminder(date, id string, until int64) (*store.Task, error) {
	return s.mutate(date, id, func(t *store.Task) error {
		t.RemindSnoozedUntil = &until
		return nil
	})
}

// MoveToDate transfers a task to another day, keeping its id. The copy is
// written before the original is removed.
func (s *Service) MoveToDate(from, id, to string) (*store.Task, error) {
	if from == to {
		return nil, nil
	}
	src, err := s.Day(from)
	if err != nil {
		return nil, err
	}
	idx := indexOf(src.Tasks, id)
	if idx < 0 {
		return nil, nil
	}
	dst, err := s.Day(to)
	if err != nil {
		return nil, err
	}

	t := src.Tasks[idx]
	t.Order = dst.MaxOrder() + 1
	t.UpdatedAt = s.now()
	dst.Tasks = append(dst.Tasks, t)
	if err := s.save(dst); err != nil {
		return nil, err
	}
	src.Tasks = append(src.Tasks[:idx], src.Tasks[idx+1:]...)
	if err := s.save(src); err != nil {
		return nil, err
	}
	s.log.Debug("task moved", "id", id, "from", from, "to", to)
	return &t, nil
}

// FindTask scans every day for id. It returns ("", nil, nil) when absent.
func (s *Service) FindTask(id string) (string, *store.Task, error) {
	days, err := s.store.ListAllDays()
	if err != nil {
		return "", nil, fmt.Errorf("list days: %w", err)
	}
	for i := range days {
		if t := days[i].Find(id); t != nil {
			return days[i].Date, t, nil
		}
	}
	return "", nil, nil
}

func indexOf(tasks []store.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
