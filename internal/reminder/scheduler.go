// Package reminder keeps exactly one timer armed for the nearest reminder
// across every stored day.
package reminder

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/notify"
	"github.com/sadopc/sidedock/internal/store"
)

// MaxDelay is the longest single timer the scheduler arms. Longer waits are
// re-armed when the clamped timer fires.
const MaxDelay = (1<<31 - 1) * time.Millisecond

// DefaultSnoozeMinutes is used when the snooze setting is unreadable.
const DefaultSnoozeMinutes = 10

type Kind int

const (
	// Triggered: a reminder is now pending and the banner should show.
	Triggered Kind = iota
	// Cleared: the pending reminder was resolved.
	Cleared
)

func (k Kind) String() string {
	switch k {
	case Triggered:
		return "triggered"
	case Cleared:
		return "cleared"
	}
	return "unknown"
}

// Pending is the reminder currently presented to the user.
type Pending struct {
	TaskID string
	Date   string
	Title  string
	At     int64
}

type Event struct {
	Kind    Kind
	Pending Pending
}

// Store is read-only access to every day plus the sound preference.
type Store interface {
	ListAllDays() ([]store.DayRecord, error)
	BoolSetting(key string, fallback bool) bool
	IntSetting(key string, fallback int) int
}

// Tasks applies resolution actions.
type Tasks interface {
	SetStatus(date, id string, status store.Status) (*store.Task, error)
	SetReminder(date, id string, at *int64) (*store.Task, error)
	SnoozeReminder(date, id string, until int64) (*store.Task, error)
}

type Notifier interface {
	Permission() notify.Permission
	RequestPermission() notify.Permission
	Notify(title, body string) error
}

type Audio interface {
	Unlocked() bool
	Play() error
}

type firedKey struct {
	taskID string
	at     int64
}

type Scheduler struct {
	mu       sync.Mutex
	store    Store
	tasks    Tasks
	clock    clock.Clock
	log      *slog.Logger
	notifier Notifier
	audio    Audio

	timer    clock.Timer
	armedAt  int64
	pending  *Pending
	blinking bool
	fired    map[firedKey]bool
	events   chan Event
	closed   bool
}

type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

func WithAudio(a Audio) Option {
	return func(s *Scheduler) { s.audio = a }
}

func New(st Store, tasks Tasks, c clock.Clock, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  st,
		tasks:  tasks,
		clock:  c,
		log:    slog.Default(),
		fired:  make(map[firedKey]bool),
		events: make(chan Event, 16),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Events delivers trigger and clear notifications for the UI. Events are
// dropped when the buffer is full.
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Start performs the initial scan.
func (s *Scheduler) Start() error {
	return s.ScheduleNext()
}

// Close cancels the armed timer. The scheduler is unusable afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancel()
	s.closed = true
	close(s.events)
}

// Effective returns the instant a task should remind at: the snooze time
// when it is set and still ahead of now, else remindAt.
func Effective(t *store.Task, now int64) *int64 {
	if t.RemindSnoozedUntil != nil && *t.RemindSnoozedUntil > now {
		return t.RemindSnoozedUntil
	}
	return t.RemindAt
}

type candidate struct {
	date string
	task store.Task
	at   int64
}

// ScheduleNext cancels the armed timer, then either triggers the earliest
// reminder already due or arms one timer for the nearest future reminder.
// While a reminder is pending no other reminder triggers.
func (s *Scheduler) ScheduleNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.cancel()

	days, err := s.store.ListAllDays()
	if err != nil {
		return fmt.Errorf("scan reminders: %w", err)
	}
	now := clock.Millis(s.clock.Now())

	var due, future []candidate
	live := make(map[firedKey]bool)
	for _, d := range days {
		for _, t := range d.Tasks {
			if t.Status == store.StatusDone {
				continue
			}
			at := Effective(&t, now)
			if at == nil {
				continue
			}
			key := firedKey{t.ID, *at}
			if s.fired[key] {
				live[key] = true
				continue
			}
			c := candidate{date: d.Date, task: t, at: *at}
			if *at <= now {
				due = append(due, c)
			} else {
				future = append(future, c)
			}
		}
	}
	s.fired = live

	if len(due) > 0 && s.pending == nil {
		sortCandidates(due)
		s.trigger(due[0])
		return nil
	}
	if len(future) > 0 {
		sortCandidates(future)
		s.arm(future[0], now)
	}
	return nil
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].at != cs[j].at {
			return cs[i].at < cs[j].at
		}
		return cs[i].task.ID < cs[j].task.ID
	})
}

func (s *Scheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.armedAt = 0
	}
}

func (s *Scheduler) arm(c candidate, now int64) {
	delay := time.Duration(c.at-now) * time.Millisecond
	if delay > MaxDelay {
		delay = MaxDelay
	}
	s.armedAt = c.at
	s.timer = s.clock.AfterFunc(delay, s.fire)
	s.log.Debug("reminder armed", "task", c.task.ID, "at", clock.FromMillis(c.at), "delay", delay)
}

func (s *Scheduler) fire() {
	if err := s.ScheduleNext(); err != nil {
		s.log.Error("reminder fire", "err", err)
	}
}

// trigger runs with s.mu held.
func (s *Scheduler) trigger(c candidate) {
	p := Pending{TaskID: c.task.ID, Date: c.date, Title: c.task.Title, At: c.at}
	s.pending = &p
	s.blinking = true
	s.fired[firedKey{c.task.ID, c.at}] = true
	s.log.Info("reminder triggered", "task", p.TaskID, "date", p.Date)

	if s.notifier != nil {
		perm := s.notifier.Permission()
		if perm == notify.PermissionDefault {
			perm = s.notifier.RequestPermission()
		}
		if perm == notify.PermissionGranted {
			if err := s.notifier.Notify("Reminder", p.Title); err != nil {
				s.log.Warn("reminder notification", "err", err)
			}
		}
	}
	if s.audio != nil && s.audio.Unlocked() && s.store.BoolSetting(store.SettingSoundEnabled, false) {
		if err := s.audio.Play(); err != nil {
			s.log.Warn("reminder sound", "err", err)
		}
	}
	s.publish(Event{Kind: Triggered, Pending: p})
}

func (s *Scheduler) publish(e Event) {
	select {
	case s.events <- e:
	default:
		s.log.Warn("reminder event dropped", "kind", e.Kind)
	}
}

// Pending returns the reminder being presented, if any.
func (s *Scheduler) Pending() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Pending{}, false
	}
	return *s.pending, true
}

// Blinking reports whether the title indicator should blink.
func (s *Scheduler) Blinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blinking
}

// ArmedAt returns the effective time the armed timer targets, or 0.
func (s *Scheduler) ArmedAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedAt
}

// take clears the banner and returns what was pending.
func (s *Scheduler) take() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Pending{}, false
	}
	p := *s.pending
	s.pending = nil
	s.blinking = false
	if !s.closed {
		s.publish(Event{Kind: Cleared, Pending: p})
	}
	return p, true
}

// Open clears the banner and hands back the task to navigate to. The
// reminder time is left alone and nothing is rescheduled.
func (s *Scheduler) Open() (Pending, bool) {
	return s.take()
}

// Done completes the task and clears its reminder.
func (s *Scheduler) Done() error {
	p, ok := s.take()
	if !ok {
		return nil
	}
	if _, err := s.tasks.SetStatus(p.Date, p.TaskID, store.StatusDone); err != nil {
		return err
	}
	if _, err := s.tasks.SetReminder(p.Date, p.TaskID, nil); err != nil {
		return err
	}
	return s.ScheduleNext()
}

// Snooze defers the pending reminder by minutes. Zero or less uses the
// snooze setting.
func (s *Scheduler) Snooze(minutes int) error {
	p, ok := s.take()
	if !ok {
		return nil
	}
	if minutes <= 0 {
		minutes = s.store.IntSetting(store.SettingSnoozeMinutes, DefaultSnoozeMinutes)
	}
	until := clock.Millis(s.clock.Now()) + int64(minutes)*60_000
	if _, err := s.tasks.SnoozeReminder(p.Date, p.TaskID, until); err != nil {
		return err
	}
	return s.ScheduleNext()
}

// Dismiss drops the task's reminder entirely.
func (s *Scheduler) Dismiss() error {
	p, ok := s.take()
	if !ok {
		return nil
	}
	if _, err := s.tasks.SetReminder(p.Date, p.TaskID, nil); err != nil {
		return err
	}
	return s.ScheduleNext()
}
