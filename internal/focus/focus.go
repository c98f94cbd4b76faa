// Package focus implements the persisted stopwatch/countdown focus timer.
package focus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

// MinSessionSeconds is the shortest run that Stop records as a session.
const MinSessionSeconds = 5

const defaultPlannedMinutes = 25

type Store interface {
	GetFocusState() (*store.FocusState, error)
	SaveFocusState(st *store.FocusState) error
	CreateSession(fs *store.FocusSession) error
	GetSetting(key string) (string, error)
	IntSetting(key string, fallback int) int
}

// Timer is the single process-wide focus timer. Only one run segment is
// open at a time: startedAt to now, on top of the accumulated milliseconds.
type Timer struct {
	mu    sync.Mutex
	store Store
	clock clock.Clock
	log   *slog.Logger
	state store.FocusState
	newID func() string
}

func New(st Store, c clock.Clock, log *slog.Logger) *Timer {
	if log == nil {
		log = slog.Default()
	}
	return &Timer{
		store: st,
		clock: c,
		log:   log,
		newID: uuid.NewString,
		state: store.FocusState{Mode: store.FocusStopwatch, PlannedSeconds: defaultPlannedMinutes * 60},
	}
}

// Load restores the persisted state, or seeds defaults from settings on
// first use. A running timer keeps running across the reload.
func (t *Timer) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.store.GetFocusState()
	if err != nil {
		return fmt.Errorf("load focus state: %w", err)
	}
	if st != nil {
		t.state = *st
		if t.state.AccumulatedMillis == 0 && t.state.AccumulatedSeconds > 0 {
			t.state.AccumulatedMillis = t.state.AccumulatedSeconds * 1000
		}
		if t.state.Mode != store.FocusCountdown {
			t.state.Mode = store.FocusStopwatch
		}
		return nil
	}

	if mode, err := t.store.GetSetting(store.SettingFocusMode); err == nil && store.FocusMode(mode) == store.FocusCountdown {
		t.state.Mode = store.FocusCountdown
	}
	planned := t.store.IntSetting(store.SettingFocusPlannedMinutes, defaultPlannedMinutes)
	if planned > 0 {
		t.state.PlannedSeconds = int64(planned) * 60
	}
	return t.save()
}

func (t *Timer) save() error {
	st := t.state
	if err := t.store.SaveFocusState(&st); err != nil {
		return fmt.Errorf("save focus state: %w", err)
	}
	return nil
}

func (t *Timer) nowMillis() int64 {
	return clock.Millis(t.clock.Now())
}

func (t *Timer) elapsedMillis() int64 {
	e := t.state.AccumulatedMillis
	if t.state.Running && t.state.StartedAt != nil {
		if d := t.nowMillis() - *t.state.StartedAt; d > 0 {
			e += d
		}
	}
	return e
}

// elapsed is whole seconds across closed segments plus the open one.
// Segments are summed in milliseconds before flooring.
func (t *Timer) elapsed() int64 {
	return t.elapsedMillis() / 1000
}

// Start starts or resumes a stopped timer and pauses a running one.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Running {
		t.state.AccumulatedMillis = t.elapsedMillis()
		t.state.AccumulatedSeconds = t.state.AccumulatedMillis / 1000
		t.state.StartedAt = nil
		t.state.Running = false
		t.log.Debug("focus paused", "accumulated", t.state.AccumulatedSeconds)
	} else {
		now := t.nowMillis()
		t.state.StartedAt = &now
		t.state.Running = true
		t.log.Debug("focus started", "mode", t.state.Mode)
	}
	return t.save()
}

// Reset zeroes the timer without recording a session.
func (t *Timer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.zero()
	return t.save()
}

func (t *Timer) zero() {
	t.state.AccumulatedSeconds = 0
	t.state.AccumulatedMillis = 0
	t.state.StartedAt = nil
	t.state.Running = false
}

// Stop ends the run. Runs of at least MinSessionSeconds are stored as a
// FocusSession, which is returned; shorter runs return nil.
func (t *Timer) Stop() (*store.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop()
}

func (t *Timer) stop() (*store.FocusSession, error) {
	duration := t.elapsed()
	if t.state.Mode == store.FocusCountdown && duration > t.state.PlannedSeconds {
		duration = t.state.PlannedSeconds
	}

	var fs *store.FocusSession
	if duration >= MinSessionSeconds {
		now := t.clock.Now()
		end := clock.Millis(now)
		fs = &store.FocusSession{
			ID:              t.newID(),
			Date:            clock.DateKey(now),
			TaskID:          t.state.ActiveTaskID,
			Mode:            t.state.Mode,
			StartedAt:       end - duration*1000,
			EndedAt:         end,
			DurationSeconds: duration,
		}
		if t.state.Mode == store.FocusCountdown {
			fs.PlannedMinutes = t.state.PlannedSeconds / 60
		}
		if err := t.store.CreateSession(fs); err != nil {
			return nil, fmt.Errorf("create focus session: %w", err)
		}
		t.log.Info("focus session recorded", "seconds", duration, "mode", fs.Mode)
	}

	t.zero()
	if err := t.save(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Tick is called periodically. A running countdown that has reached its
// planned length is stopped and its session returned.
func (t *Timer) Tick() (*store.FocusSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Running || t.state.Mode != store.FocusCountdown {
		return nil, nil
	}
	if t.elapsed() < t.state.PlannedSeconds {
		return nil, nil
	}
	return t.stop()
}

// Display is the value to show: remaining seconds for a countdown, elapsed
// seconds for a stopwatch.
func (t *Timer) Display() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Mode == store.FocusCountdown {
		return max(0, t.state.PlannedSeconds-t.elapsed())
	}
	return t.elapsed()
}

func (t *Timer) Elapsed() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed()
}

// State returns a copy of the current state.
func (t *Timer) State() store.FocusState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Running
}

// SetMode switches between stopwatch and countdown. It reports false and
// changes nothing while running.
func (t *Timer) SetMode(mode store.FocusMode) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Running {
		return false, nil
	}
	if mode != store.FocusCountdown {
		mode = store.FocusStopwatch
	}
	t.state.Mode = mode
	return true, t.save()
}

// SetPlannedMinutes sets the countdown length. Rejected while running.
func (t *Timer) SetPlannedMinutes(minutes int) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Running || minutes <= 0 {
		return false, nil
	}
	t.state.PlannedSeconds = int64(minutes) * 60
	return true, t.save()
}

// SetActiveTask attaches the timer to a task id, or detaches it with nil.
// The id is a weak reference; callers look it up in the current day.
func (t *Timer) SetActiveTask(id *string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.ActiveTaskID = id
	return t.save()
}
