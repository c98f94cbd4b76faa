package tasks

import (
	"fmt"
	"sort"

	"github.com/sadopc/sidedock/internal/store"
)

// CycleStatus advances the task one step through
// IN_PROGRESS -> WAITING -> DONE -> IN_PROGRESS.
func (s *Service) CycleStatus(date, id string) (*store.Task, error) {
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}
	t := rec.Find(id)
	if t == nil {
		return nil, nil
	}
	return s.SetStatus(date, id, t.Status.Next())
}

// SetStatus moves the task to status without touching its order. Entering
// DONE writes a completion log; leaving DONE removes it. The record and the
// log change are committed together.
func (s *Service) SetStatus(date, id string, status store.Status) (*store.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("set status: invalid status %q", status)
	}
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}
	t := rec.Find(id)
	if t == nil {
		return nil, nil
	}
	prev := t.Status
	t.Status = status
	t.UpdatedAt = s.now()
	if err := s.saveStatus(rec, t, prev); err != nil {
		return nil, err
	}
	out := *t
	return &out, nil
}

// saveStatus persists rec together with the completion log change implied
// by t moving from prev to its current status.
func (s *Service) saveStatus(rec *store.DayRecord, t *store.Task, prev store.Status) error {
	var ch store.LogChange
	switch {
	case t.Status == store.StatusDone && prev != store.StatusDone:
		ch.Create = &store.DoneLog{
			ID:        s.newID(),
			TaskID:    t.ID,
			Date:      rec.Date,
			Title:     t.Title,
			CreatedAt: s.now(),
		}
	case prev == store.StatusDone && t.Status != store.StatusDone:
		ch.RemoveTaskID = t.ID
	}
	if err := s.store.PutDayWithLog(rec, ch); err != nil {
		return fmt.Errorf("save day %s: %w", rec.Date, err)
	}
	switch {
	case ch.Create != nil:
		s.log.Info("task completed", "date", rec.Date, "id", t.ID)
	case ch.RemoveTaskID != "":
		s.log.Info("task reopened", "date", rec.Date, "id", t.ID)
	}
	s.changed()
	return nil
}

func (s *Service) CyclePriority(date, id string) (*store.Task, error) {
	return s.mutate(date, id, func(t *store.Task) error {
		t.Priority = t.Priority.Next()
		return nil
	})
}

func (s *Service) CycleEstimate(date, id string) (*store.Task, error) {
	return s.mutate(date, id, func(t *store.Task) error {
		t.EstimateMinutes = t.EstimateMinutes.Next()
		return nil
	})
}

// ReorderWithinStatus assigns order = position to each id in ids. Ids not in
// the record are skipped and do not consume a position.
func (s *Service) ReorderWithinStatus(date string, ids []string) error {
	rec, err := s.Day(date)
	if err != nil {
		return err
	}
	n := 0
	for _, id := range ids {
		if t := rec.Find(id); t != nil {
			t.Order = n
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return s.save(rec)
}

// MoveToStatus takes the task out of its current group and inserts it at
// index among the other tasks of status (clamped to the group length). Both
// groups are renumbered to 0..n-1.
func (s *Service) MoveToStatus(date, id string, status store.Status, index int) (*store.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("move task: invalid status %q", status)
	}
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}
	t := rec.Find(id)
	if t == nil {
		return nil, nil
	}
	prev := t.Status

	dest := groupByOrder(rec, status, id)
	if index < 0 {
		index = 0
	}
	if index > len(dest) {
		index = len(dest)
	}
	dest = append(dest[:index], append([]*store.Task{t}, dest[index:]...)...)

	t.Status = status
	t.UpdatedAt = s.now()
	renumber(dest)
	if prev != status {
		renumber(groupByOrder(rec, prev, id))
	}

	if err := s.saveStatus(rec, t, prev); err != nil {
		return nil, err
	}
	out := *t
	return &out, nil
}

// groupByOrder returns pointers to the tasks of status, excluding skipID,
// sorted by order.
func groupByOrder(rec *store.DayRecord, status store.Status, skipID string) []*store.Task {
	var group []*store.Task
	for i := range rec.Tasks {
		t := &rec.Tasks[i]
		if t.Status == status && t.ID != skipID {
			group = append(group, t)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
	return group
}

func renumber(group []*store.Task) {
	for i, t := range group {
		t.Order = i
	}
}

// TogglePin pins or unpins a task. Pinning fails with ErrPinCapacity once
// the cap is held across all days; no existing pin is evicted.
func (s *Service) TogglePin(date, id string) (*store.Task, error) {
	rec, err := s.Day(date)
	if err != nil {
		return nil, err
	}
	t := rec.Find(id)
	if t == nil {
		return nil, nil
	}
	if !t.Pinned() {
		n, err := s.PinnedCount()
		if err != nil {
			return nil, err
		}
		if n >= s.maxPins {
			s.log.Info("pin rejected", "id", id, "pinned", n)
			return nil, ErrPinCapacity
		}
	}
	return s.mutate(date, id, func(t *store.Task) error {
		if t.Pinned() {
			t.PinnedAt = nil
		} else {
			now := s.now()
			t.PinnedAt = &now
		}
		return nil
	})
}

// PinnedCount counts pinned tasks across the whole store.
func (s *Service) PinnedCount() (int, error) {
	days, err := s.store.ListAllDays()
	if err != nil {
		return 0, fmt.Errorf("list days: %w", err)
	}
	n := 0
	for _, d := range days {
		for i := range d.Tasks {
			if d.Tasks[i].Pinned() {
				n++
			}
		}
	}
	return n, nil
}
