package tasks

import (
	"strings"

	"github.com/sadopc/sidedock/internal/store"
)

// AddSubtask appends a checklist line to the task. Blank text is ignored.
func (s *Service) AddSubtask(date, taskID, text string) (*store.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return s.mutate(date, taskID, func(t *store.Task) error {
		t.Subtasks = append(t.Subtasks, store.Subtask{
			ID:    s.newID(),
			Text:  text,
			Order: len(t.Subtasks),
		})
		return nil
	})
}

func (s *Service) ToggleSubtask(date, taskID, subID string) (*store.Task, error) {
	return s.mutate(date, taskID, func(t *store.Task) error {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subID {
				t.Subtasks[i].Done = !t.Subtasks[i].Done
			}
		}
		return nil
	})
}

// DeleteSubtask removes a line and renumbers the rest.
func (s *Service) DeleteSubtask(date, taskID, subID string) (*store.Task, error) {
	return s.mutate(date, taskID, func(t *store.Task) error {
		kept := t.Subtasks[:0]
		for _, st := range t.Subtasks {
			if st.ID != subID {
				st.Order = len(kept)
				kept = append(kept, st)
			}
		}
		t.Subtasks = kept
		return nil
	})
}
