package tasks

import (
	"sort"

	"github.com/sadopc/sidedock/internal/store"
)

// SortForDisplay returns a sorted copy: pinned tasks first, most recently
// pinned leading, then the rest by order.
func SortForDisplay(tasks []store.Task) []store.Task {
	out := make([]store.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Pinned() && b.Pinned():
			return *a.PinnedAt > *b.PinnedAt
		case a.Pinned() != b.Pinned():
			return a.Pinned()
		default:
			return a.Order < b.Order
		}
	})
	return out
}

// Group returns the tasks of one status in display order.
func Group(tasks []store.Task, status store.Status) []store.Task {
	var g []store.Task
	for _, t := range tasks {
		if t.Status == status {
			g = append(g, t)
		}
	}
	return SortForDisplay(g)
}

// Summary totals a day's workload.
type Summary struct {
	Incomplete       int
	RemainingMinutes int
	TotalMinutes     int
}

func Summarize(rec *store.DayRecord) Summary {
	var sum Summary
	for _, t := range rec.Tasks {
		sum.TotalMinutes += int(t.EstimateMinutes)
		if t.Status != store.StatusDone {
			sum.Incomplete++
			sum.RemainingMinutes += int(t.EstimateMinutes)
		}
	}
	return sum
}

// DragSession identifies the task being dragged, independent of how it is
// drawn.
type DragSession struct {
	DraggedID    string
	SourceStatus store.Status
	SourceDate   string
}

// InsertIndex returns the drop position for a pointer at y over siblings
// whose vertical midpoints are given top to bottom: the first sibling whose
// midpoint lies below y, or len(midpoints) to append.
func InsertIndex(midpoints []float64, y float64) int {
	for i, m := range midpoints {
		if y < m {
			return i
		}
	}
	return len(midpoints)
}

// Drop completes a drag by moving the dragged task into status at the index
// derived from the pointer position.
func (s *Service) Drop(d DragSession, status store.Status, midpoints []float64, y float64) (*store.Task, error) {
	return s.MoveToStatus(d.SourceDate, d.DraggedID, status, InsertIndex(midpoints, y))
}
