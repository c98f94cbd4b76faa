package store

import (
	"encoding/json"
	"math"
)

// Status is a task's position in the IN_PROGRESS -> WAITING -> DONE cycle.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWaiting    Status = "WAITING"
	StatusDone       Status = "DONE"
)

// Statuses lists every status in cycle order.
var Statuses = []Status{StatusInProgress, StatusWaiting, StatusDone}

// Next returns the following status in the cycle. Unknown values restart
// the cycle at IN_PROGRESS.
func (s Status) Next() Status {
	switch s {
	case StatusInProgress:
		return StatusWaiting
	case StatusWaiting:
		return StatusDone
	default:
		return StatusInProgress
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusWaiting, StatusDone:
		return true
	}
	return false
}

// Open reports whether the status is eligible for rollover and reminders.
func (s Status) Open() bool {
	return s == StatusInProgress || s == StatusWaiting
}

// Priority is 1 (low) through 3 (high).
type Priority int

const (
	PriorityLow  Priority = 1
	PriorityMid  Priority = 2
	PriorityHigh Priority = 3
)

func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMid
	case PriorityMid:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

// Estimate is a duration estimate in minutes. EstimateNone encodes as JSON null.
type Estimate int

const (
	EstimateNone Estimate = 0
	Estimate5    Estimate = 5
	Estimate15   Estimate = 15
	Estimate30   Estimate = 30
	Estimate60   Estimate = 60
)

// Estimates lists the non-empty estimate values.
var Estimates = []Estimate{Estimate5, Estimate15, Estimate30, Estimate60}

func (e Estimate) Next() Estimate {
	switch e {
	case EstimateNone:
		return Estimate5
	case Estimate5:
		return Estimate15
	case Estimate15:
		return Estimate30
	case Estimate30:
		return Estimate60
	default:
		return EstimateNone
	}
}

// SnapEstimate returns the estimate value nearest to minutes. Ties go to the
// smaller value.
func SnapEstimate(minutes int) Estimate {
	best := Estimates[0]
	bestDiff := math.MaxInt
	for _, e := range Estimates {
		diff := int(e) - minutes
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = e, diff
		}
	}
	return best
}

func (e Estimate) MarshalJSON() ([]byte, error) {
	if e == EstimateNone {
		return []byte("null"), nil
	}
	return json.Marshal(int(e))
}

func (e *Estimate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = EstimateNone
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*e = Estimate(n)
	return nil
}

// Subtask is a checklist line owned by a task.
type Subtask struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Done  bool   `json:"done"`
	Order int    `json:"order"`
}

// Task is owned by exactly one DayRecord. Times are epoch milliseconds.
type Task struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Status             Status    `json:"status"`
	Priority           Priority  `json:"priority"`
	EstimateMinutes    Estimate  `json:"estimateMinutes"`
	Tags               []string  `json:"tags"`
	Order              int       `json:"order"`
	CreatedAt          int64     `json:"createdAt"`
	UpdatedAt          int64     `json:"updatedAt"`
	CarriedFrom        *string   `json:"carriedFrom"`
	DueAt              *int64    `json:"dueAt"`
	RemindAt           *int64    `json:"remindAt"`
	RemindSnoozedUntil *int64    `json:"remindSnoozedUntil"`
	PinnedAt           *int64    `json:"pinnedAt"`
	Note               string    `json:"note"`
	Subtasks           []Subtask `json:"subtasks"`
}

// Pinned reports whether the task currently holds a pin.
func (t *Task) Pinned() bool { return t.PinnedAt != nil }

// DayRecord is the persisted task collection for one calendar date.
type DayRecord struct {
	Date      string `json:"date"`
	Tasks     []Task `json:"tasks"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Find returns a pointer into r.Tasks for id, or nil.
func (r *DayRecord) Find(id string) *Task {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return &r.Tasks[i]
		}
	}
	return nil
}

// MaxOrder returns the largest order over all tasks, or -1 when empty.
func (r *DayRecord) MaxOrder() int {
	max := -1
	for _, t := range r.Tasks {
		if t.Order > max {
			max = t.Order
		}
	}
	return max
}

type FocusMode string

const (
	FocusStopwatch FocusMode = "stopwatch"
	FocusCountdown FocusMode = "countdown"
)

// FocusState is the process-wide focus timer, persisted under a meta key.
type FocusState struct {
	ActiveTaskID       *string   `json:"activeTaskId"`
	Running            bool      `json:"running"`
	Mode               FocusMode `json:"mode"`
	PlannedSeconds     int64     `json:"plannedSeconds"`
	StartedAt          *int64    `json:"startedAt"`
	AccumulatedSeconds int64     `json:"accumulatedSeconds"`
	// AccumulatedMillis is the exact closed-segment total; AccumulatedSeconds
	// is its floor.
	AccumulatedMillis  int64     `json:"accumulatedMs"`
}

// FocusSession is a completed focus run.
type FocusSession struct {
	ID              string    `db:"id" json:"id"`
	Date            string    `db:"date" json:"date"`
	TaskID          *string   `db:"task_id" json:"taskId"`
	Mode            FocusMode `db:"mode" json:"mode"`
	PlannedMinutes  int64     `db:"planned_minutes" json:"plannedMinutes"`
	StartedAt       int64     `db:"started_at" json:"startedAt"`
	EndedAt         int64     `db:"ended_at" json:"endedAt"`
	DurationSeconds int64     `db:"duration_seconds" json:"durationSeconds"`
}

// DoneLog records that a task entered DONE.
type DoneLog struct {
	ID        string `db:"id" json:"id"`
	TaskID    string `db:"task_id" json:"taskId"`
	Date      string `db:"date" json:"date"`
	Title     string `db:"title" json:"title"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}

type Setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// DailyCount is the number of rows for one date.
type DailyCount struct {
	Date  string `db:"date"`
	Count int64  `db:"n"`
}
