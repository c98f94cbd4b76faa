package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/reminder"
	"github.com/sadopc/sidedock/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewHistory
	viewFocus
	viewSettings
)

var viewNames = []string{"Today", "History", "Focus", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type reminderMsg reminder.Event

// dataChangedMsg asks every view to reload after a mutation made elsewhere.
type dataChangedMsg struct{}

// openTaskMsg switches to the today view with the cursor on a task.
type openTaskMsg struct {
	date string
	id   string
}

// focusTaskMsg attaches the focus timer to a task and shows the focus view.
type focusTaskMsg struct {
	id    string
	title string
}

type exportDoneMsg struct {
	paths []string
}

func errStatus(what string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", what, err), isError: true}
}

func statusCmd(msg statusMsg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins%60 == 0 {
		return fmt.Sprintf("%dh", mins/60)
	}
	return fmt.Sprintf("%dh%02dm", mins/60, mins%60)
}

func formatEstimate(e store.Estimate) string {
	if e == store.EstimateNone {
		return ""
	}
	return formatMinutes(int(e))
}

// formatWhen renders an epoch-millisecond instant as a clock time plus a
// relative hint, e.g. "14:30 (in 2 hours)".
func formatWhen(ms int64, now time.Time) string {
	t := clock.FromMillis(ms)
	layout := "15:04"
	if clock.DateKey(t) != clock.DateKey(now) {
		layout = "Jan 02 15:04"
	}
	return fmt.Sprintf("%s (%s)", t.Format(layout), humanize.RelTime(t, now, "ago", "from now"))
}

var statusLabels = map[store.Status]string{
	store.StatusInProgress: "In progress",
	store.StatusWaiting:    "Waiting",
	store.StatusDone:       "Done",
}

var priorityMarks = map[store.Priority]string{
	store.PriorityLow:  "!",
	store.PriorityMid:  "!!",
	store.PriorityHigh: "!!!",
}

// parseWhen reads a time typed into a form. "HH:MM" is taken on date,
// "+30m" or "+2h" is relative to now, and blank means unset.
func parseWhen(input, date string, now time.Time) (*int64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	if rel, ok := strings.CutPrefix(input, "+"); ok {
		if n, err := strconv.Atoi(rel); err == nil {
			rel = fmt.Sprintf("%dm", n)
		}
		d, err := time.ParseDuration(rel)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad offset %q", input)
		}
		ms := clock.Millis(now.Add(d))
		return &ms, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+input, time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad time %q, want HH:MM or +30m", input)
	}
	ms := clock.Millis(t)
	return &ms, nil
}

// clockInput is the inverse of parseWhen for pre-filling forms.
func clockInput(ms *int64) string {
	if ms == nil {
		return ""
	}
	return clock.FromMillis(*ms).Format("15:04")
}
