package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/reminder"
)

func (d todayModel) updateDetail(msg tea.KeyMsg) (todayModel, tea.Cmd) {
	t := d.selected()
	if t == nil {
		d.viewingDetail = false
		return d, nil
	}
	id := t.ID

	switch {
	case key.Matches(msg, keys.Back):
		d.viewingDetail = false
		return d, nil
	case key.Matches(msg, keys.Up):
		if d.subCursor > 0 {
			d.subCursor--
		}
	case key.Matches(msg, keys.Down):
		if d.subCursor < len(t.Subtasks)-1 {
			d.subCursor++
		}
	case key.Matches(msg, keys.Add):
		return d.showSubtaskForm()
	case key.Matches(msg, keys.Edit):
		return d.showEditForm(*t)
	case key.Matches(msg, keys.Status), key.Matches(msg, keys.Enter):
		if len(t.Subtasks) == 0 {
			return d, nil
		}
		subID := t.Subtasks[d.subCursor].ID
		return d.apply(id, func() error {
			_, err := d.app.Tasks.ToggleSubtask(d.date, id, subID)
			return err
		})
	case key.Matches(msg, keys.Delete):
		if len(t.Subtasks) == 0 {
			return d, nil
		}
		subID := t.Subtasks[d.subCursor].ID
		return d.apply(id, func() error {
			_, err := d.app.Tasks.DeleteSubtask(d.date, id, subID)
			return err
		})
	}
	return d, nil
}

func (d todayModel) renderDetail(w int) string {
	t := d.selected()
	if t == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("No task selected"))
	}
	now := d.app.Clock.Now()

	title := titleStyle.Render(t.Title)
	status := statusHeaderStyle(t.Status).Render(statusLabels[t.Status])
	prio := priorityStyle(t.Priority).Render(priorityMarks[t.Priority])

	field := func(label, value string) string {
		return mutedStyle.Render(fmt.Sprintf("  %-12s", label)) + value
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%s  %s %s", title, status, prio))
	rows = append(rows, "")
	if e := formatEstimate(t.EstimateMinutes); e != "" {
		rows = append(rows, field("Estimate", e))
	}
	if len(t.Tags) > 0 {
		rows = append(rows, field("Tags", "#"+strings.Join(t.Tags, " #")))
	}
	if t.DueAt != nil {
		rows = append(rows, field("Due", formatWhen(*t.DueAt, now)))
	}
	if t.RemindAt != nil {
		value := formatWhen(*t.RemindAt, now)
		if eff := reminder.Effective(t, clock.Millis(now)); eff != nil && *eff != *t.RemindAt {
			value += warningStyle.Render("  snoozed to " + formatWhen(*eff, now))
		}
		rows = append(rows, field("Reminder", value))
	}
	if t.CarriedFrom != nil {
		rows = append(rows, field("Carried", "from "+*t.CarriedFrom))
	}
	if t.Note != "" {
		rows = append(rows, "")
		rows = append(rows, normalItemStyle.Render(t.Note))
	}

	rows = append(rows, "")
	rows = append(rows, titleStyle.Render("Subtasks"))
	if len(t.Subtasks) == 0 {
		rows = append(rows, mutedStyle.Render("  No subtasks. Press n to add one."))
	}
	for i, s := range t.Subtasks {
		cursor := "  "
		style := normalItemStyle
		if s.Done {
			style = doneItemStyle
		}
		if i == d.subCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if s.Done {
			check = successStyle.Render("[x]")
		}
		rows = append(rows, style.Render(cursor)+check+" "+style.Render(s.Text))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new subtask  space: toggle  d: delete  e: edit task  esc: back"))

	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
