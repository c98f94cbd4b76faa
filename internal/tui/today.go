package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
	"github.com/sadopc/sidedock/internal/tasks"
)

type todayModel struct {
	app    *app.App
	width  int
	height int

	date     string
	rec      *store.DayRecord
	rows     []store.Task // status groups in display order, concatenated
	cursor   int
	selectID string // cursor follows this id across reloads
	summary  tasks.Summary

	// Move mode
	drag       *tasks.DragSession
	dropStatus store.Status
	dropIndex  int

	viewingDetail bool
	subCursor     int

	formActive bool
	form       *huh.Form
	formType   string // "add", "edit", "subtask"

	// Form field pointers (survive value copies)
	formTitle  *string
	formNote   *string
	formTags   *string
	formDue    *string
	formRemind *string
	formText   *string

	editingID string
}

func newTodayModel(a *app.App) todayModel {
	title, note, tags, due, remind, text := "", "", "", "", "", ""
	return todayModel{
		app:        a,
		date:       a.Today(),
		formTitle:  &title,
		formNote:   &note,
		formTags:   &tags,
		formDue:    &due,
		formRemind: &remind,
		formText:   &text,
	}
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	rec *store.DayRecord
	err error
}

func (d todayModel) refresh() tea.Cmd {
	date := d.date
	return func() tea.Msg {
		rec, err := d.app.Tasks.Day(date)
		return todayDataMsg{rec: rec, err: err}
	}
}

func (d *todayModel) setRecord(rec *store.DayRecord) {
	d.rec = rec
	d.rows = nil
	for _, s := range store.Statuses {
		d.rows = append(d.rows, tasks.Group(rec.Tasks, s)...)
	}
	d.summary = tasks.Summarize(rec)

	if d.selectID != "" {
		for i := range d.rows {
			if d.rows[i].ID == d.selectID {
				d.cursor = i
				break
			}
		}
		d.selectID = ""
	}
	if d.cursor >= len(d.rows) {
		d.cursor = max(0, len(d.rows)-1)
	}
	if t := d.selected(); t != nil && d.subCursor >= len(t.Subtasks) {
		d.subCursor = max(0, len(t.Subtasks)-1)
	}
	if d.viewingDetail && d.selected() == nil {
		d.viewingDetail = false
	}
}

func (d todayModel) selected() *store.Task {
	if d.cursor < 0 || d.cursor >= len(d.rows) {
		return nil
	}
	return &d.rows[d.cursor]
}

func (d todayModel) isToday() bool {
	return d.date == d.app.Today()
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}

	switch msg := msg.(type) {
	case todayDataMsg:
		if msg.err != nil {
			return d, statusCmd(errStatus("Load day", msg.err))
		}
		d.setRecord(msg.rec)
		return d, nil

	case openTaskMsg:
		d.date = msg.date
		d.selectID = msg.id
		d.viewingDetail = false
		d.drag = nil
		return d, d.refresh()

	case tea.KeyMsg:
		if d.drag != nil {
			return d.updateDrag(msg)
		}
		if d.viewingDetail {
			return d.updateDetail(msg)
		}
		return d.updateList(msg)
	}
	return d, nil
}

func (d todayModel) updateList(msg tea.KeyMsg) (todayModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
		return d, nil
	case key.Matches(msg, keys.Down):
		if d.cursor < len(d.rows)-1 {
			d.cursor++
		}
		return d, nil
	case key.Matches(msg, keys.Left):
		d.date = clock.AddDays(d.date, -1)
		d.cursor = 0
		return d, d.refresh()
	case key.Matches(msg, keys.Right):
		d.date = clock.AddDays(d.date, 1)
		d.cursor = 0
		return d, d.refresh()
	case key.Matches(msg, keys.Add):
		return d.showAddForm()
	}

	t := d.selected()
	if t == nil {
		return d, nil
	}
	id := t.ID

	switch {
	case key.Matches(msg, keys.Enter):
		d.viewingDetail = true
		d.subCursor = 0
		return d, nil
	case key.Matches(msg, keys.Edit):
		return d.showEditForm(*t)
	case key.Matches(msg, keys.Status):
		return d.apply(id, func() error {
			_, err := d.app.Tasks.CycleStatus(d.date, id)
			return err
		})
	case key.Matches(msg, keys.Priority):
		return d.apply(id, func() error {
			_, err := d.app.Tasks.CyclePriority(d.date, id)
			return err
		})
	case key.Matches(msg, keys.Estimate):
		return d.apply(id, func() error {
			_, err := d.app.Tasks.CycleEstimate(d.date, id)
			return err
		})
	case key.Matches(msg, keys.Pin):
		_, err := d.app.Tasks.TogglePin(d.date, id)
		if errors.Is(err, tasks.ErrPinCapacity) {
			return d, statusCmd(statusMsg{text: fmt.Sprintf("At most %d tasks can be pinned", d.app.Config.MaxPins), isError: true})
		}
		return d.apply(id, func() error { return err })
	case key.Matches(msg, keys.Delete):
		if err := d.app.Tasks.DeleteTask(d.date, id); err != nil {
			return d, statusCmd(errStatus("Delete task", err))
		}
		return d, tea.Batch(d.refresh(), statusCmd(statusMsg{text: "Deleted " + t.Title}))
	case key.Matches(msg, keys.MoveUp), key.Matches(msg, keys.MoveDown):
		return d.reorder(*t, key.Matches(msg, keys.MoveUp))
	case key.Matches(msg, keys.Grab):
		group := d.siblings(t.Status, id)
		idx := 0
		for i, s := range tasks.Group(d.rec.Tasks, t.Status) {
			if s.ID == id {
				idx = i
			}
		}
		d.drag = &tasks.DragSession{DraggedID: id, SourceStatus: t.Status, SourceDate: d.date}
		d.dropStatus = t.Status
		d.dropIndex = min(idx, len(group))
		return d, nil
	case key.Matches(msg, keys.Tomorrow):
		to := clock.AddDays(d.date, 1)
		if _, err := d.app.Tasks.MoveToDate(d.date, id, to); err != nil {
			return d, statusCmd(errStatus("Move task", err))
		}
		return d, tea.Batch(d.refresh(), statusCmd(statusMsg{text: "Moved to " + to}))
	case key.Matches(msg, keys.Focus):
		return d, func() tea.Msg { return focusTaskMsg{id: id, title: t.Title} }
	}
	return d, nil
}

// apply runs a mutation on id and reloads with the cursor kept on it.
func (d todayModel) apply(id string, fn func() error) (todayModel, tea.Cmd) {
	if err := fn(); err != nil {
		return d, statusCmd(errStatus("Update task", err))
	}
	d.selectID = id
	return d, d.refresh()
}

// siblings returns the display-ordered tasks of status, without skipID.
func (d todayModel) siblings(status store.Status, skipID string) []store.Task {
	var out []store.Task
	for _, t := range tasks.Group(d.rec.Tasks, status) {
		if t.ID != skipID {
			out = append(out, t)
		}
	}
	return out
}

func (d todayModel) reorder(t store.Task, up bool) (todayModel, tea.Cmd) {
	group := tasks.Group(d.rec.Tasks, t.Status)
	ids := make([]string, len(group))
	pos := 0
	for i, g := range group {
		ids[i] = g.ID
		if g.ID == t.ID {
			pos = i
		}
	}
	swap := pos + 1
	if up {
		swap = pos - 1
	}
	if swap < 0 || swap >= len(ids) {
		return d, nil
	}
	ids[pos], ids[swap] = ids[swap], ids[pos]
	return d.apply(t.ID, func() error {
		return d.app.Tasks.ReorderWithinStatus(d.date, ids)
	})
}

func (d todayModel) updateDrag(msg tea.KeyMsg) (todayModel, tea.Cmd) {
	group := d.siblings(d.dropStatus, d.drag.DraggedID)
	switch {
	case key.Matches(msg, keys.Up):
		if d.dropIndex > 0 {
			d.dropIndex--
		}
	case key.Matches(msg, keys.Down):
		if d.dropIndex < len(group) {
			d.dropIndex++
		}
	case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
		i := 0
		for j, s := range store.Statuses {
			if s == d.dropStatus {
				i = j
			}
		}
		if key.Matches(msg, keys.Left) {
			i = (i + len(store.Statuses) - 1) % len(store.Statuses)
		} else {
			i = (i + 1) % len(store.Statuses)
		}
		d.dropStatus = store.Statuses[i]
		d.dropIndex = min(d.dropIndex, len(d.siblings(d.dropStatus, d.drag.DraggedID)))
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Grab):
		// Rows are one line tall, so sibling i spans [i, i+1).
		midpoints := make([]float64, len(group))
		for i := range group {
			midpoints[i] = float64(i) + 0.5
		}
		drag := *d.drag
		d.drag = nil
		return d.apply(drag.DraggedID, func() error {
			_, err := d.app.Tasks.Drop(drag, d.dropStatus, midpoints, float64(d.dropIndex))
			return err
		})
	case key.Matches(msg, keys.Back):
		d.drag = nil
	}
	return d, nil
}

func (d todayModel) showAddForm() (todayModel, tea.Cmd) {
	*d.formText = ""
	d.formType = "add"

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New task").
				Description("#tags and an estimate like 30m are picked out of the text").
				Value(d.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) showEditForm(t store.Task) (todayModel, tea.Cmd) {
	*d.formTitle = t.Title
	*d.formNote = t.Note
	*d.formTags = strings.Join(t.Tags, " ")
	*d.formDue = clockInput(t.DueAt)
	*d.formRemind = clockInput(t.RemindAt)
	d.formType = "edit"
	d.editingID = t.ID

	validWhen := func(s string) error {
		_, err := parseWhen(s, d.date, d.app.Clock.Now())
		return err
	}

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(d.formTitle),
			huh.NewInput().Title("Tags (space-separated)").Value(d.formTags),
			huh.NewInput().Title("Due (HH:MM)").Value(d.formDue).Validate(validWhen),
			huh.NewInput().Title("Remind at (HH:MM or +30m)").Value(d.formRemind).Validate(validWhen),
			huh.NewText().Title("Note").Value(d.formNote),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) showSubtaskForm() (todayModel, tea.Cmd) {
	*d.formText = ""
	d.formType = "subtask"

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Subtask").Value(d.formText),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d todayModel) updateForm(msg tea.Msg) (todayModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	if d.form.State == huh.StateCompleted {
		d.formActive = false
		d.form = nil
		return d.submitForm()
	}

	return d, cmd
}

func (d todayModel) submitForm() (todayModel, tea.Cmd) {
	switch d.formType {
	case "add":
		if strings.TrimSpace(*d.formText) == "" {
			return d, nil
		}
		t, err := d.app.Tasks.AddFromInput(d.date, *d.formText)
		if err != nil {
			return d, statusCmd(errStatus("Add task", err))
		}
		d.selectID = t.ID
		return d, d.refresh()

	case "subtask":
		t := d.selected()
		if t == nil {
			return d, nil
		}
		id := t.ID
		return d.apply(id, func() error {
			_, err := d.app.Tasks.AddSubtask(d.date, id, *d.formText)
			return err
		})

	case "edit":
		return d.saveEdit()
	}
	return d, nil
}

func (d todayModel) saveEdit() (todayModel, tea.Cmd) {
	id := d.editingID
	rec := d.rec
	if rec == nil || rec.Find(id) == nil {
		return d, nil
	}
	prev := *rec.Find(id)
	now := d.app.Clock.Now()

	due, err := parseWhen(*d.formDue, d.date, now)
	if err != nil {
		return d, statusCmd(errStatus("Due", err))
	}
	remind, err := parseWhen(*d.formRemind, d.date, now)
	if err != nil {
		return d, statusCmd(errStatus("Reminder", err))
	}

	title, note := *d.formTitle, *d.formNote
	patch := tasks.Patch{
		Title:      &title,
		Note:       &note,
		Tags:       strings.Fields(strings.ReplaceAll(*d.formTags, ",", " ")),
		DueAt:      due,
		ClearDueAt: due == nil,
	}
	if patch.Tags == nil {
		patch.Tags = []string{}
	}

	return d.apply(id, func() error {
		if _, err := d.app.Tasks.UpdateTask(d.date, id, patch); err != nil {
			return err
		}
		if *d.formRemind != clockInput(prev.RemindAt) {
			if _, err := d.app.Tasks.SetReminder(d.date, id, remind); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.formActive && d.form != nil {
		title := titleStyle.Render("New Task")
		switch d.formType {
		case "edit":
			title = titleStyle.Render("Edit Task")
		case "subtask":
			title = titleStyle.Render("New Subtask")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	if d.viewingDetail {
		return d.renderDetail(w)
	}

	return lipgloss.JoinVertical(lipgloss.Left, d.renderSummary(w), d.renderGroups(w))
}

func (d todayModel) renderSummary(w int) string {
	label := d.date
	if d.isToday() {
		label = "Today · " + d.date
	}
	title := titleStyle.Render(label)
	parts := []string{
		highlightStyle.Render(fmt.Sprintf("%d open", d.summary.Incomplete)),
	}
	if d.summary.TotalMinutes > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("%s left of %s",
			formatMinutes(d.summary.RemainingMinutes), formatMinutes(d.summary.TotalMinutes))))
	}
	return panelStyle.Width(w).Render(title + "  " + strings.Join(parts, "  "))
}

func (d todayModel) renderGroups(w int) string {
	if d.rec == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading..."))
	}

	var rows []string
	i := 0
	for _, s := range store.Statuses {
		group := tasks.Group(d.rec.Tasks, s)
		header := statusHeaderStyle(s).Render(fmt.Sprintf("%s (%d)", statusLabels[s], len(group)))
		if d.drag != nil && d.dropStatus == s {
			header += dropMarkerStyle.Render("  ← drop here")
		}
		rows = append(rows, header)

		slot := 0
		for _, t := range group {
			if d.drag != nil && d.dropStatus == s && t.ID != d.drag.DraggedID && slot == d.dropIndex {
				rows = append(rows, dropMarkerStyle.Render("  ────────"))
			}
			rows = append(rows, d.renderRow(t, i == d.cursor))
			if d.drag == nil || t.ID != d.drag.DraggedID {
				slot++
			}
			i++
		}
		if d.drag != nil && d.dropStatus == s && slot == d.dropIndex {
			rows = append(rows, dropMarkerStyle.Render("  ────────"))
		}
		if len(group) == 0 && d.drag == nil {
			rows = append(rows, mutedStyle.Render("  —"))
		}
		rows = append(rows, "")
	}

	hint := "  n: new  space: status  p: priority  t: estimate  *: pin  enter: details  m: move  ←/→: day"
	if d.drag != nil {
		hint = "  ↑/↓: position  ←/→: status  enter: drop  esc: cancel"
	}
	rows = append(rows, mutedStyle.Render(hint))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d todayModel) renderRow(t store.Task, selected bool) string {
	cursor := "  "
	style := normalItemStyle
	if t.Status == store.StatusDone {
		style = doneItemStyle
	}
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}
	if d.drag != nil && t.ID == d.drag.DraggedID {
		cursor = "≡ "
		style = dropMarkerStyle
	}

	var b strings.Builder
	if t.Pinned() {
		b.WriteString(accentStyle.Render("📌"))
	}
	b.WriteString(style.Render(cursor + t.Title))
	b.WriteString(" " + priorityStyle(t.Priority).Render(priorityMarks[t.Priority]))
	if e := formatEstimate(t.EstimateMinutes); e != "" {
		b.WriteString(" " + subtitleStyle.Render(e))
	}
	for _, tag := range t.Tags {
		b.WriteString(mutedStyle.Render(" #" + tag))
	}
	if len(t.Subtasks) > 0 {
		done := 0
		for _, s := range t.Subtasks {
			if s.Done {
				done++
			}
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" [%d/%d]", done, len(t.Subtasks))))
	}
	if t.RemindAt != nil && t.Status.Open() {
		b.WriteString(warningStyle.Render(" ⏰"))
	}
	if t.CarriedFrom != nil {
		b.WriteString(mutedStyle.Render(" ↻"))
	}
	return b.String()
}
