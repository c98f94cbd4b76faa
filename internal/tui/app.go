package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/export"
	"github.com/sadopc/sidedock/internal/reminder"
)

var exportFormats = []string{"CSV (tasks + focus sessions)", "JSON backup"}

// App is the root Bubble Tea model.
type App struct {
	app    *app.App
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today    todayModel
	history  historyModel
	focus    focusModel
	settings settingsModel
	activity activityModel

	pending *reminder.Pending
	blinkOn bool

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(a *app.App) App {
	h := help.New()
	h.ShowAll = false

	m := App{
		app:        a,
		activeView: viewToday,
		today:      newTodayModel(a),
		history:    newHistoryModel(a),
		focus:      newFocusModel(a),
		settings:   newSettingsModel(a),
		activity:   newActivityModel(a.Clock),
		help:       h,
	}
	if p, ok := a.Reminders.Pending(); ok {
		m.pending = &p
	}
	return m
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.today.refresh(),
		a.focus.refresh(),
		a.settings.refresh(),
		tickCmd(),
		waitForReminder(a.app.Reminders.Events()),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForReminder blocks on the scheduler's event channel and delivers one
// event. It is re-issued after every delivery.
func waitForReminder(ch <-chan reminder.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return reminderMsg(e)
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 5 // header + banner + footer
		a.today.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.focus.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Any key press counts as the gesture that allows audio.
		a.app.Bell.Unlock()
		if a.activity.recordActivity() {
			cmds = append(cmds, a.activate())
		}

		if a.exportPicking {
			m, cmd := a.updateExportPicker(msg)
			return m, tea.Batch(append(cmds, cmd)...)
		}

		if a.isFormActive() {
			m, cmd := a.updateActiveView(msg)
			return m, tea.Batch(append(cmds, cmd)...)
		}

		if a.pending != nil {
			if m, cmd, ok := a.updateReminder(msg); ok {
				return m, tea.Batch(append(cmds, cmd)...)
			}
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, tea.Batch(cmds...)
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, tea.Batch(cmds...)
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewToday
			return a, tea.Batch(append(cmds, a.today.refresh())...)
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewHistory
			return a, tea.Batch(append(cmds, a.history.refresh())...)
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewFocus
			return a, tea.Batch(append(cmds, a.focus.refresh())...)
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, tea.Batch(append(cmds, a.settings.refresh())...)
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, tea.Batch(append(cmds, a.refreshCurrentView())...)
		}

		m, cmd := a.updateActiveView(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case tickMsg:
		cmds = append(cmds, tickCmd())
		if a.pending != nil && a.app.Reminders.Blinking() {
			a.blinkOn = !a.blinkOn
		} else {
			a.blinkOn = false
		}
		if a.activity.tick() {
			cmds = append(cmds, a.activate())
		}
		// The focus timer ticks whichever view is showing.
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case reminderMsg:
		switch msg.Kind {
		case reminder.Triggered:
			p := msg.Pending
			a.pending = &p
		case reminder.Cleared:
			if a.pending != nil && a.pending.TaskID == msg.Pending.TaskID {
				a.pending = nil
			}
		}
		return a, waitForReminder(a.app.Reminders.Events())

	case todayDataMsg, openTaskMsg:
		if _, ok := msg.(openTaskMsg); ok {
			a.activeView = viewToday
		}
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, cmd

	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case focusDataMsg, focusTaskMsg:
		if _, ok := msg.(focusTaskMsg); ok {
			a.activeView = viewFocus
		}
		var cmd tea.Cmd
		a.focus, cmd = a.focus.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case dataChangedMsg:
		return a, a.refreshAll()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + strings.Join(msg.paths, ", ")
		a.statusErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

// activate re-runs rollover and the reminder scan, then reloads every view.
// A today view that was showing the old day moves to the new one.
func (a *App) activate() tea.Cmd {
	if err := a.app.Activate(); err != nil {
		a.app.Logger.Error("activate", "err", err)
		return statusCmd(errStatus("Activate", err))
	}
	today := a.app.Today()
	if a.today.date != today && a.today.date == clock.AddDays(today, -1) {
		a.today.date = today
	}
	return a.refreshAll()
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.today.refresh(),
		a.history.refresh(),
		a.focus.refresh(),
		a.settings.refresh(),
	)
}

func (a App) updateReminder(msg tea.KeyMsg) (App, tea.Cmd, bool) {
	var err error
	switch {
	case key.Matches(msg, keys.Open):
		p, ok := a.app.Reminders.Open()
		a.pending = nil
		if !ok {
			return a, nil, true
		}
		return a, func() tea.Msg { return openTaskMsg{date: p.Date, id: p.TaskID} }, true
	case key.Matches(msg, keys.Done):
		err = a.app.Reminders.Done()
	case key.Matches(msg, keys.Snooze):
		err = a.app.Reminders.Snooze(0)
	case key.Matches(msg, keys.Dismiss):
		err = a.app.Reminders.Dismiss()
	default:
		return a, nil, false
	}
	a.pending = nil
	if err != nil {
		return a, statusCmd(errStatus("Reminder", err)), true
	}
	return a, a.refreshAll(), true
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewToday:
		return a.today.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewFocus:
		return a.focus.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	banner := a.renderBanner()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewHistory:
		content = a.history.view()
	case viewFocus:
		content = a.focus.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if banner != "" {
		contentHeight -= lipgloss.Height(banner)
	}
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	if banner == "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, banner, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	// The title indicator blinks while a reminder waits for an answer.
	name := "sidedock"
	if a.pending != nil && a.blinkOn {
		name = "● sidedock"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render(name)
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderBanner() string {
	if a.pending == nil {
		return ""
	}
	style := bannerStyle
	if a.blinkOn {
		style = bannerDimStyle
	}
	text := fmt.Sprintf("⏰ %s · %s", a.pending.Title, formatWhen(a.pending.At, a.app.Clock.Now()))
	actions := mutedStyle.Render("  o: open  D: done  z: snooze  X: dismiss")
	return " " + style.Render(text) + actions
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	if st := a.app.Focus.State(); st.Running {
		timerInfo = successStyle.Render(" ● " + formatSeconds(a.app.Focus.Display()))
	} else if st.AccumulatedMillis > 0 {
		timerInfo = warningStyle.Render(" ⏸ " + formatSeconds(a.app.Focus.Display()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker(_ int) string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (App, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		home, err := homedir.Dir()
		if err != nil {
			return a, statusCmd(errStatus("Export", err))
		}
		return a, a.doExport(a.exportCursor, home)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int, dir string) tea.Cmd {
	return func() tea.Msg {
		now := a.app.Clock.Now()
		dateStr := clock.DateKey(now)

		if format == 0 {
			days, err := a.app.Store.ListAllDays()
			if err != nil {
				return errStatus("Export", err)
			}
			sessions, err := a.app.Store.ListSessions("", "")
			if err != nil {
				return errStatus("Export", err)
			}
			tasksPath := filepath.Join(dir, fmt.Sprintf("sidedock-tasks-%s.csv", dateStr))
			sessionsPath := filepath.Join(dir, fmt.Sprintf("sidedock-focus-%s.csv", dateStr))
			if err := export.TasksToCSV(days, tasksPath); err != nil {
				return errStatus("CSV error", err)
			}
			if err := export.SessionsToCSV(sessions, sessionsPath); err != nil {
				return errStatus("CSV error", err)
			}
			return exportDoneMsg{paths: []string{tasksPath, sessionsPath}}
		}

		path := filepath.Join(dir, fmt.Sprintf("sidedock-export-%s.json", dateStr))
		if err := export.ToJSON(a.app.Store, now, path); err != nil {
			return errStatus("JSON error", err)
		}
		return exportDoneMsg{paths: []string{path}}
	}
}
