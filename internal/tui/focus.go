package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/focus"
	"github.com/sadopc/sidedock/internal/store"
)

const plannedStep = 5

type focusModel struct {
	app    *app.App
	width  int
	height int

	taskTitle string
}

func newFocusModel(a *app.App) focusModel {
	return focusModel{app: a}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

type focusDataMsg struct {
	taskTitle string
}

// refresh resolves the active task id. The id is a weak reference, so a
// deleted task just shows as missing.
func (f focusModel) refresh() tea.Cmd {
	id := f.app.Focus.State().ActiveTaskID
	return func() tea.Msg {
		if id == nil {
			return focusDataMsg{}
		}
		_, t, err := f.app.Tasks.FindTask(*id)
		if err != nil || t == nil {
			return focusDataMsg{taskTitle: "(task removed)"}
		}
		return focusDataMsg{taskTitle: t.Title}
	}
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	switch msg := msg.(type) {
	case focusDataMsg:
		f.taskTitle = msg.taskTitle
		return f, nil

	case tickMsg:
		fs, err := f.app.Focus.Tick()
		if err != nil {
			return f, statusCmd(errStatus("Focus", err))
		}
		if fs != nil {
			f.chime()
			return f, tea.Batch(
				statusCmd(statusMsg{text: "Countdown finished, " + formatSeconds(fs.DurationSeconds) + " recorded"}),
				func() tea.Msg { return dataChangedMsg{} },
			)
		}
		return f, nil

	case focusTaskMsg:
		id := msg.id
		if err := f.app.Focus.SetActiveTask(&id); err != nil {
			return f, statusCmd(errStatus("Focus", err))
		}
		f.taskTitle = msg.title
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if err := f.app.Focus.Start(); err != nil {
				return f, statusCmd(errStatus("Focus", err))
			}
		case key.Matches(msg, keys.Stop):
			return f.stop()
		case key.Matches(msg, keys.Reset):
			if err := f.app.Focus.Reset(); err != nil {
				return f, statusCmd(errStatus("Focus", err))
			}
		case key.Matches(msg, keys.Mode):
			next := store.FocusCountdown
			if f.app.Focus.State().Mode == store.FocusCountdown {
				next = store.FocusStopwatch
			}
			return f.changed(f.app.Focus.SetMode(next))
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			minutes := int(f.app.Focus.State().PlannedSeconds / 60)
			if key.Matches(msg, keys.Left) {
				minutes -= plannedStep
			} else {
				minutes += plannedStep
			}
			return f.changed(f.app.Focus.SetPlannedMinutes(max(plannedStep, minutes)))
		case key.Matches(msg, keys.Delete):
			if err := f.app.Focus.SetActiveTask(nil); err != nil {
				return f, statusCmd(errStatus("Focus", err))
			}
			f.taskTitle = ""
		}
	}
	return f, nil
}

func (f focusModel) changed(ok bool, err error) (focusModel, tea.Cmd) {
	if err != nil {
		return f, statusCmd(errStatus("Focus", err))
	}
	if !ok {
		return f, statusCmd(statusMsg{text: "Stop the timer first", isError: true})
	}
	return f, nil
}

func (f focusModel) stop() (focusModel, tea.Cmd) {
	fs, err := f.app.Focus.Stop()
	if err != nil {
		return f, statusCmd(errStatus("Focus", err))
	}
	if fs == nil {
		return f, statusCmd(statusMsg{text: fmt.Sprintf("Under %d seconds, not recorded", focus.MinSessionSeconds)})
	}
	return f, tea.Batch(
		statusCmd(statusMsg{text: "Recorded " + formatSeconds(fs.DurationSeconds)}),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

// chime plays the audio cue when sound is on and a key press has unlocked
// playback.
func (f focusModel) chime() {
	if !f.app.Store.BoolSetting(store.SettingSoundEnabled, false) || !f.app.Bell.Unlocked() {
		return
	}
	if err := f.app.Bell.Play(); err != nil {
		f.app.Logger.Warn("focus chime", "err", err)
	}
}

func (f focusModel) view() string {
	w := f.width - 4
	st := f.app.Focus.State()
	display := formatSeconds(f.app.Focus.Display())

	modeLabel := "Stopwatch"
	if st.Mode == store.FocusCountdown {
		modeLabel = fmt.Sprintf("Countdown · %d min", st.PlannedSeconds/60)
	}

	var timeDisplay, indicator string
	switch {
	case st.Running:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(display)
		indicator = successStyle.Render("●  RUNNING")
	case st.AccumulatedMillis > 0:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(display)
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(display)
		indicator = mutedStyle.Render("■  STOPPED")
	}

	task := mutedStyle.Render("No task attached. Press f on a task in Today.")
	if f.taskTitle != "" {
		task = highlightStyle.Render(f.taskTitle)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Focus"),
		subtitleStyle.Render(modeLabel),
		"",
		timeDisplay,
		indicator,
		"",
		task,
	)

	controls := mutedStyle.Render("s: start/pause  x: stop  r: reset  m: mode  ←/→: minutes  d: detach")
	style := panelStyle
	if st.Running {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, content, "", controls))
}
