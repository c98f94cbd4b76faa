package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/store"
)

var settingLabels = map[string]string{
	store.SettingSoundEnabled:        "Sound",
	store.SettingSnoozeMinutes:       "Snooze",
	store.SettingFocusMode:           "Focus mode",
	store.SettingFocusPlannedMinutes: "Countdown length",
	store.SettingNotifyPermission:    "Notifications",
}

type settingsModel struct {
	app    *app.App
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	soundEnabled   *bool
	snoozeMinutes  *string
	focusMode      *string
	plannedMinutes *string
}

func newSettingsModel(a *app.App) settingsModel {
	sound := false
	snooze, mode, planned := "", "", ""
	return settingsModel{
		app:            a,
		soundEnabled:   &sound,
		snoozeMinutes:  &snooze,
		focusMode:      &mode,
		plannedMinutes: &planned,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.app.Store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return errors.New("enter a whole number of minutes")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.app.Store
	*s.soundEnabled = st.BoolSetting(store.SettingSoundEnabled, false)
	*s.snoozeMinutes = strconv.Itoa(st.IntSetting(store.SettingSnoozeMinutes, 10))
	*s.focusMode = s.getVal(store.SettingFocusMode, string(store.FocusStopwatch))
	*s.plannedMinutes = strconv.Itoa(st.IntSetting(store.SettingFocusPlannedMinutes, 25))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Play a sound for reminders").Value(s.soundEnabled),
			huh.NewInput().Title("Snooze (min)").Value(s.snoozeMinutes).Validate(positiveInt),
		).Title("Reminders"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Focus mode").
				Options(
					huh.NewOption("Stopwatch", string(store.FocusStopwatch)),
					huh.NewOption("Countdown", string(store.FocusCountdown)),
				).Value(s.focusMode),
			huh.NewInput().Title("Countdown length (min)").Value(s.plannedMinutes).Validate(positiveInt),
		).Title("Focus"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(errStatus("Save settings", err))
		}
		return s, tea.Batch(s.refresh(), statusCmd(statusMsg{text: "Settings saved"}))
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	st := s.app.Store
	values := map[string]string{
		store.SettingSoundEnabled:        strconv.FormatBool(*s.soundEnabled),
		store.SettingSnoozeMinutes:       *s.snoozeMinutes,
		store.SettingFocusMode:           *s.focusMode,
		store.SettingFocusPlannedMinutes: *s.plannedMinutes,
	}
	for k, v := range values {
		if err := st.SetSetting(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	// A running timer keeps its mode and length until it stops.
	if _, err := s.app.Focus.SetMode(store.FocusMode(*s.focusMode)); err != nil {
		return err
	}
	if n, err := strconv.Atoi(*s.plannedMinutes); err == nil {
		if _, err := s.app.Focus.SetPlannedMinutes(n); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.app.Store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"))
	rows = append(rows, "")

	for _, setting := range s.settings {
		name, ok := settingLabels[setting.Key]
		if !ok {
			name = setting.Key
		}
		label := lipgloss.NewStyle().Width(24).Render(name)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	cfg := s.app.Config
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  database %s · keeps %d days · %d pins", cfg.DBPath, cfg.RetentionDays, cfg.MaxPins)))
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingSnoozeMinutes, store.SettingFocusPlannedMinutes:
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d min", n)
		}
	case store.SettingSoundEnabled:
		if b, err := strconv.ParseBool(v); err == nil {
			if b {
				return "on"
			}
			return "off"
		}
	}
	return v
}
