package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/store"
)

var (
	colorPrimary   = lipgloss.Color("#7C9CFF")
	colorSecondary = lipgloss.Color("#5FD7C4")
	colorAccent    = lipgloss.Color("#FF7A90")
	colorMuted     = lipgloss.Color("#6B7089")
	colorSuccess   = lipgloss.Color("#8BD67A")
	colorWarning   = lipgloss.Color("#F5B45A")
	colorError     = lipgloss.Color("#F2545B")
	colorBg        = lipgloss.Color("#1E2030")
	colorFg        = lipgloss.Color("#CAD3F5")
	colorBorder    = lipgloss.Color("#3B4261")
)

func fg(c lipgloss.Color) lipgloss.Style     { return lipgloss.NewStyle().Foreground(c) }
func boldFg(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

func panel(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
}

var (
	activeTabStyle = boldFg(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	panelStyle       = panel(colorBorder)
	activePanelStyle = panel(colorPrimary)

	// The banner alternates between these two while blinking.
	bannerStyle    = boldFg(colorBg).Background(colorWarning).Padding(0, 1)
	bannerDimStyle = boldFg(colorWarning).Background(colorBg).Padding(0, 1)

	timerStyle        = boldFg(colorPrimary).Align(lipgloss.Center)
	timerRunningStyle = boldFg(colorSuccess).Align(lipgloss.Center)
	timerPausedStyle  = boldFg(colorWarning).Align(lipgloss.Center)

	titleStyle     = boldFg(colorFg)
	subtitleStyle  = fg(colorSecondary)
	accentStyle    = fg(colorAccent)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorPrimary)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = fg(colorMuted).Padding(0, 1)

	selectedItemStyle = boldFg(colorPrimary)
	normalItemStyle   = fg(colorFg)
	doneItemStyle     = fg(colorMuted).Strikethrough(true)
	dropMarkerStyle   = boldFg(colorSecondary)
)

var statusColors = map[store.Status]lipgloss.Color{
	store.StatusInProgress: colorPrimary,
	store.StatusWaiting:    colorWarning,
	store.StatusDone:       colorSuccess,
}

var priorityColors = map[store.Priority]lipgloss.Color{
	store.PriorityLow:  colorMuted,
	store.PriorityMid:  colorWarning,
	store.PriorityHigh: colorAccent,
}

func statusHeaderStyle(s store.Status) lipgloss.Style { return boldFg(statusColors[s]) }

func priorityStyle(p store.Priority) lipgloss.Style { return fg(priorityColors[p]) }
