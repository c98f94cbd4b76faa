package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sidedock/internal/app"
	"github.com/sadopc/sidedock/internal/clock"
	"github.com/sadopc/sidedock/internal/store"
)

type chartMode int

const (
	chartDone chartMode = iota
	chartFocus
)

// historyModel lists the days kept by the retention sweep and charts
// completions and focus time across them.
type historyModel struct {
	app    *app.App
	width  int
	height int

	mode   chartMode
	dates  []string // retained days, newest first, today excluded
	cursor int
	day    *store.DayRecord

	done  map[string]int64
	focus map[string]int64

	chart barchart.Model
}

func newHistoryModel(a *app.App) historyModel {
	return historyModel{
		app:   a,
		chart: barchart.New(60, 12),
	}
}

func (h *historyModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

type historyDataMsg struct {
	dates []string
	day   *store.DayRecord
	done  []store.DailyCount
	focus []store.DailyCount
	err   error
}

func (h historyModel) refresh() tea.Cmd {
	cursor := h.cursor
	return func() tea.Msg {
		recent := clock.RecentDates(h.app.Clock.Now(), h.app.Config.RetentionDays)
		dates := recent[1:]
		today, oldest := recent[0], recent[len(recent)-1]

		msg := historyDataMsg{dates: dates}
		if len(dates) > 0 {
			if cursor >= len(dates) {
				cursor = len(dates) - 1
			}
			msg.day, msg.err = h.app.Store.GetDay(dates[cursor])
			if msg.err != nil {
				return msg
			}
		}
		if msg.done, msg.err = h.app.Store.CountDoneLogsByDate(oldest, today); msg.err != nil {
			return msg
		}
		msg.focus, msg.err = h.app.Store.FocusSecondsByDate(oldest, today)
		return msg
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			return h, statusCmd(errStatus("Load history", msg.err))
		}
		h.dates = msg.dates
		h.day = msg.day
		h.done = countsByDate(msg.done)
		h.focus = countsByDate(msg.focus)
		if h.cursor >= len(h.dates) {
			h.cursor = max(0, len(h.dates)-1)
		}
		h.buildChart()
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
				return h, h.refresh()
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.dates)-1 {
				h.cursor++
				return h, h.refresh()
			}
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if h.mode == chartDone {
				h.mode = chartFocus
			} else {
				h.mode = chartDone
			}
			h.buildChart()
		case key.Matches(msg, keys.Restore):
			return h.restore()
		case key.Matches(msg, keys.Enter):
			if h.cursor < len(h.dates) {
				date := h.dates[h.cursor]
				return h, func() tea.Msg { return openTaskMsg{date: date} }
			}
		}
	}
	return h, nil
}

// restore copies the selected day's unfinished tasks into today.
func (h historyModel) restore() (historyModel, tea.Cmd) {
	if h.cursor >= len(h.dates) {
		return h, nil
	}
	from := h.dates[h.cursor]
	n, err := h.app.Rollover.RestoreIncomplete(from)
	if err != nil {
		return h, statusCmd(errStatus("Restore", err))
	}
	text := fmt.Sprintf("Restored %d unfinished task(s) from %s", n, from)
	if n == 0 {
		text = "Nothing unfinished on " + from
	}
	return h, tea.Batch(
		statusCmd(statusMsg{text: text}),
		func() tea.Msg { return dataChangedMsg{} },
	)
}

func countsByDate(rows []store.DailyCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, r := range rows {
		m[r.Date] = r.Count
	}
	return m
}

func (h *historyModel) buildChart() {
	chartWidth := h.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 10
	if h.height > 36 {
		chartHeight = 14
	}

	h.chart = barchart.New(chartWidth, chartHeight)

	// Oldest on the left, today on the right.
	recent := clock.RecentDates(h.app.Clock.Now(), h.app.Config.RetentionDays)
	var bars []barchart.BarData
	for i := len(recent) - 1; i >= 0; i-- {
		date := recent[i]
		label := date[5:]

		var value barchart.BarValue
		if h.mode == chartDone {
			value = barchart.BarValue{
				Name:  "done",
				Value: float64(h.done[date]),
				Style: lipgloss.NewStyle().Foreground(colorSuccess),
			}
		} else {
			value = barchart.BarValue{
				Name:  "focus",
				Value: float64(h.focus[date]) / 60,
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}
		}
		bars = append(bars, barchart.BarData{Label: label, Values: []barchart.BarValue{value}})
	}

	h.chart.PushAll(bars)
	h.chart.Draw()
}

func (h historyModel) view() string {
	w := h.width - 4

	doneTab := inactiveTabStyle.Render("Completed")
	focusTab := inactiveTabStyle.Render("Focus minutes")
	if h.mode == chartDone {
		doneTab = activeTabStyle.Render("Completed")
	} else {
		focusTab = activeTabStyle.Render("Focus minutes")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", doneTab, focusTab,
	)

	nav := mutedStyle.Render("  ↑/↓: day  ←/→: chart  r: restore unfinished  enter: open day")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", h.chart.View(), "", h.renderDays(w), "", nav,
		),
	)
}

func (h historyModel) renderDays(w int) string {
	if len(h.dates) == 0 {
		return mutedStyle.Render("  No earlier days are kept")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %6s %6s %10s", "Date", "Tasks", "Done", "Focus")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 40))))
	for i, date := range h.dates {
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		total, open := "", ""
		if i == h.cursor && h.day != nil {
			total = fmt.Sprintf("%d", len(h.day.Tasks))
			n := 0
			for _, t := range h.day.Tasks {
				if t.Status.Open() {
					n++
				}
			}
			if n > 0 {
				open = warningStyle.Render(fmt.Sprintf("  %d unfinished", n))
			}
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-12s %6s %6d %10s",
			cursor, date, total, h.done[date], formatSeconds(h.focus[date])))+open)
	}
	return strings.Join(rows, "\n")
}
