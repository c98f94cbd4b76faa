package tui

import (
	"time"

	"github.com/sadopc/sidedock/internal/clock"
)

const defaultIdleTimeout = 5 * time.Minute

// activityModel tells the root model when to re-run activation: the
// calendar day changed, or the user came back after being idle. A terminal
// has no visibility events, so returning from idle stands in for the app
// coming back to the foreground.
type activityModel struct {
	clock clock.Clock
	day   string

	lastActivity time.Time
	idleTimeout  time.Duration
	isIdle       bool
}

func newActivityModel(c clock.Clock) activityModel {
	return activityModel{
		clock:        c,
		day:          clock.Today(c),
		lastActivity: c.Now(),
		idleTimeout:  defaultIdleTimeout,
	}
}

// tick reports whether the day key changed since the last tick.
func (a *activityModel) tick() bool {
	now := a.clock.Now()
	if !a.isIdle && now.Sub(a.lastActivity) > a.idleTimeout {
		a.isIdle = true
	}
	today := clock.DateKey(now)
	if today == a.day {
		return false
	}
	a.day = today
	return true
}

// recordActivity notes a key press and reports whether it ended an idle
// stretch.
func (a *activityModel) recordActivity() bool {
	a.lastActivity = a.clock.Now()
	if a.isIdle {
		a.isIdle = false
		return true
	}
	return false
}
