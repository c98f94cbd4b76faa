// Package clock provides the wall-clock and calendar-day helpers the rest of
// the engine is built on. Everything that reads the time or arms a timer goes
// through a Clock so tests can drive it by hand.
package clock

import (
	"fmt"
	"time"
)

// DateLayout is the layout of a day key: YYYY-MM-DD in local time.
const DateLayout = "2006-01-02"

// Clock is the source of "now" and of one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending one-shot callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call stopped the timer
	// before it fired.
	Stop() bool
}

type systemClock struct{}

// System returns the real clock.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// DateKey converts t to its calendar-day key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the day key for c.Now() in local time.
func Today(c Clock) string {
	return DateKey(c.Now().Local())
}

// ParseDateKey parses a day key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a day key by n calendar days. Invalid keys are returned unchanged.
func AddDays(key string, n int) string {
	t, err := ParseDateKey(key)
	if err != nil {
		return key
	}
	return DateKey(t.AddDate(0, 0, n))
}

// RecentDates returns the keys of the n most recent calendar days ending
// with now's day, newest first.
func RecentDates(now time.Time, n int) []string {
	now = now.Local()
	dates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, DateKey(now.AddDate(0, 0, -i)))
	}
	return dates
}

// Millis converts t to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).Local()
}
