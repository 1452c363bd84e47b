package travel

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate reads a stored date string and returns its calendar date as UTC
// midnight. Timestamps are converted to UTC before the time of day is dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DurationDays returns the number of calendar days between entry and exit,
// both endpoints included, so DurationDays(d, d) == 1. Callers are expected
// to pass entry <= exit; reversed inputs are measured the same way.
func DurationDays(entry, exit time.Time) int {
	days := int(calendarDay(exit).Sub(calendarDay(entry)) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}
	return days + 1
}

// Duration parses the stay dates and returns its inclusive length in days.
func (s Stay) Duration() (int, error) {
	entry, err := ParseDate(s.EntryDate)
	if err != nil {
		return 0, err
	}
	exit, err := ParseDate(s.ExitDate)
	if err != nil {
		return 0, err
	}
	return DurationDays(entry, exit), nil
}
