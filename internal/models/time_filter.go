package models

import (
	"fmt"
	"strconv"
	"time"
)

// TimeFilter is the slider value: a minute of day, or Unfiltered.
type TimeFilter int

const (
	// Unfiltered selects every trip regardless of time.
	Unfiltered TimeFilter = -1

	MinMinute TimeFilter = 0
	MaxMinute TimeFilter = 1439
)

// IsUnfiltered reports whether the filter is the "any time" sentinel.
func (f TimeFilter) IsUnfiltered() bool {
	return f == Unfiltered
}

// Valid reports whether f is the sentinel or a minute in [0, 1439].
func (f TimeFilter) Valid() bool {
	return f == Unfiltered || (f >= MinMinute && f <= MaxMinute)
}

// ParseTimeFilter parses a slider value.
func ParseTimeFilter(s string) (TimeFilter, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unfiltered, fmt.Errorf("invalid time filter %q: %w", s, err)
	}
	f := TimeFilter(n)
	if !f.Valid() {
		return Unfiltered, fmt.Errorf("time filter %d out of range [-1, 1439]", n)
	}
	return f, nil
}

// FormatTime renders a minute of day as "H:MM AM/PM". The sentinel renders as "".
func FormatTime(f TimeFilter) string {
	if f.IsUnfiltered() {
		return ""
	}
	t := time.Date(2000, time.January, 1, 0, int(f), 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
