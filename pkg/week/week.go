// Package week maps calendar dates onto the twelve weeks of an execution
// cycle and back.
package week

import (
	"errors"
	"fmt"
	"time"
)

// WeeksPerCycle is the fixed length of a cycle.
const WeeksPerCycle = 12

// DateLayout is the on-disk and command-line date format.
const DateLayout = "2006-01-02"

// ErrInvalidInput is returned for malformed dates and out-of-range weeks.
var ErrInvalidInput = errors.New("invalid input")

// Date truncates t to midnight UTC of its calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, ErrInvalidInput)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Number returns the 1-based week of current within the cycle that starts on
// cycleStart. Dates before the cycle map to week 1, dates after it to week 12.
func Number(cycleStart, current time.Time) int {
	n := floorDiv(daysBetween(cycleStart, current), 7) + 1
	if n < 1 {
		return 1
	}
	if n > WeeksPerCycle {
		return WeeksPerCycle
	}
	return n
}

// Valid reports whether w is a week index within a cycle.
func Valid(w int) bool {
	return w >= 1 && w <= WeeksPerCycle
}

// Check returns an error wrapping ErrInvalidInput when w is outside 1..12.
func Check(w int) error {
	if !Valid(w) {
		return fmt.Errorf("week %d outside 1-%d: %w", w, WeeksPerCycle, ErrInvalidInput)
	}
	return nil
}

// Range returns the first and last calendar dates of week w.
func Range(cycleStart time.Time, w int) (start, end time.Time, err error) {
	if err := Check(w); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = Date(cycleStart).AddDate(0, 0, 7*(w-1))
	return start, start.AddDate(0, 0, 6), nil
}

// Days returns the seven dates of week w in order.
func Days(cycleStart time.Time, w int) ([]time.Time, error) {
	start, _, err := Range(cycleStart, w)
	if err != nil {
		return nil, err
	}
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days, nil
}

// CycleEnd returns the end date recorded for a cycle starting on start.
func CycleEnd(start time.Time) time.Time {
	return Date(start).AddDate(0, 0, 7*WeeksPerCycle)
}

// InCycle reports whether date falls between start and end inclusive.
func InCycle(date, start, end time.Time) bool {
	d := Date(date)
	return !d.Before(Date(start)) && !d.After(Date(end))
}
