package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for local calendar dates.
const DateLayout = "2006-01-02"

// CanonicalDate truncates t to its calendar date at midnight UTC. The engine
// stores exactly one canonical local date per user action.
func CanonicalDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day difference b-a between two dates.
func DaysBetween(a, b time.Time) int {
	return int(CanonicalDate(b).Sub(CanonicalDate(a)).Hours() / 24)
}

// ParseDateParam parses an optional "YYYY-MM-DD" request field; empty means
// today.
func ParseDateParam(s string) (time.Time, error) {
	if s == "" {
		return CanonicalDate(time.Now().UTC()), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return CanonicalDate(t), nil
}
