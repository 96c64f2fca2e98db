package scheduler

import (
	"fmt"
	"time"
)

// ParseTimeOfDay parses a zero-padded 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q is not HH:MM", ErrMalformedInput, s)
	}

	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q is not HH:MM", ErrMalformedInput, s)
	}

	return t.Hour(), t.Minute(), nil
}

// CombineDateAndTime returns the calendar day of date at the wall-clock time hhmm,
// in date's location.
func CombineDateAndTime(date time.Time, hhmm string) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}

	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location()), nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd)
// share any instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DateRange returns days consecutive calendar days starting at start's midnight.
func DateRange(start time.Time, days int) []time.Time {
	if days <= 0 {
		return []time.Time{}
	}

	first := StartOfDay(start)
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i)
	}
	return dates
}

// IsDateInPast reports whether t's calendar day is before now's calendar day.
func IsDateInPast(t, now time.Time) bool {
	return StartOfDay(t).Before(StartOfDay(now.In(t.Location())))
}
