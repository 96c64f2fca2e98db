package scheduler

import (
	"math"
	"time"
)

const (
	fullTermWeeks = 40
	week          = 7 * 24 * time.Hour
)

// WeeksOfGestationFromDueDate estimates the current week of pregnancy from the
// expected due date. Remaining weeks are rounded up.
func WeeksOfGestationFromDueDate(dueDate, now time.Time) int {
	weeksRemaining := int(math.Ceil(float64(dueDate.Sub(now)) / float64(week)))
	return fullTermWeeks - weeksRemaining
}

// DueDateFromWeeksOfGestation projects the due date from the current week of pregnancy.
func DueDateFromWeeksOfGestation(weeks int, now time.Time) time.Time {
	return now.AddDate(0, 0, (fullTermWeeks-weeks)*7)
}
