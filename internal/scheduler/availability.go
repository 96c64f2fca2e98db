package scheduler

import (
	"fmt"
	"slices"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

// IsAvailableOnWeekday reports whether the schedule has an available entry for the
// given weekday. Day names are matched exactly, Sunday is 0.
func IsAvailableOnWeekday(schedule []domain.DoctorAvailability, weekday time.Weekday) bool {
	if weekday < time.Sunday || weekday > time.Saturday {
		return false
	}

	dayName := domain.Weekdays[weekday]
	for _, entry := range schedule {
		if entry.Day == dayName && entry.IsAvailable {
			return true
		}
	}
	return false
}

// entryFor returns the first available entry for the weekday of date, or nil.
func entryFor(schedule []domain.DoctorAvailability, date time.Time) *domain.DoctorAvailability {
	dayName := domain.Weekdays[date.Weekday()]
	for i := range schedule {
		if schedule[i].Day == dayName && schedule[i].IsAvailable {
			return &schedule[i]
		}
	}
	return nil
}

// ValidateWeeklyAvailability checks a schedule before it is stored: every day name is
// known and appears once, and every available entry has a parseable window that does
// not end before it starts.
func ValidateWeeklyAvailability(schedule []domain.DoctorAvailability) error {
	seen := make(map[string]bool, len(schedule))

	for i, entry := range schedule {
		if !slices.Contains(domain.Weekdays[:], entry.Day) {
			return fmt.Errorf("%w: entry %d has unknown day %q", ErrInvalidArgument, i, entry.Day)
		}
		if seen[entry.Day] {
			return fmt.Errorf("%w: %s is listed more than once", ErrInvalidArgument, entry.Day)
		}
		seen[entry.Day] = true

		if !entry.IsAvailable {
			continue
		}

		startHour, startMinute, err := ParseTimeOfDay(entry.StartTime)
		if err != nil {
			return fmt.Errorf("%s start time: %w", entry.Day, err)
		}
		endHour, endMinute, err := ParseTimeOfDay(entry.EndTime)
		if err != nil {
			return fmt.Errorf("%s end time: %w", entry.Day, err)
		}
		if endHour*60+endMinute < startHour*60+startMinute {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidArgument, entry.Day)
		}
	}

	return nil
}
