package scheduler

import (
	"fmt"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

// DefaultSlotMinutes is used when a caller does not ask for a specific slot length.
const DefaultSlotMinutes = 30

// GenerateSlots lays fixed-length slots over the doctor's working window on date and
// drops the ones that collide with a booked interval.
//
// Slot IDs are "{doctorID}-{YYYY-MM-DD}-{n}" where n counts every candidate from 1,
// including the dropped ones, so an ID always names the same wall-clock position.
func GenerateSlots(doctorID string, date time.Time, schedule []domain.DoctorAvailability, slotMinutes int, booked []domain.BookedInterval) ([]domain.TimeSlot, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot length must be positive, got %d", ErrInvalidArgument, slotMinutes)
	}

	slots := make([]domain.TimeSlot, 0)

	entry := entryFor(schedule, date)
	if entry == nil {
		return slots, nil
	}

	dayStart, err := CombineDateAndTime(date, entry.StartTime)
	if err != nil {
		return nil, err
	}
	dayEnd, err := CombineDateAndTime(date, entry.EndTime)
	if err != nil {
		return nil, err
	}
	if dayEnd.Before(dayStart) {
		return nil, fmt.Errorf("%w: %s window %s-%s ends before it starts", ErrInvalidArgument, entry.Day, entry.StartTime, entry.EndTime)
	}

	length := time.Duration(slotMinutes) * time.Minute
	datePart := date.Format("2006-01-02")

	for n := 1; ; n++ {
		slotStart := dayStart.Add(time.Duration(n-1) * length)
		slotEnd := slotStart.Add(length)
		if slotEnd.After(dayEnd) {
			break
		}

		if collides(slotStart, slotEnd, booked) {
			continue
		}

		slots = append(slots, domain.TimeSlot{
			ID:          fmt.Sprintf("%s-%s-%d", doctorID, datePart, n),
			DoctorID:    doctorID,
			StartTime:   slotStart,
			EndTime:     slotEnd,
			IsAvailable: true,
		})
	}

	return slots, nil
}

func collides(start, end time.Time, booked []domain.BookedInterval) bool {
	for _, b := range booked {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// GroupByPeriod buckets slots by the local hour they start at: morning [6,12),
// afternoon [12,17) and evening [17,22). Slots outside those hours are left out.
func GroupByPeriod(slots []domain.TimeSlot) domain.GroupedSlots {
	grouped := domain.GroupedSlots{
		Morning:   make([]domain.TimeSlot, 0),
		Afternoon: make([]domain.TimeSlot, 0),
		Evening:   make([]domain.TimeSlot, 0),
	}

	for _, slot := range slots {
		hour := slot.StartTime.Hour()
		switch {
		case hour >= 6 && hour < 12:
			grouped.Morning = append(grouped.Morning, slot)
		case hour >= 12 && hour < 17:
			grouped.Afternoon = append(grouped.Afternoon, slot)
		case hour >= 17 && hour < 22:
			grouped.Evening = append(grouped.Evening, slot)
		}
	}

	return grouped
}
