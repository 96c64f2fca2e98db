package scheduler

import (
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

// Scheduler answers availability questions for one doctor given the appointments
// already on the books.
type Scheduler struct {
	doctor *domain.Doctor
	booked []domain.BookedInterval // only blocking appointments of this doctor
}

func New(doctor *domain.Doctor, appointments []*domain.Appointment) *Scheduler {
	s := &Scheduler{
		doctor: doctor,
		booked: make([]domain.BookedInterval, 0, len(appointments)),
	}

	for _, a := range appointments {
		if a.DoctorID != doctor.ID || !a.Status.Blocking() {
			continue
		}
		s.booked = append(s.booked, domain.BookedInterval{
			Start: a.DateTime,
			End:   a.EndTime(),
		})
	}

	return s
}

// Booked returns the intervals that touch date's calendar day.
func (s *Scheduler) Booked(date time.Time) []domain.BookedInterval {
	dayStart := StartOfDay(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	intervals := make([]domain.BookedInterval, 0)
	for _, b := range s.booked {
		if Overlaps(dayStart, dayEnd, b.Start, b.End) {
			intervals = append(intervals, b)
		}
	}
	return intervals
}

func (s *Scheduler) Slots(date time.Time, slotMinutes int) ([]domain.TimeSlot, error) {
	return GenerateSlots(s.doctor.ID, date, s.doctor.Availability, slotMinutes, s.Booked(date))
}

// Offers reports whether a slot starting exactly at start is free.
func (s *Scheduler) Offers(start time.Time, slotMinutes int) (bool, error) {
	slots, err := s.Slots(start, slotMinutes)
	if err != nil {
		return false, err
	}

	for _, slot := range slots {
		if slot.StartTime.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

// AvailableDates lists the days in [from, from+days) on which the doctor works.
func (s *Scheduler) AvailableDates(from time.Time, days int) []time.Time {
	dates := make([]time.Time, 0)
	for _, d := range DateRange(from, days) {
		if IsAvailableOnWeekday(s.doctor.Availability, d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates
}
