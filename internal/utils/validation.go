package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
)

var statusTransitions = map[domain.AppointmentStatus][]domain.AppointmentStatus{
	domain.StatusPending: {
		domain.StatusScheduled, domain.StatusConfirmed, domain.StatusCancelled,
	},
	domain.StatusScheduled: {
		domain.StatusConfirmed, domain.StatusRescheduled, domain.StatusCancelled, domain.StatusCompleted, domain.StatusNoShow,
	},
	domain.StatusConfirmed: {
		domain.StatusRescheduled, domain.StatusCancelled, domain.StatusCompleted, domain.StatusNoShow,
	},
	domain.StatusRescheduled: {
		domain.StatusConfirmed, domain.StatusRescheduled, domain.StatusCancelled, domain.StatusCompleted, domain.StatusNoShow,
	},
	// completed, cancelled and no-show are final
}

// ValidateStatusTransition reports whether an appointment may move from one status
// to the other.
func ValidateStatusTransition(from, to domain.AppointmentStatus) error {
	if _, ok := statusTransitions[to]; !ok && !isFinal(to) {
		return fmt.Errorf("unknown status %q", to)
	}
	if !slices.Contains(statusTransitions[from], to) {
		return fmt.Errorf("cannot change status from %q to %q", from, to)
	}
	return nil
}

func isFinal(s domain.AppointmentStatus) bool {
	return s == domain.StatusCompleted || s == domain.StatusCancelled || s == domain.StatusNoShow
}

// ValidateDoctorProfile checks the fields of a new doctor that struct tags cannot.
func ValidateDoctorProfile(doctor *domain.Doctor) error {
	if doctor.Rating < 0 || doctor.Rating > 5 {
		return errors.New("rating must be between 0 and 5")
	}

	if len(doctor.Specialization) == 0 {
		return errors.New("at least one specialization is required")
	}

	if err := scheduler.ValidateWeeklyAvailability(doctor.Availability); err != nil {
		return err
	}

	return nil
}
