package domain

import (
	"time"
)

// TimeSlot is a bookable interval offered to a patient.
type TimeSlot struct {
	ID            string    `json:"id"`
	DoctorID      string    `json:"doctorId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	IsAvailable   bool      `json:"isAvailable"`
	AppointmentID *string   `json:"appointmentId"`
}

// BookedInterval is an existing appointment's occupied span.
type BookedInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type GroupedSlots struct {
	Morning   []TimeSlot `json:"morning"`
	Afternoon []TimeSlot `json:"afternoon"`
	Evening   []TimeSlot `json:"evening"`
}
