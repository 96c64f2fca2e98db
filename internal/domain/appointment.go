package domain

import (
	"time"
)

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusNoShow      AppointmentStatus = "no-show"
)

// Blocking reports whether an appointment in this status still occupies its slot.
func (s AppointmentStatus) Blocking() bool {
	switch s {
	case StatusCancelled, StatusNoShow:
		return false
	default:
		return true
	}
}

type ContactMethod string

const (
	ContactEmail ContactMethod = "email"
	ContactPhone ContactMethod = "phone"
	ContactSMS   ContactMethod = "sms"
)

type PregnancyInfo struct {
	IsPregnant       bool       `json:"isPregnant"`
	WeeksOfGestation *int       `json:"weeksOfGestation,omitempty"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	IsHighRisk       bool       `json:"isHighRisk"`
}

type PatientInfo struct {
	Name                   string         `json:"name"`
	Email                  string         `json:"email"`
	Phone                  string         `json:"phone"`
	DateOfBirth            *time.Time     `json:"dateOfBirth,omitempty"`
	IsReturningPatient     bool           `json:"isReturningPatient"`
	MedicalRecordNumber    *string        `json:"medicalRecordNumber,omitempty"`
	PregnancyInfo          *PregnancyInfo `json:"pregnancyInfo,omitempty"`
	PreferredContactMethod ContactMethod  `json:"preferredContactMethod"`
}

// Appointment is a booked visit with a specific doctor.
type Appointment struct {
	ID                 string            `json:"id"`
	DoctorID           string            `json:"doctorId"`
	ServiceID          string            `json:"serviceId"`
	DateTime           time.Time         `json:"dateTime"`
	Duration           int               `json:"duration"` // minutes
	Status             AppointmentStatus `json:"status"`
	ReasonForVisit     string            `json:"reasonForVisit"`
	CurrentMedications *string           `json:"currentMedications,omitempty"`
	Allergies          *string           `json:"allergies,omitempty"`
	Notes              *string           `json:"notes"`
	IsNewPatient       bool              `json:"isNewPatient"`
	IsEmergency        bool              `json:"isEmergency"`
	AddToCalendar      string            `json:"addToCalendar"`
	PatientInfo        PatientInfo       `json:"patientInfo"`
	ConfirmationCode   string            `json:"confirmationCode"`
	ConfirmationSent   bool              `json:"confirmationSent"`
	ReminderSent       bool              `json:"reminderSent"`
	CancellationReason *string           `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
	Version            int32             `json:"-"`
}

// EndTime is DateTime plus Duration minutes.
func (a *Appointment) EndTime() time.Time {
	return a.DateTime.Add(time.Duration(a.Duration) * time.Minute)
}

type AppointmentConfirmation struct {
	AppointmentID           string    `json:"appointmentId"`
	PatientName             string    `json:"patientName"`
	DoctorName              string    `json:"doctorName"`
	ServiceName             string    `json:"serviceName"`
	DateTime                time.Time `json:"dateTime"`
	Duration                int       `json:"duration"`
	ConfirmationCode        string    `json:"confirmationCode"`
	PreparationInstructions []string  `json:"preparationInstructions,omitempty"`

	Status AppointmentStatus `json:"status"`
}

// AppointmentRequest is the short contact form on the public website. Staff follow
// up on it manually, so it is not tied to a doctor or a slot.
type AppointmentRequest struct {
	ID            string            `json:"id"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Email         string            `json:"email"`
	Phone         string            `json:"phone"`
	PreferredDate string            `json:"preferredDate"`
	PreferredTime string            `json:"preferredTime"`
	ServiceNeeded string            `json:"serviceNeeded"`
	Notes         *string           `json:"notes"`
	Status        AppointmentStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type NewsletterSubscription struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}
