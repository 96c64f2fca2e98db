package wizard

import (
	"fmt"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
)

// DateLayout is the wire format of every calendar date in the wizard.
const DateLayout = "2006-01-02"

type ServiceSelection struct {
	ServiceID string `json:"serviceId" validate:"required"`
}

type DoctorSelection struct {
	DoctorID string `json:"doctorId" validate:"required"`
}

type DateTimeSelection struct {
	AppointmentDate string `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	AppointmentTime string `json:"appointmentTime" validate:"required,hhmm"`
	Duration        int    `json:"duration" validate:"omitempty,min=5,max=480"`
}

type PatientInformation struct {
	PatientName         string `json:"patientName" validate:"required,min=2,max=100,personname"`
	PatientEmail        string `json:"patientEmail" validate:"required,email,max=100"`
	PatientPhone        string `json:"patientPhone" validate:"required,phone"`
	DateOfBirth         string `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsReturningPatient  bool   `json:"isReturningPatient"`
	MedicalRecordNumber string `json:"medicalRecordNumber,omitempty" validate:"omitempty,max=50,mrn"`
}

type MedicalInformation struct {
	ReasonForVisit     string `json:"reasonForVisit" validate:"required,min=5,max=1000"`
	IsPregnant         *bool  `json:"isPregnant,omitempty"`
	WeeksOfGestation   *int   `json:"weeksOfGestation,omitempty" validate:"omitempty,min=1,max=42"`
	DueDate            string `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsHighRisk         *bool  `json:"isHighRisk,omitempty"`
	CurrentMedications string `json:"currentMedications,omitempty" validate:"max=1000"`
	Allergies          string `json:"allergies,omitempty" validate:"max=1000"`
}

type Preferences struct {
	PreferredContactMethod string `json:"preferredContactMethod" validate:"required,oneof=email phone sms"`
	IsEmergency            bool   `json:"isEmergency"`
	Notes                  string `json:"notes,omitempty" validate:"max=1000"`
	AddToCalendar          string `json:"addToCalendar,omitempty" validate:"omitempty,oneof=google apple outlook none"`
}

// Form is everything the booking wizard collects, flattened on the wire.
type Form struct {
	ServiceSelection
	DoctorSelection
	DateTimeSelection
	PatientInformation
	MedicalInformation
	Preferences
}

func (f *Form) pregnant() bool {
	return f.IsPregnant != nil && *f.IsPregnant
}

// Start resolves the chosen date and time in loc.
func (f *Form) Start(loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, f.AppointmentDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: appointment date %q", scheduler.ErrMalformedInput, f.AppointmentDate)
	}
	return scheduler.CombineDateAndTime(date, f.AppointmentTime)
}

// Complete fills in whichever of weeks of gestation and due date is missing.
func (f *Form) Complete(now time.Time) {
	if !f.pregnant() {
		return
	}

	switch {
	case f.WeeksOfGestation == nil && f.DueDate != "":
		due, err := time.ParseInLocation(DateLayout, f.DueDate, now.Location())
		if err != nil {
			return
		}
		weeks := scheduler.WeeksOfGestationFromDueDate(due, now)
		f.WeeksOfGestation = &weeks
	case f.WeeksOfGestation != nil && f.DueDate == "":
		f.DueDate = scheduler.DueDateFromWeeksOfGestation(*f.WeeksOfGestation, now).Format(DateLayout)
	}
}

// Appointment converts a validated form into an appointment in loc. The caller
// sets the ID, status and confirmation code.
func (f *Form) Appointment(loc *time.Location, defaultDuration int) (*domain.Appointment, error) {
	start, err := f.Start(loc)
	if err != nil {
		return nil, err
	}

	duration := f.Duration
	if duration == 0 {
		duration = defaultDuration
	}

	a := &domain.Appointment{
		DoctorID:       f.DoctorID,
		ServiceID:      f.ServiceID,
		DateTime:       start,
		Duration:       duration,
		ReasonForVisit: f.ReasonForVisit,
		IsNewPatient:   !f.IsReturningPatient,
		IsEmergency:    f.IsEmergency,
		AddToCalendar:  f.AddToCalendar,
		PatientInfo: domain.PatientInfo{
			Name:                   f.PatientName,
			Email:                  f.PatientEmail,
			Phone:                  f.PatientPhone,
			IsReturningPatient:     f.IsReturningPatient,
			PreferredContactMethod: domain.ContactMethod(f.PreferredContactMethod),
		},
	}
	if a.AddToCalendar == "" {
		a.AddToCalendar = "none"
	}

	if f.Notes != "" {
		a.Notes = &f.Notes
	}
	if f.CurrentMedications != "" {
		a.CurrentMedications = &f.CurrentMedications
	}
	if f.Allergies != "" {
		a.Allergies = &f.Allergies
	}
	if f.MedicalRecordNumber != "" {
		a.PatientInfo.MedicalRecordNumber = &f.MedicalRecordNumber
	}
	if f.DateOfBirth != "" {
		dob, err := time.ParseInLocation(DateLayout, f.DateOfBirth, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date of birth %q", scheduler.ErrMalformedInput, f.DateOfBirth)
		}
		a.PatientInfo.DateOfBirth = &dob
	}

	if f.IsPregnant != nil {
		info := &domain.PregnancyInfo{
			IsPregnant:       *f.IsPregnant,
			WeeksOfGestation: f.WeeksOfGestation,
			IsHighRisk:       f.IsHighRisk != nil && *f.IsHighRisk,
		}
		if f.DueDate != "" {
			due, err := time.ParseInLocation(DateLayout, f.DueDate, loc)
			if err != nil {
				return nil, fmt.Errorf("%w: due date %q", scheduler.ErrMalformedInput, f.DueDate)
			}
			info.DueDate = &due
		}
		a.PatientInfo.PregnancyInfo = info
	}

	return a, nil
}
