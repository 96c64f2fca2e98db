package domain

import (
	"time"
)

const (
	MailCreateUser                 = "create_user"
	MailResetPassword              = "reset_password"
	MailChangeEmail                = "change_email"
	MailAppointmentConfirmation    = "appointment_confirmation"
	MailAppointmentCancelled       = "appointment_cancelled"
	MailAppointmentRescheduled     = "appointment_rescheduled"
	MailAppointmentRequestReceived = "appointment_request_received"
	MailNewsletterWelcome          = "newsletter_welcome"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ChangeEmailMailData struct {
	FullName   string `json:"fullName"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type AppointmentMailData struct {
	PatientName      string    `json:"patientName"`
	DoctorName       string    `json:"doctorName"`
	ServiceName      string    `json:"serviceName"`
	DateTime         time.Time `json:"dateTime"`
	Duration         int       `json:"duration"`
	ConfirmationCode string    `json:"confirmationCode"`
	Preparation      []string  `json:"preparation,omitempty"`
	Reason           string    `json:"reason,omitempty"`
}

type AppointmentRequestMailData struct {
	FirstName     string `json:"firstName"`
	PreferredDate string `json:"preferredDate"`
	PreferredTime string `json:"preferredTime"`
	ServiceNeeded string `json:"serviceNeeded"`
}

type NewsletterMailData struct {
	Email string `json:"email"`
}
