package mailer

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownType = errors.New("unsupported mail type")

var templates = template.Must(template.New("mail").Funcs(template.FuncMap{
	"longDate": func(t time.Time) string { return t.Format("Monday, January 2, 2006") },
	"clock":    func(t time.Time) string { return t.Format("3:04 PM") },
}).ParseFS(templateFS, "templates/*.html"))

type kind struct {
	template string
	subject  string
	data     func() any
}

var kinds = map[string]kind{
	domain.MailAppointmentConfirmation: {
		template: "appointment_confirmation.html",
		subject:  "MotherCare - Appointment confirmed",
		data:     func() any { return &domain.AppointmentMailData{} },
	},
	domain.MailAppointmentCancelled: {
		template: "appointment_cancelled.html",
		subject:  "MotherCare - Appointment cancelled",
		data:     func() any { return &domain.AppointmentMailData{} },
	},
	domain.MailAppointmentRescheduled: {
		template: "appointment_rescheduled.html",
		subject:  "MotherCare - Appointment rescheduled",
		data:     func() any { return &domain.AppointmentMailData{} },
	},
	domain.MailAppointmentRequestReceived: {
		template: "appointment_request_received.html",
		subject:  "MotherCare - We received your request",
		data:     func() any { return &domain.AppointmentRequestMailData{} },
	},
	domain.MailNewsletterWelcome: {
		template: "newsletter_welcome.html",
		subject:  "Welcome to the MotherCare newsletter",
		data:     func() any { return &domain.NewsletterMailData{} },
	},
	domain.MailCreateUser: {
		template: "create_user.html",
		subject:  "MotherCare - Your staff account",
		data:     func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailResetPassword: {
		template: "reset_password.html",
		subject:  "MotherCare - Password reset",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailChangeEmail: {
		template: "change_email.html",
		subject:  "MotherCare - Confirm your new email",
		data:     func() any { return &domain.ChangeEmailMailData{} },
	},
}

// Decode parses a queue message body, turning Data into the typed payload of its
// mail type.
func Decode(body []byte) (domain.MailMessage, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return domain.MailMessage{}, err
	}

	k, ok := kinds[envelope.Type]
	if !ok {
		return domain.MailMessage{}, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	data := k.data()
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return domain.MailMessage{}, fmt.Errorf("%s data: %w", envelope.Type, err)
		}
	}

	return domain.MailMessage{Type: envelope.Type, To: envelope.To, Data: data}, nil
}

// Build renders msg into a message ready for the SMTP client.
func Build(msg domain.MailMessage, from string) (*mail.Msg, error) {
	k, ok := kinds[msg.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}

	if err := m.SetBodyHTMLTemplate(templates.Lookup(k.template), msg.Data); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	m.Subject(k.subject)

	return m, nil
}
