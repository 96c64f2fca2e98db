package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeNewsletter(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("INSERT INTO newsletter_subscriptions").
		WithArgs(sqlmock.AnyArg(), "jane@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"subscribed_at"}).AddRow(time.Now()))

	rec, resp := env.do(t, http.MethodPost, "/api/newsletter/subscribe", map[string]string{"email": " Jane@Example.com "})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)

	sent := env.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.MailNewsletterWelcome, sent[0].Type)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSubscribeNewsletterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("INSERT INTO newsletter_subscriptions").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "newsletter_subscriptions_email_key"})

	rec, resp := env.do(t, http.MethodPost, "/api/newsletter/subscribe", map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This email address is already subscribed", resp.Message)
	assert.Empty(t, env.mailer.messages())
}

func TestSubscribeNewsletterInvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/newsletter/subscribe", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter a valid email address", resp.Message)
}

func contactForm() map[string]any {
	return map[string]any{
		"firstName":     "Jane",
		"lastName":      "Doe",
		"email":         "jane@example.com",
		"phone":         "555-123-4567",
		"preferredDate": "2024-06-10",
		"preferredTime": "morning",
		"serviceNeeded": "prenatal-care",
	}
}

func TestCreateAppointmentRequest(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("INSERT INTO appointment_requests").
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at"}).AddRow("pending", time.Now()))

	rec, resp := env.do(t, http.MethodPost, "/api/appointments", contactForm())
	require.Equal(t, http.StatusCreated, rec.Code)

	var request domain.AppointmentRequest
	require.NoError(t, json.Unmarshal(resp.Data, &request))
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, domain.StatusPending, request.Status)
	assert.Nil(t, request.Notes)

	sent := env.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.MailAppointmentRequestReceived, sent[0].Type)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateAppointmentRequestStoredEvenIfMailFails(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = errors.New("broker down")

	env.mock.ExpectQuery("INSERT INTO appointment_requests").
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at"}).AddRow("pending", time.Now()))

	rec, _ := env.do(t, http.MethodPost, "/api/appointments", contactForm())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateAppointmentRequestMessages(t *testing.T) {
	tests := []struct {
		field string
		value any
		want  string
	}{
		{"firstName", "", "First name is required"},
		{"lastName", "", "Last name is required"},
		{"email", "not-an-email", "Please enter a valid email address"},
		{"phone", "12345", "Please enter a valid phone number"},
		{"preferredDate", "", "Please select a preferred date"},
		{"preferredTime", "", "Please select a preferred time"},
		{"serviceNeeded", "", "Please select a service"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			env := newTestEnv(t)

			form := contactForm()
			form[tt.field] = tt.value

			rec, resp := env.do(t, http.MethodPost, "/api/appointments", form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, resp.Message)
		})
	}
}

func TestCalculateDueDate(t *testing.T) {
	env := newTestEnv(t)
	env.h.now = func() time.Time { return time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC) }

	rec, resp := env.do(t, http.MethodPost, "/api/pregnancy/due-date", map[string]int{"weeksOfGestation": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		DueDate string `json:"dueDate"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "2024-10-21", data.DueDate)

	rec, _ = env.do(t, http.MethodPost, "/api/pregnancy/due-date", map[string]int{"weeksOfGestation": 43})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateWeeksOfGestation(t *testing.T) {
	env := newTestEnv(t)
	env.h.now = func() time.Time { return time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC) }

	rec, resp := env.do(t, http.MethodPost, "/api/pregnancy/weeks", map[string]string{"dueDate": "2024-10-21"})
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Weeks int `json:"weeksOfGestation"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 20, data.Weeks)

	rec, resp = env.do(t, http.MethodPost, "/api/pregnancy/weeks", map[string]string{"dueDate": "2024-05-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Due date must be in the future", resp.Message)

	// 39 weeks out is the first week of pregnancy
	rec, resp = env.do(t, http.MethodPost, "/api/pregnancy/weeks", map[string]string{"dueDate": "2025-03-03"})
	require.Equal(t, http.StatusOK, rec.Code, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 1, data.Weeks)

	for _, due := range []string{"2025-03-04", "2025-05-01"} {
		rec, resp = env.do(t, http.MethodPost, "/api/pregnancy/weeks", map[string]string{"dueDate": due})
		assert.Equal(t, http.StatusBadRequest, rec.Code, due)
		assert.Equal(t, "Due date must be within 40 weeks from today", resp.Message)
	}
}

func TestValidateWizardStep(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/api/wizard/validate", map[string]any{
		"step": "service-selection",
		"form": map[string]any{"serviceId": "prenatal-care"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var data stepValidation
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, data.Result.Valid)
	assert.Equal(t, wizard.StepDoctorSelection, data.NextStep)

	rec, resp = env.do(t, http.MethodPost, "/api/wizard/validate", map[string]any{
		"step": "patient-information",
		"form": map[string]any{"patientName": "Jane Doe", "patientEmail": "jane@example.com", "patientPhone": "12"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data = stepValidation{}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Result.Valid)
	assert.Equal(t, wizard.StepPatientInformation, data.NextStep)
	assert.Contains(t, data.Result.Errors, "patientPhone")

	rec, _ = env.do(t, http.MethodPost, "/api/wizard/validate", map[string]any{"step": "payment"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
