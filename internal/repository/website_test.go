package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeNewsletter(t *testing.T) {
	repo, mock := newTestRepository(t)
	subscribed := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO newsletter_subscriptions").
		WithArgs("1d2e3f40-5a6b-4c7d-8e9f-a0b1c2d3e4f5", "reader@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"subscribed_at"}).AddRow(subscribed))

	sub := &domain.NewsletterSubscription{ID: "1d2e3f40-5a6b-4c7d-8e9f-a0b1c2d3e4f5", Email: "reader@example.com"}
	require.NoError(t, repo.SubscribeNewsletter(context.Background(), sub))
	assert.Equal(t, subscribed, sub.SubscribedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentRequestDefaultsToPending(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery("INSERT INTO appointment_requests").
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at"}).AddRow("pending", time.Now()))

	req := &domain.AppointmentRequest{
		ID:            "a3b4c5d6-e7f8-4901-a2b3-c4d5e6f7a8b9",
		FirstName:     "Maria",
		LastName:      "O'Neil",
		Email:         "maria@example.com",
		Phone:         "5551234567",
		PreferredDate: "2024-06-05",
		PreferredTime: "morning",
		ServiceNeeded: "routine-gynecological-care",
	}
	require.NoError(t, repo.CreateAppointmentRequest(context.Background(), req))
	assert.Equal(t, domain.StatusPending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServiceByIDDecodesLists(t *testing.T) {
	repo, mock := newTestRepository(t)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "short_description", "icon", "category", "features", "duration", "preparation", "aftercare", "is_emergency", "created_at"}).
		AddRow("3d-4d-sonography", "3D/4D Sonography & Imaging", "desc", "short", "Monitor", "diagnostics",
			[]byte(`["Anomaly Scanning","Growth Assessment"]`), "30-45 minutes", `[]`, nil, false, time.Now())
	mock.ExpectQuery("FROM services").WithArgs("3d-4d-sonography").WillReturnRows(rows)

	s, err := repo.GetServiceByID(context.Background(), "3d-4d-sonography")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryDiagnostics, s.Category)
	assert.Equal(t, []string{"Anomaly Scanning", "Growth Assessment"}, s.Features)
	assert.Empty(t, s.Preparation)
	assert.Empty(t, s.Aftercare)
	assert.NoError(t, mock.ExpectationsWereMet())
}
