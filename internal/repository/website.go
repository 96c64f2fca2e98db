package repository

import (
	"context"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

func (r *Repository) CreateAppointmentRequest(ctx context.Context, req *domain.AppointmentRequest) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO appointment_requests (id, first_name, last_name, email, phone, preferred_date, preferred_time, service_needed, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING status, created_at
	`
	args := []any{req.ID, req.FirstName, req.LastName, req.Email, req.Phone, req.PreferredDate, req.PreferredTime, req.ServiceNeeded, req.Notes}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.Status, &req.CreatedAt)
}

func (r *Repository) GetAllAppointmentRequests(ctx context.Context) ([]*domain.AppointmentRequest, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT id, first_name, last_name, email, phone, preferred_date, preferred_time, service_needed, notes, status, created_at
		FROM appointment_requests
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.AppointmentRequest, 0)
	for rows.Next() {
		req := &domain.AppointmentRequest{}
		dst := []any{&req.ID, &req.FirstName, &req.LastName, &req.Email, &req.Phone, &req.PreferredDate, &req.PreferredTime, &req.ServiceNeeded, &req.Notes, &req.Status, &req.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// SubscribeNewsletter fails with the newsletter_subscriptions_email_key constraint
// when the address is already subscribed.
func (r *Repository) SubscribeNewsletter(ctx context.Context, sub *domain.NewsletterSubscription) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO newsletter_subscriptions (id, email)
		VALUES ($1, $2)
		RETURNING subscribed_at
	`
	return r.dbpool.QueryRowContext(ctx, query, sub.ID, sub.Email).Scan(&sub.SubscribedAt)
}
