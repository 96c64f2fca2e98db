package repository

import (
	"context"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

const servicesQuery = `
	SELECT id, name, description, short_description, icon, category, features, duration, preparation, aftercare, is_emergency, created_at
	FROM services
`

func scanService(row rowScanner) (*domain.MedicalService, error) {
	s := &domain.MedicalService{}
	var features, preparation, aftercare stringList

	dst := []any{&s.ID, &s.Name, &s.Description, &s.ShortDescription, &s.Icon, &s.Category, &features, &s.Duration, &preparation, &aftercare, &s.IsEmergency, &s.CreatedAt}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	s.Features = features
	s.Preparation = preparation
	s.Aftercare = aftercare
	return s, nil
}

func (r *Repository) queryServices(ctx context.Context, where string, args ...any) ([]*domain.MedicalService, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, servicesQuery+where+" ORDER BY created_at, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]*domain.MedicalService, 0)
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return services, nil
}

func (r *Repository) GetAllServices(ctx context.Context) ([]*domain.MedicalService, error) {
	return r.queryServices(ctx, "")
}

func (r *Repository) GetServicesByCategory(ctx context.Context, category domain.ServiceCategory) ([]*domain.MedicalService, error) {
	return r.queryServices(ctx, " WHERE category = $1", category)
}

func (r *Repository) GetServiceByID(ctx context.Context, id string) (*domain.MedicalService, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanService(r.dbpool.QueryRowContext(ctx, servicesQuery+" WHERE id = $1", id))
}

func (r *Repository) CreateService(ctx context.Context, s *domain.MedicalService) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO services (id, name, description, short_description, icon, category, features, duration, preparation, aftercare, is_emergency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	args := []any{
		s.ID,
		s.Name,
		s.Description,
		s.ShortDescription,
		s.Icon,
		s.Category,
		stringList(s.Features),
		s.Duration,
		stringList(s.Preparation),
		stringList(s.Aftercare),
		s.IsEmergency,
	}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&s.CreatedAt)
}
