package repository

import (
	"context"
	"database/sql"
	"slices"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

const doctorsQuery = `
	SELECT
		d.id,
		d.name,
		d.title,
		d.specialization,
		d.qualifications,
		d.experience,
		d.image,
		d.bio,
		d.languages,
		d.rating,
		d.review_count,
		d.consultation_fee,
		d.created_at,
		d.version,
		da.day,
		da.start_time,
		da.end_time,
		da.is_available
	FROM doctors d
	LEFT JOIN doctor_availability da ON d.id = da.doctor_id
`

func (r *Repository) queryDoctors(ctx context.Context, where string, args ...any) ([]*domain.Doctor, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, doctorsQuery+where+" ORDER BY d.name, d.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := make([]*domain.Doctor, 0)
	byID := make(map[string]*domain.Doctor)

	for rows.Next() {
		var row struct {
			doctor         domain.Doctor
			specialization stringList
			qualifications stringList
			languages      stringList

			Day         sql.NullString
			StartTime   sql.NullString
			EndTime     sql.NullString
			IsAvailable sql.NullBool
		}

		dst := []any{
			&row.doctor.ID,
			&row.doctor.Name,
			&row.doctor.Title,
			&row.specialization,
			&row.qualifications,
			&row.doctor.Experience,
			&row.doctor.Image,
			&row.doctor.Bio,
			&row.languages,
			&row.doctor.Rating,
			&row.doctor.ReviewCount,
			&row.doctor.ConsultationFee,
			&row.doctor.CreatedAt,
			&row.doctor.Version,
			&row.Day,
			&row.StartTime,
			&row.EndTime,
			&row.IsAvailable,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		doctor, exists := byID[row.doctor.ID]
		if !exists {
			doctor = &row.doctor
			doctor.Specialization = row.specialization
			doctor.Qualifications = row.qualifications
			doctor.Languages = row.languages
			doctor.Availability = make([]domain.DoctorAvailability, 0, 7)
			byID[doctor.ID] = doctor
			doctors = append(doctors, doctor)
		}

		// a doctor without any availability rows still comes back once from the LEFT JOIN
		if !row.Day.Valid {
			continue
		}

		doctor.Availability = append(doctor.Availability, domain.DoctorAvailability{
			Day:         row.Day.String,
			StartTime:   row.StartTime.String,
			EndTime:     row.EndTime.String,
			IsAvailable: row.IsAvailable.Bool,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, doctor := range doctors {
		sortWeek(doctor.Availability)
	}

	return doctors, nil
}

// sortWeek orders entries Monday first, the way the clinic prints its timetable.
func sortWeek(entries []domain.DoctorAvailability) {
	rank := func(day string) int {
		i := slices.Index(domain.Weekdays[:], day)
		return (i + 6) % 7
	}
	slices.SortStableFunc(entries, func(a, b domain.DoctorAvailability) int {
		return rank(a.Day) - rank(b.Day)
	})
}

func (r *Repository) GetAllDoctors(ctx context.Context) ([]*domain.Doctor, error) {
	return r.queryDoctors(ctx, "")
}

// GetAvailableDoctors returns the doctors who work on the named weekday.
func (r *Repository) GetAvailableDoctors(ctx context.Context, day string) ([]*domain.Doctor, error) {
	where := `
		WHERE d.id IN (
			SELECT doctor_id FROM doctor_availability WHERE lower(day) = lower($1) AND is_available
		)
	`
	return r.queryDoctors(ctx, where, day)
}

func (r *Repository) GetDoctorByID(ctx context.Context, id string) (*domain.Doctor, error) {
	doctors, err := r.queryDoctors(ctx, " WHERE d.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, sql.ErrNoRows
	}
	return doctors[0], nil
}

func (r *Repository) CreateDoctor(ctx context.Context, doctor *domain.Doctor) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO doctors (id, name, title, specialization, qualifications, experience, image, bio, languages, rating, review_count, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, version
	`
	args := []any{
		doctor.ID,
		doctor.Name,
		doctor.Title,
		stringList(doctor.Specialization),
		stringList(doctor.Qualifications),
		doctor.Experience,
		doctor.Image,
		doctor.Bio,
		stringList(doctor.Languages),
		doctor.Rating,
		doctor.ReviewCount,
		doctor.ConsultationFee,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&doctor.CreatedAt, &doctor.Version); err != nil {
		return err
	}

	if err := insertAvailability(ctx, tx, doctor.ID, doctor.Availability); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateDoctorAvailability replaces the doctor's weekly schedule. The doctor's version
// must match the stored one, otherwise sql.ErrNoRows is returned.
func (r *Repository) UpdateDoctorAvailability(ctx context.Context, doctor *domain.Doctor) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE doctors SET version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`
	if err := tx.QueryRowContext(ctx, query, doctor.ID, doctor.Version).Scan(&doctor.Version); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_availability WHERE doctor_id = $1`, doctor.ID); err != nil {
		return err
	}

	if err := insertAvailability(ctx, tx, doctor.ID, doctor.Availability); err != nil {
		return err
	}

	return tx.Commit()
}

func insertAvailability(ctx context.Context, tx *sql.Tx, doctorID string, entries []domain.DoctorAvailability) error {
	query := `
		INSERT INTO doctor_availability (doctor_id, day, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, doctorID, entry.Day, entry.StartTime, entry.EndTime, entry.IsAvailable); err != nil {
			return err
		}
	}
	return nil
}
