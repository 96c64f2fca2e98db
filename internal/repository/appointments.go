package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

const appointmentColumns = `
	id, doctor_id, service_id, date_time, duration, status, reason_for_visit, current_medications, allergies, notes,
	is_new_patient, is_emergency, add_to_calendar, patient_name, patient_email, patient_phone, date_of_birth,
	is_returning_patient, medical_record_number, preferred_contact_method, is_pregnant, weeks_of_gestation, due_date,
	is_high_risk, confirmation_code, confirmation_sent, reminder_sent, cancellation_reason, created_at, updated_at, version
`

// blockingFilter keeps appointments that still occupy their slot.
const blockingFilter = `status NOT IN ('cancelled', 'no-show')`

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	a := &domain.Appointment{}

	var (
		dateOfBirth      sql.NullTime
		isPregnant       sql.NullBool
		weeksOfGestation sql.NullInt32
		dueDate          sql.NullTime
		isHighRisk       bool
	)

	dst := []any{
		&a.ID,
		&a.DoctorID,
		&a.ServiceID,
		&a.DateTime,
		&a.Duration,
		&a.Status,
		&a.ReasonForVisit,
		&a.CurrentMedications,
		&a.Allergies,
		&a.Notes,
		&a.IsNewPatient,
		&a.IsEmergency,
		&a.AddToCalendar,
		&a.PatientInfo.Name,
		&a.PatientInfo.Email,
		&a.PatientInfo.Phone,
		&dateOfBirth,
		&a.PatientInfo.IsReturningPatient,
		&a.PatientInfo.MedicalRecordNumber,
		&a.PatientInfo.PreferredContactMethod,
		&isPregnant,
		&weeksOfGestation,
		&dueDate,
		&isHighRisk,
		&a.ConfirmationCode,
		&a.ConfirmationSent,
		&a.ReminderSent,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if dateOfBirth.Valid {
		a.PatientInfo.DateOfBirth = &dateOfBirth.Time
	}

	// pregnancy details are only recorded when the patient answered the question
	if isPregnant.Valid {
		info := &domain.PregnancyInfo{
			IsPregnant: isPregnant.Bool,
			IsHighRisk: isHighRisk,
		}
		if weeksOfGestation.Valid {
			weeks := int(weeksOfGestation.Int32)
			info.WeeksOfGestation = &weeks
		}
		if dueDate.Valid {
			info.DueDate = &dueDate.Time
		}
		a.PatientInfo.PregnancyInfo = info
	}

	return a, nil
}

func appointmentArgs(a *domain.Appointment) []any {
	var (
		isPregnant       *bool
		weeksOfGestation *int
		dueDate          *time.Time
		isHighRisk       bool
	)
	if info := a.PatientInfo.PregnancyInfo; info != nil {
		isPregnant = &info.IsPregnant
		weeksOfGestation = info.WeeksOfGestation
		dueDate = info.DueDate
		isHighRisk = info.IsHighRisk
	}

	return []any{
		a.ID,
		a.DoctorID,
		a.ServiceID,
		a.DateTime,
		a.Duration,
		a.Status,
		a.ReasonForVisit,
		a.CurrentMedications,
		a.Allergies,
		a.Notes,
		a.IsNewPatient,
		a.IsEmergency,
		a.AddToCalendar,
		a.PatientInfo.Name,
		a.PatientInfo.Email,
		a.PatientInfo.Phone,
		a.PatientInfo.DateOfBirth,
		a.PatientInfo.IsReturningPatient,
		a.PatientInfo.MedicalRecordNumber,
		a.PatientInfo.PreferredContactMethod,
		isPregnant,
		weeksOfGestation,
		dueDate,
		isHighRisk,
		a.ConfirmationCode,
	}
}

const insertAppointmentQuery = `
	INSERT INTO appointments (
		id, doctor_id, service_id, date_time, duration, status, reason_for_visit, current_medications, allergies, notes,
		is_new_patient, is_emergency, add_to_calendar, patient_name, patient_email, patient_phone, date_of_birth,
		is_returning_patient, medical_record_number, preferred_contact_method, is_pregnant, weeks_of_gestation, due_date,
		is_high_risk, confirmation_code
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	RETURNING created_at, updated_at, version
`

// CreateAppointmentIfFree inserts the appointment unless another blocking appointment
// of the same doctor overlaps it, in which case ErrSlotTaken is returned. Writers for
// one doctor are serialized with a transaction-scoped advisory lock.
func (r *Repository) CreateAppointmentIfFree(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockDoctor(ctx, tx, a.DoctorID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, a.DoctorID, a.DateTime, a.EndTime(), ""); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx, insertAppointmentQuery, appointmentArgs(a)...).Scan(&a.CreatedAt, &a.UpdatedAt, &a.Version); err != nil {
		return err
	}

	return tx.Commit()
}

func lockDoctor(ctx context.Context, tx *sql.Tx, doctorID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, doctorID)
	return err
}

func checkOverlap(ctx context.Context, tx *sql.Tx, doctorID string, start, end time.Time, excludeID string) error {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
				AND ` + blockingFilter + `
				AND date_time < $3
				AND date_time + make_interval(mins => duration) > $2
				AND id::text <> $4
		)
	`

	taken := false
	if err := tx.QueryRowContext(ctx, query, doctorID, start, end, excludeID).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return ErrSlotTaken
	}
	return nil
}

func (r *Repository) GetAllAppointments(ctx context.Context) ([]*domain.Appointment, error) {
	return r.queryAppointments(ctx, "ORDER BY date_time DESC")
}

func (r *Repository) GetAppointmentsByDoctor(ctx context.Context, doctorID string) ([]*domain.Appointment, error) {
	return r.queryAppointments(ctx, "WHERE doctor_id = $1 ORDER BY date_time", doctorID)
}

// GetAppointmentsByDoctorAndDay returns the doctor's appointments that intersect
// [dayStart, dayEnd), whatever their status.
func (r *Repository) GetAppointmentsByDoctorAndDay(ctx context.Context, doctorID string, dayStart, dayEnd time.Time) ([]*domain.Appointment, error) {
	where := `
		WHERE doctor_id = $1
			AND date_time < $3
			AND date_time + make_interval(mins => duration) > $2
		ORDER BY date_time
	`
	return r.queryAppointments(ctx, where, doctorID, dayStart, dayEnd)
}

func (r *Repository) queryAppointments(ctx context.Context, tail string, args ...any) ([]*domain.Appointment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, "SELECT "+appointmentColumns+" FROM appointments "+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *Repository) GetAppointmentByID(ctx context.Context, id string) (*domain.Appointment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanAppointment(r.dbpool.QueryRowContext(ctx, "SELECT "+appointmentColumns+" FROM appointments WHERE id = $1", id))
}

func (r *Repository) GetAppointmentByConfirmationCode(ctx context.Context, code string) (*domain.Appointment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanAppointment(r.dbpool.QueryRowContext(ctx, "SELECT "+appointmentColumns+" FROM appointments WHERE confirmation_code = $1", code))
}

// UpdateAppointment writes the mutable fields back. A stale version yields sql.ErrNoRows.
func (r *Repository) UpdateAppointment(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, updateAppointmentQuery, updateAppointmentArgs(a)...).Scan(&a.UpdatedAt, &a.Version)
}

// RescheduleAppointmentIfFree moves the appointment to a.DateTime, checking the new
// interval against the doctor's other appointments first.
func (r *Repository) RescheduleAppointmentIfFree(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockDoctor(ctx, tx, a.DoctorID); err != nil {
		return err
	}
	if err := checkOverlap(ctx, tx, a.DoctorID, a.DateTime, a.EndTime(), a.ID); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx, updateAppointmentQuery, updateAppointmentArgs(a)...).Scan(&a.UpdatedAt, &a.Version); err != nil {
		return err
	}

	return tx.Commit()
}

const updateAppointmentQuery = `
	UPDATE appointments
	SET
		date_time = $1,
		duration = $2,
		status = $3,
		notes = $4,
		confirmation_sent = $5,
		reminder_sent = $6,
		cancellation_reason = $7,
		updated_at = NOW(),
		version = version + 1
	WHERE id = $8 AND version = $9
	RETURNING updated_at, version
`

func updateAppointmentArgs(a *domain.Appointment) []any {
	return []any{a.DateTime, a.Duration, a.Status, a.Notes, a.ConfirmationSent, a.ReminderSent, a.CancellationReason, a.ID, a.Version}
}
