package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/metrics"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/mothercare-dev/clinic/backend/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var bookingTracer = otel.Tracer("mothercare.internal.booking")

// Store is the persistence the booking service relies on. *repository.Repository
// implements it.
type Store interface {
	GetDoctorByID(ctx context.Context, id string) (*domain.Doctor, error)
	GetServiceByID(ctx context.Context, id string) (*domain.MedicalService, error)
	GetAppointmentByID(ctx context.Context, id string) (*domain.Appointment, error)
	GetAppointmentByConfirmationCode(ctx context.Context, code string) (*domain.Appointment, error)
	GetAppointmentsByDoctorAndDay(ctx context.Context, doctorID string, dayStart, dayEnd time.Time) ([]*domain.Appointment, error)
	CreateAppointmentIfFree(ctx context.Context, a *domain.Appointment) error
	RescheduleAppointmentIfFree(ctx context.Context, a *domain.Appointment) error
	UpdateAppointment(ctx context.Context, a *domain.Appointment) error
}

type Notifier interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Service struct {
	store    Store
	rdb      *redis.Client
	notifier Notifier
	metrics  *metrics.BookingMetrics

	loc         *time.Location
	horizonDays int
	lockTTL     time.Duration
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewService(cfg *config.Config, store Store, rdb *redis.Client, notifier Notifier, m *metrics.BookingMetrics) (*Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    store,
		rdb:      rdb,
		notifier: notifier,
		metrics:  m,

		loc:         loc,
		horizonDays: cfg.Booking.HorizonDays,
		lockTTL:     time.Duration(cfg.Booking.LockTTL) * time.Second,
		cacheTTL:    time.Duration(cfg.Booking.SlotCacheTTL) * time.Second,
		now:         time.Now,
	}, nil
}

// Location is the zone slots are laid out in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// DaySlots is a doctor's free slots on one day.
type DaySlots struct {
	DoctorID string              `json:"doctorId"`
	Date     string              `json:"date"`
	Duration int                 `json:"duration"`
	Slots    []domain.TimeSlot   `json:"slots"`
	Grouped  domain.GroupedSlots `json:"grouped"`
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func (s *Service) dayBounds(t time.Time) (time.Time, time.Time) {
	dayStart := scheduler.StartOfDay(t.In(s.loc))
	return dayStart, dayStart.AddDate(0, 0, 1)
}

func (s *Service) scheduleFor(ctx context.Context, doctor *domain.Doctor, day time.Time, excludeID string) (*scheduler.Scheduler, error) {
	dayStart, dayEnd := s.dayBounds(day)
	appointments, err := s.store.GetAppointmentsByDoctorAndDay(ctx, doctor.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	if excludeID != "" {
		kept := appointments[:0]
		for _, a := range appointments {
			if a.ID != excludeID {
				kept = append(kept, a)
			}
		}
		appointments = kept
	}

	return scheduler.New(doctor, appointments), nil
}

// Availability returns the doctor's free slots of the given length on date's day.
// Slots that have already started are left out.
func (s *Service) Availability(ctx context.Context, doctorID string, date time.Time, minutes int) (*DaySlots, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.availability")
	defer span.End()
	span.SetAttributes(
		attribute.String("mothercare.doctor_id", doctorID),
		attribute.Int("mothercare.slot_minutes", minutes),
	)

	if minutes <= 0 {
		return nil, fmt.Errorf("%w: slot length must be positive, got %d", scheduler.ErrInvalidArgument, minutes)
	}

	day, _ := s.dayBounds(date)

	slots := s.cachedSlots(ctx, doctorID, day, minutes)
	if slots == nil {
		started := time.Now()
		gen := s.slotsGeneration(ctx, doctorID)

		doctor, err := s.store.GetDoctorByID(ctx, doctorID)
		if err != nil {
			span.RecordError(err)
			return nil, notFound("doctor", err)
		}

		sch, err := s.scheduleFor(ctx, doctor, day, "")
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		slots, err = sch.Slots(day, minutes)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		s.metrics.ObserveSlotGeneration(doctorID, time.Since(started).Seconds(), len(slots))
		s.cacheSlots(ctx, doctorID, day, minutes, gen, slots)
	}

	now := s.now()
	upcoming := make([]domain.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if !slot.StartTime.Before(now) {
			upcoming = append(upcoming, slot)
		}
	}

	return &DaySlots{
		DoctorID: doctorID,
		Date:     day.Format("2006-01-02"),
		Duration: minutes,
		Slots:    upcoming,
		Grouped:  scheduler.GroupByPeriod(upcoming),
	}, nil
}

// AvailableDates lists the days from today on which the doctor works, capped at the
// booking horizon.
func (s *Service) AvailableDates(ctx context.Context, doctorID string, from time.Time, days int) ([]time.Time, error) {
	doctor, err := s.store.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, notFound("doctor", err)
	}

	today, _ := s.dayBounds(s.now())
	from, _ = s.dayBounds(from)
	if from.Before(today) {
		days -= calendarDays(from, today)
		from = today
	}

	if maxDays := s.horizonDays - calendarDays(today, from); days > maxDays {
		days = maxDays
	}

	return scheduler.New(doctor, nil).AvailableDates(from, days), nil
}

// calendarDays counts the dates from a to b. Days shortened or stretched by a DST
// change still count as one.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return int(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).Sub(time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)) / (24 * time.Hour))
}

func (s *Service) withinHorizon(start time.Time) bool {
	now := s.now()
	if start.Before(now) {
		return false
	}
	today, _ := s.dayBounds(now)
	return start.Before(today.AddDate(0, 0, s.horizonDays+1))
}

// Book reserves a.DateTime with a.DoctorID for a.ServiceID. When a.Duration is not
// set the service's catalogue duration is used. On success a gets its ID,
// confirmation code and status filled in.
func (s *Service) Book(ctx context.Context, a *domain.Appointment) (*domain.AppointmentConfirmation, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.book",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("mothercare.doctor_id", a.DoctorID),
			attribute.String("mothercare.service_id", a.ServiceID),
		),
	)
	defer span.End()

	confirmation, err := s.book(ctx, a)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveOperation("book", outcome(err))
		return nil, err
	}

	s.metrics.ObserveOperation("book", "success")
	slog.Info("appointment booked", "appointment_id", a.ID, "doctor_id", a.DoctorID, "date_time", a.DateTime)
	return confirmation, nil
}

func (s *Service) book(ctx context.Context, a *domain.Appointment) (*domain.AppointmentConfirmation, error) {
	doctor, err := s.store.GetDoctorByID(ctx, a.DoctorID)
	if err != nil {
		return nil, notFound("doctor", err)
	}
	service, err := s.store.GetServiceByID(ctx, a.ServiceID)
	if err != nil {
		return nil, notFound("service", err)
	}

	if a.Duration <= 0 {
		a.Duration = ServiceDuration(service)
	}

	start := a.DateTime.In(s.loc)
	if !s.withinHorizon(start) {
		return nil, fmt.Errorf("%w: %s is outside the booking window", ErrSlotUnavailable, start.Format(time.RFC3339))
	}

	release, ok, err := s.acquire(ctx, doctor.ID, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.ObserveLockContention("book")
		return nil, ErrSlotBusy
	}
	defer release()

	sch, err := s.scheduleFor(ctx, doctor, start, "")
	if err != nil {
		return nil, err
	}
	offered, err := sch.Offers(start, a.Duration)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, ErrSlotUnavailable
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.DateTime = start
	a.Status = domain.StatusScheduled
	a.ConfirmationCode = utils.GenerateConfirmationCode()
	if a.AddToCalendar == "" {
		a.AddToCalendar = "none"
	}

	if err := s.store.CreateAppointmentIfFree(ctx, a); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}
	s.invalidate(ctx, doctor.ID, start)

	s.notify(ctx, domain.MailAppointmentConfirmation, a, s.mailData(a, doctor, service, ""))

	return confirmationOf(a, doctor, service), nil
}

func confirmationOf(a *domain.Appointment, doctor *domain.Doctor, service *domain.MedicalService) *domain.AppointmentConfirmation {
	return &domain.AppointmentConfirmation{
		AppointmentID:           a.ID,
		PatientName:             a.PatientInfo.Name,
		DoctorName:              doctor.Name,
		ServiceName:             service.Name,
		DateTime:                a.DateTime,
		Duration:                a.Duration,
		ConfirmationCode:        a.ConfirmationCode,
		PreparationInstructions: service.Preparation,
		Status:                  a.Status,
	}
}

// Lookup finds a booking by the code given to the patient. Only the confirmation
// view is returned; the medical details stay behind staff authentication.
func (s *Service) Lookup(ctx context.Context, code string) (*domain.AppointmentConfirmation, error) {
	a, err := s.store.GetAppointmentByConfirmationCode(ctx, code)
	if err != nil {
		return nil, notFound("appointment", err)
	}
	doctor, err := s.store.GetDoctorByID(ctx, a.DoctorID)
	if err != nil {
		return nil, notFound("doctor", err)
	}
	service, err := s.store.GetServiceByID(ctx, a.ServiceID)
	if err != nil {
		return nil, notFound("service", err)
	}
	return confirmationOf(a, doctor, service), nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := s.store.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, notFound("appointment", err)
	}
	return a, nil
}

func transition(a *domain.Appointment, to domain.AppointmentStatus) error {
	if err := utils.ValidateStatusTransition(a.Status, to); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return nil
}

// Cancel frees the appointment's slot. The reason is optional.
func (s *Service) Cancel(ctx context.Context, id string, reason string) (*domain.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("mothercare.appointment_id", id))

	a, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := transition(a, domain.StatusCancelled); err != nil {
		s.metrics.ObserveOperation("cancel", outcome(err))
		return nil, err
	}

	a.Status = domain.StatusCancelled
	if reason != "" {
		a.CancellationReason = &reason
	}

	if err := s.store.UpdateAppointment(ctx, a); err != nil {
		span.RecordError(err)
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrConcurrentUpdate
		}
		s.metrics.ObserveOperation("cancel", outcome(err))
		return nil, err
	}
	s.invalidate(ctx, a.DoctorID, a.DateTime.In(s.loc))
	s.metrics.ObserveOperation("cancel", "success")

	s.notifyWithLookup(ctx, domain.MailAppointmentCancelled, a, reason)
	slog.Info("appointment cancelled", "appointment_id", a.ID)
	return a, nil
}

// Reschedule moves the appointment to newStart with the same doctor and duration.
func (s *Service) Reschedule(ctx context.Context, id string, newStart time.Time) (*domain.Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("mothercare.appointment_id", id))

	a, err := s.reschedule(ctx, id, newStart)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveOperation("reschedule", outcome(err))
		return nil, err
	}

	s.metrics.ObserveOperation("reschedule", "success")
	slog.Info("appointment rescheduled", "appointment_id", a.ID, "date_time", a.DateTime)
	return a, nil
}

func (s *Service) reschedule(ctx context.Context, id string, newStart time.Time) (*domain.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transition(a, domain.StatusRescheduled); err != nil {
		return nil, err
	}

	doctor, err := s.store.GetDoctorByID(ctx, a.DoctorID)
	if err != nil {
		return nil, notFound("doctor", err)
	}

	start := newStart.In(s.loc)
	if !s.withinHorizon(start) {
		return nil, fmt.Errorf("%w: %s is outside the booking window", ErrSlotUnavailable, start.Format(time.RFC3339))
	}

	release, ok, err := s.acquire(ctx, doctor.ID, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.ObserveLockContention("reschedule")
		return nil, ErrSlotBusy
	}
	defer release()

	sch, err := s.scheduleFor(ctx, doctor, start, a.ID)
	if err != nil {
		return nil, err
	}
	offered, err := sch.Offers(start, a.Duration)
	if err != nil {
		return nil, err
	}
	if !offered {
		return nil, ErrSlotUnavailable
	}

	previous := a.DateTime
	a.DateTime = start
	a.Status = domain.StatusRescheduled

	if err := s.store.RescheduleAppointmentIfFree(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, ErrSlotUnavailable
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrConcurrentUpdate
		default:
			return nil, err
		}
	}
	s.invalidate(ctx, a.DoctorID, previous.In(s.loc))
	s.invalidate(ctx, a.DoctorID, start)

	s.notifyWithLookup(ctx, domain.MailAppointmentRescheduled, a, "")
	return a, nil
}

// UpdateStatus applies a staff status change. Moving to another time goes through
// Reschedule and cancelling through Cancel.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	switch status {
	case domain.StatusRescheduled:
		return nil, fmt.Errorf("%w: use reschedule to move an appointment", ErrInvalidTransition)
	case domain.StatusCancelled:
		return s.Cancel(ctx, id, "")
	}

	ctx, span := bookingTracer.Start(ctx, "booking.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("mothercare.appointment_id", id),
		attribute.String("mothercare.status", string(status)),
	)

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transition(a, status); err != nil {
		return nil, err
	}

	a.Status = status
	if err := s.store.UpdateAppointment(ctx, a); err != nil {
		span.RecordError(err)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	if !status.Blocking() {
		s.invalidate(ctx, a.DoctorID, a.DateTime.In(s.loc))
	}
	return a, nil
}

func (s *Service) mailData(a *domain.Appointment, doctor *domain.Doctor, service *domain.MedicalService, reason string) domain.AppointmentMailData {
	data := domain.AppointmentMailData{
		PatientName:      a.PatientInfo.Name,
		DoctorName:       a.DoctorID,
		ServiceName:      a.ServiceID,
		DateTime:         a.DateTime.In(s.loc),
		Duration:         a.Duration,
		ConfirmationCode: a.ConfirmationCode,
		Reason:           reason,
	}
	if doctor != nil {
		data.DoctorName = doctor.Name
	}
	if service != nil {
		data.ServiceName = service.Name
		data.Preparation = service.Preparation
	}
	return data
}

// notifyWithLookup resolves display names for the mail; a failed lookup only
// degrades the text.
func (s *Service) notifyWithLookup(ctx context.Context, mailType string, a *domain.Appointment, reason string) {
	doctor, _ := s.store.GetDoctorByID(ctx, a.DoctorID)
	service, _ := s.store.GetServiceByID(ctx, a.ServiceID)
	s.notify(ctx, mailType, a, s.mailData(a, doctor, service, reason))
}

// notify queues a mail for the patient. The appointment is already stored, so a
// queue failure is logged rather than returned.
func (s *Service) notify(ctx context.Context, mailType string, a *domain.Appointment, data domain.AppointmentMailData) {
	if s.notifier == nil || a.PatientInfo.Email == "" {
		return
	}

	msg := domain.MailMessage{Type: mailType, To: a.PatientInfo.Email, Data: data}
	if err := s.notifier.Publish(ctx, msg); err != nil {
		slog.Error("failed to queue appointment mail", "type", mailType, "appointment_id", a.ID, "error", err)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotBusy):
		return "slot_busy"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, scheduler.ErrInvalidArgument), errors.Is(err, scheduler.ErrMalformedInput):
		return "invalid"
	default:
		return "error"
	}
}
