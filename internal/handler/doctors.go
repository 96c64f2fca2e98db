package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mothercare-dev/clinic/backend/internal/booking"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/mothercare-dev/clinic/backend/internal/utils"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
)

const defaultAvailableDays = 30

func (h *Handler) GetAllDoctors(w http.ResponseWriter, r *http.Request) {
	var (
		doctors []*domain.Doctor
		err     error
	)

	if day := r.URL.Query().Get("day"); day != "" {
		doctors, err = h.repository.GetAvailableDoctors(r.Context(), day)
	} else {
		doctors, err = h.repository.GetAllDoctors(r.Context())
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched doctors", doctors)
}

func (h *Handler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor := r.Context().Value(DoctorCtx).(*domain.Doctor)
	h.successResponse(w, r, "Fetched doctor", doctor)
}

type availabilityEntry struct {
	Day         string `json:"day" validate:"required,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	StartTime   string `json:"startTime" validate:"required,hhmm"`
	EndTime     string `json:"endTime" validate:"required,hhmm"`
	IsAvailable bool   `json:"isAvailable"`
}

func toAvailability(entries []availabilityEntry) []domain.DoctorAvailability {
	availability := make([]domain.DoctorAvailability, 0, len(entries))
	for _, e := range entries {
		availability = append(availability, domain.DoctorAvailability(e))
	}
	return availability
}

func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID              string              `json:"id" validate:"omitempty,max=64"`
		Name            string              `json:"name" validate:"required,max=100"`
		Title           string              `json:"title" validate:"required,max=100"`
		Specialization  []string            `json:"specialization" validate:"required,min=1,dive,required"`
		Qualifications  []string            `json:"qualifications" validate:"dive,required"`
		Experience      int32               `json:"experience" validate:"min=0"`
		Image           string              `json:"image"`
		Bio             string              `json:"bio"`
		Languages       []string            `json:"languages" validate:"dive,required"`
		Availability    []availabilityEntry `json:"availability" validate:"dive"`
		Rating          float64             `json:"rating"`
		ReviewCount     int32               `json:"reviewCount" validate:"min=0"`
		ConsultationFee int32               `json:"consultationFee" validate:"min=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	doctor := &domain.Doctor{
		ID:              req.ID,
		Name:            req.Name,
		Title:           req.Title,
		Specialization:  req.Specialization,
		Qualifications:  req.Qualifications,
		Experience:      req.Experience,
		Image:           req.Image,
		Bio:             req.Bio,
		Languages:       req.Languages,
		Availability:    toAvailability(req.Availability),
		Rating:          req.Rating,
		ReviewCount:     req.ReviewCount,
		ConsultationFee: req.ConsultationFee,
	}
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}

	if err := utils.ValidateDoctorProfile(doctor); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateDoctor(r.Context(), doctor); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "doctors_pkey" {
			h.conflict(w, r, "A doctor with this id already exists")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "Doctor created",
		Data:    doctor,
	})
}

func (h *Handler) UpdateDoctorAvailability(w http.ResponseWriter, r *http.Request) {
	doctor := r.Context().Value(DoctorCtx).(*domain.Doctor)

	var req struct {
		Availability []availabilityEntry `json:"availability" validate:"required,dive"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	availability := toAvailability(req.Availability)
	if err := scheduler.ValidateWeeklyAvailability(availability); err != nil {
		h.badRequest(w, r, err)
		return
	}

	doctor.Availability = availability
	if err := h.repository.UpdateDoctorAvailability(r.Context(), doctor); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "The doctor was changed concurrently, please reload and retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.booking.InvalidateDoctor(r.Context(), doctor.ID); err != nil {
		// cached slots expire on their own
		slog.Warn("failed to drop cached slots", "request_id", requestIDFrom(r.Context()), "doctor_id", doctor.ID, "error", err)
	}

	h.successResponse(w, r, "Availability updated", doctor)
}

// GetAvailableDates accepts from=YYYY-MM-DD (default today) and days (default 30).
func (h *Handler) GetAvailableDates(w http.ResponseWriter, r *http.Request) {
	doctor := r.Context().Value(DoctorCtx).(*domain.Doctor)
	loc := h.booking.Location()

	from := h.now().In(loc)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.ParseInLocation(wizard.DateLayout, v, loc)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "from must be a date in YYYY-MM-DD format")
			return
		}
		from = parsed
	}

	days := defaultAvailableDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.errorResponse(w, r, http.StatusBadRequest, "days must be a positive number")
			return
		}
		days = n
	}

	dates, err := h.booking.AvailableDates(r.Context(), doctor.ID, from, days)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format(wizard.DateLayout))
	}

	h.successResponse(w, r, "Fetched available dates", formatted)
}

// GetDoctorSlots needs date=YYYY-MM-DD. The slot length comes from duration, or
// from serviceId's catalogue entry, or the configured default.
func (h *Handler) GetDoctorSlots(w http.ResponseWriter, r *http.Request) {
	doctor := r.Context().Value(DoctorCtx).(*domain.Doctor)
	query := r.URL.Query()

	dateParam := query.Get("date")
	if dateParam == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "date is required")
		return
	}
	date, err := time.ParseInLocation(wizard.DateLayout, dateParam, h.booking.Location())
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}

	minutes := h.config.Booking.DefaultSlotMinutes
	switch {
	case query.Get("duration") != "":
		minutes, err = strconv.Atoi(query.Get("duration"))
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("duration must be a number of minutes, got %q", query.Get("duration")))
			return
		}
	case query.Get("serviceId") != "":
		service, err := h.repository.GetServiceByID(r.Context(), query.Get("serviceId"))
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "Service not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		minutes = booking.ServiceDuration(service)
	}

	slots, err := h.booking.Availability(r.Context(), doctor.ID, date, minutes)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched time slots", slots)
}
