package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
)

// contactFormMessages are what the public website shows for each field.
var contactFormMessages = map[string]string{
	"firstName":     "First name is required",
	"lastName":      "Last name is required",
	"email":         "Please enter a valid email address",
	"phone":         "Please enter a valid phone number",
	"preferredDate": "Please select a preferred date",
	"preferredTime": "Please select a preferred time",
	"serviceNeeded": "Please select a service",
}

type appointmentRequestPayload struct {
	FirstName     string  `json:"firstName" validate:"required"`
	LastName      string  `json:"lastName" validate:"required"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         string  `json:"phone" validate:"required,min=10"`
	PreferredDate string  `json:"preferredDate" validate:"required"`
	PreferredTime string  `json:"preferredTime" validate:"required"`
	ServiceNeeded string  `json:"serviceNeeded" validate:"required"`
	Notes         *string `json:"notes"`
}

// CreateAppointmentRequest stores the website's contact form. Staff follow up by
// phone or email; no slot is reserved.
func (h *Handler) CreateAppointmentRequest(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequestPayload
	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			if msg, ok := contactFormMessages[validationErrors[0].Field()]; ok {
				h.errorResponse(w, r, http.StatusBadRequest, msg)
				return
			}
		}
		h.badRequest(w, r, err)
		return
	}

	request := &domain.AppointmentRequest{
		ID:            uuid.NewString(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		ServiceNeeded: req.ServiceNeeded,
		Notes:         req.Notes,
	}

	if err := h.repository.CreateAppointmentRequest(r.Context(), request); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.mailer.Publish(r.Context(), domain.MailMessage{
		Type: domain.MailAppointmentRequestReceived,
		To:   request.Email,
		Data: domain.AppointmentRequestMailData{
			FirstName:     request.FirstName,
			PreferredDate: request.PreferredDate,
			PreferredTime: request.PreferredTime,
			ServiceNeeded: request.ServiceNeeded,
		},
	}); err != nil {
		slog.Error("failed to queue appointment request mail", "request_id", requestIDFrom(r.Context()), "appointment_request_id", request.ID, "error", err)
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "Appointment request received",
		Data:    request,
	})
}

func (h *Handler) GetAllAppointmentRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.repository.GetAllAppointmentRequests(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched appointment requests", requests)
}

// GetAllAppointments lists booked appointments, optionally for one doctorId.
func (h *Handler) GetAllAppointments(w http.ResponseWriter, r *http.Request) {
	var (
		appointments []*domain.Appointment
		err          error
	)

	if doctorID := r.URL.Query().Get("doctorId"); doctorID != "" {
		appointments, err = h.repository.GetAppointmentsByDoctor(r.Context(), doctorID)
	} else {
		appointments, err = h.repository.GetAllAppointments(r.Context())
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched appointments", appointments)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(AppointmentCtx).(string)

	appointment, err := h.repository.GetAppointmentByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "Appointment not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Fetched appointment", appointment)
}

func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(AppointmentCtx).(string)

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending scheduled confirmed completed cancelled rescheduled no-show"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	appointment, err := h.booking.UpdateStatus(r.Context(), id, domain.AppointmentStatus(req.Status))
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.successResponse(w, r, "Appointment status updated", appointment)
}

// CancelAppointment accepts an optional {"reason": "..."} body.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(AppointmentCtx).(string)

	var req struct {
		Reason string `json:"reason" validate:"max=500"`
	}

	if r.ContentLength != 0 {
		if err := h.readJSON(w, r, &req); err != nil {
			h.badRequest(w, r, err)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			h.badRequest(w, r, err)
			return
		}
	}

	appointment, err := h.booking.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.successResponse(w, r, "Appointment cancelled", appointment)
}

// RescheduleAppointment takes either an RFC 3339 dateTime or a date and time pair
// in the clinic's time zone.
func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.Context().Value(AppointmentCtx).(string)

	var req struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Time     string `json:"time" validate:"omitempty,hhmm"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.DateTime == "" && (req.Date == "" || req.Time == "") {
		h.errorResponse(w, r, http.StatusBadRequest, "Provide dateTime, or both date and time")
		return
	}

	loc := h.booking.Location()

	var newStart time.Time
	if req.DateTime != "" {
		t, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "dateTime must be an RFC 3339 timestamp")
			return
		}
		newStart = t.In(loc)
	} else {
		date, err := time.ParseInLocation(wizard.DateLayout, req.Date, loc)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		newStart, err = scheduler.CombineDateAndTime(date, req.Time)
		if err != nil {
			h.bookingError(w, r, err)
			return
		}
	}

	appointment, err := h.booking.Reschedule(r.Context(), id, newStart)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.successResponse(w, r, "Appointment rescheduled", appointment)
}
