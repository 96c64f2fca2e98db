package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
)

// CreateBooking takes the completed wizard form, validates every step and books
// the slot. Field problems come back as a wizard.Result with status 400.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var form wizard.Form
	if err := h.readJSON(w, r, &form); err != nil {
		h.badRequest(w, r, err)
		return
	}

	now := h.now().In(h.booking.Location())
	form.Complete(now)

	if result := h.wizard.ValidateForm(&form, now); !result.Valid {
		h.writeJSON(w, r, http.StatusBadRequest, Response{
			Success: false,
			Message: "Please correct the highlighted fields",
			Data:    result,
		})
		return
	}

	appointment, err := form.Appointment(h.booking.Location(), 0)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	confirmation, err := h.booking.Book(r.Context(), appointment)
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "Appointment booked",
		Data:    confirmation,
	})
}

// GetBooking is public, so it answers with the confirmation view only.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.booking.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.bookingError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched booking", confirmation)
}
