package handler

import (
	"net/http"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
)

type stepValidation struct {
	Step     wizard.Step   `json:"step"`
	NextStep wizard.Step   `json:"nextStep"`
	Result   wizard.Result `json:"result"`
}

// ValidateWizardStep checks one wizard step. nextStep only advances when the step
// is valid.
func (h *Handler) ValidateWizardStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step wizard.Step `json:"step"`
		Form wizard.Form `json:"form"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.Step.Valid() {
		h.errorResponse(w, r, http.StatusBadRequest, "Unknown wizard step")
		return
	}

	now := h.now().In(h.booking.Location())
	req.Form.Complete(now)

	result := h.wizard.ValidateStep(req.Step, &req.Form, now)

	next := req.Step
	if result.Valid {
		next = wizard.Next(req.Step)
	}

	h.successResponse(w, r, "Step validated", stepValidation{
		Step:     req.Step,
		NextStep: next,
		Result:   result,
	})
}

func (h *Handler) CalculateDueDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeeksOfGestation int `json:"weeksOfGestation" validate:"required,min=1,max=42"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	now := h.now().In(h.booking.Location())
	due := scheduler.DueDateFromWeeksOfGestation(req.WeeksOfGestation, now)

	h.successResponse(w, r, "Calculated due date", map[string]any{
		"weeksOfGestation": req.WeeksOfGestation,
		"dueDate":          due.Format(wizard.DateLayout),
	})
}

func (h *Handler) CalculateWeeksOfGestation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DueDate string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	loc := h.booking.Location()
	due, err := time.ParseInLocation(wizard.DateLayout, req.DueDate, loc)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	now := h.now().In(loc)
	if !due.After(now) {
		h.errorResponse(w, r, http.StatusBadRequest, "Due date must be in the future")
		return
	}

	weeks := scheduler.WeeksOfGestationFromDueDate(due, now)
	if weeks < 1 || weeks > 42 {
		h.errorResponse(w, r, http.StatusBadRequest, "Due date must be within 40 weeks from today")
		return
	}

	h.successResponse(w, r, "Calculated weeks of gestation", map[string]any{
		"dueDate":          req.DueDate,
		"weeksOfGestation": weeks,
	})
}
