package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

func (h *Handler) GetAllServices(w http.ResponseWriter, r *http.Request) {
	var (
		services []*domain.MedicalService
		err      error
	)

	if category := r.URL.Query().Get("category"); category != "" {
		services, err = h.repository.GetServicesByCategory(r.Context(), domain.ServiceCategory(category))
	} else {
		services, err = h.repository.GetAllServices(r.Context())
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched services", services)
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	service := r.Context().Value(ServiceCtx).(*domain.MedicalService)
	h.successResponse(w, r, "Fetched service", service)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID               string   `json:"id" validate:"omitempty,max=64"`
		Name             string   `json:"name" validate:"required,max=200"`
		Description      string   `json:"description" validate:"required"`
		ShortDescription string   `json:"shortDescription" validate:"required,max=300"`
		Icon             string   `json:"icon"`
		Category         string   `json:"category" validate:"required,oneof=obstetrics gynecology fertility surgery diagnostics preventive"`
		Features         []string `json:"features" validate:"dive,required"`
		Duration         string   `json:"duration" validate:"required"`
		Preparation      []string `json:"preparation" validate:"dive,required"`
		Aftercare        []string `json:"aftercare" validate:"dive,required"`
		IsEmergency      bool     `json:"isEmergency"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	service := &domain.MedicalService{
		ID:               req.ID,
		Name:             req.Name,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Icon:             req.Icon,
		Category:         domain.ServiceCategory(req.Category),
		Features:         req.Features,
		Duration:         req.Duration,
		Preparation:      req.Preparation,
		Aftercare:        req.Aftercare,
		IsEmergency:      req.IsEmergency,
	}
	if service.ID == "" {
		service.ID = uuid.NewString()
	}

	if err := h.repository.CreateService(r.Context(), service); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "services_pkey" {
			h.conflict(w, r, "A service with this id already exists")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "Service created",
		Data:    service,
	})
}
