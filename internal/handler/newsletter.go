package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
)

func (h *Handler) SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(req); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	sub := &domain.NewsletterSubscription{
		ID:    uuid.NewString(),
		Email: req.Email,
	}

	if err := h.repository.SubscribeNewsletter(r.Context(), sub); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "newsletter_subscriptions_email_key" {
			h.conflict(w, r, "This email address is already subscribed")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	if err := h.mailer.Publish(r.Context(), domain.MailMessage{
		Type: domain.MailNewsletterWelcome,
		To:   sub.Email,
		Data: domain.NewsletterMailData{Email: sub.Email},
	}); err != nil {
		slog.Error("failed to queue newsletter welcome mail", "request_id", requestIDFrom(r.Context()), "error", err)
	}

	h.writeJSON(w, r, http.StatusCreated, Response{
		Success: true,
		Message: "Subscribed to the newsletter",
		Data:    sub,
	})
}
