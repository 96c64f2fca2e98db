package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/mothercare-dev/clinic/backend/internal/booking"
	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/metrics"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/mothercare-dev/clinic/backend/internal/wizard"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Mailer queues outgoing mail. *mailer.Publisher implements it.
type Mailer interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	booking     *booking.Service
	wizard      *wizard.Validator
	translator  ut.Translator
	mailer      Mailer
	redisClient *redis.Client
	metrics     *metrics.HTTPMetrics
	limiter     *rateLimiter
	now         func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, bookingService *booking.Service, mailer Mailer, rdb *redis.Client, httpMetrics *metrics.HTTPMetrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := wizard.RegisterRules(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		booking:     bookingService,
		wizard:      wizard.NewValidator(validate, trans),
		translator:  trans,
		mailer:      mailer,
		redisClient: rdb,
		metrics:     httpMetrics,
		limiter:     newRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		now:         time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

var (
	staffRoles = []domain.Role{domain.RoleReceptionist, domain.RoleDoctor, domain.RoleAdmin}
	deskRoles  = []domain.Role{domain.RoleReceptionist, domain.RoleAdmin}
	adminRoles = []domain.Role{domain.RoleAdmin}
)

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(CORS(h.config.Server.AllowedOrigins))

	h.Mux.Method("GET", "/metrics", promhttp.Handler())

	h.Mux.Route("/auth", func(r chi.Router) {
		r.With(h.rateLimit).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Use(h.rateLimit)
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	h.Mux.Route("/api", func(r chi.Router) {
		r.Route("/doctors", func(r chi.Router) {
			r.Get("/", h.GetAllDoctors)
			r.With(h.auth, h.RequiredRole(adminRoles)).Post("/", h.CreateDoctor)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.doctor)
				r.Get("/", h.GetDoctor)
				r.Get("/available-dates", h.GetAvailableDates)
				r.Get("/slots", h.GetDoctorSlots)
				r.With(h.auth, h.RequiredRole(deskRoles)).Patch("/availability", h.UpdateDoctorAvailability)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.GetAllServices)
			r.With(h.auth, h.RequiredRole(adminRoles)).Post("/", h.CreateService)
			r.With(h.service).Get("/{id}", h.GetService)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(h.rateLimit).Post("/", h.CreateBooking)
			r.With(h.rateLimit).Get("/{code}", h.GetBooking)
		})

		r.Post("/wizard/validate", h.ValidateWizardStep)
		r.Route("/pregnancy", func(r chi.Router) {
			r.Post("/due-date", h.CalculateDueDate)
			r.Post("/weeks", h.CalculateWeeksOfGestation)
		})

		r.With(h.rateLimit).Post("/newsletter/subscribe", h.SubscribeNewsletter)

		r.Route("/appointments", func(r chi.Router) {
			// the public website's contact form
			r.With(h.rateLimit).Post("/", h.CreateAppointmentRequest)

			r.Group(func(r chi.Router) {
				r.Use(h.auth)
				r.Use(h.RequiredRole(staffRoles))
				r.Get("/", h.GetAllAppointments)
				r.Get("/requests", h.GetAllAppointmentRequests)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.appointmentID)
					r.Get("/", h.GetAppointment)
					r.Patch("/status", h.UpdateAppointmentStatus)
					r.Post("/cancel", h.CancelAppointment)
					r.Post("/reschedule", h.RescheduleAppointment)
				})
			})
		})
	})

	// staff accounts
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole(adminRoles))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})
	})
}
