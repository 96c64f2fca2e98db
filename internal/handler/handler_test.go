package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mothercare-dev/clinic/backend/internal/booking"
	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/metrics"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	err  error
}

func (m *fakeMailer) Publish(_ context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []domain.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MailMessage(nil), m.sent...)
}

type testEnv struct {
	h      *Handler
	mock   sqlmock.Sqlmock
	redis  *miniredis.Miniredis
	mailer *fakeMailer
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Environment = "test"
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.RateLimit.RequestsPerMinute = 600
	cfg.RateLimit.Burst = 100
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10
	cfg.Booking.DefaultSlotMinutes = 30
	cfg.Booking.HorizonDays = 90
	cfg.Booking.LockTTL = 15
	cfg.Booking.SlotCacheTTL = 60
	cfg.Booking.TimeZone = "UTC"
	cfg.InitialAdmin.Username = "admin"
	cfg.JWT.Expiration = 1
	cfg.JWT.Secret = "test-secret"
	cfg.Redis.OperationExpiration = 5
	cfg.OTP.Expiration = 900
	cfg.NewUser.PasswordLength = 12
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	repo := repository.NewRepository(cfg, db)
	mailer := &fakeMailer{}

	svc, err := booking.NewService(cfg, repo, rdb, mailer, metrics.NewBookingMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)

	h, err := NewHandler(cfg, repo, svc, mailer, rdb, metrics.NewHTTPMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testEnv{h: h, mock: mock, redis: mr, mailer: mailer}
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (e *testEnv) token(t *testing.T, userID int64, role domain.Role) *http.Cookie {
	t.Helper()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})
	ss, err := token.SignedString([]byte(e.h.config.JWT.Secret))
	require.NoError(t, err)

	return &http.Cookie{Name: authCookieName, Value: ss}
}

var doctorColumns = []string{
	"id", "name", "title", "specialization", "qualifications", "experience", "image", "bio", "languages",
	"rating", "review_count", "consultation_fee", "created_at", "version",
	"day", "start_time", "end_time", "is_available",
}

// mondayMorningDoctor works Mondays 09:00-12:00.
func mondayMorningDoctor(id string) *sqlmock.Rows {
	return sqlmock.NewRows(doctorColumns).AddRow(
		id, "Dr. Amanda Rodriguez", "Maternal-Fetal Medicine Specialist",
		`["Maternal-Fetal Medicine"]`, `["MD"]`, 12, "", "bio", `["English"]`,
		4.8, 120, 150, time.Now(), 1,
		"Monday", "09:00", "12:00", true,
	)
}

var appointmentColumnNames = []string{
	"id", "doctor_id", "service_id", "date_time", "duration", "status", "reason_for_visit", "current_medications", "allergies", "notes",
	"is_new_patient", "is_emergency", "add_to_calendar", "patient_name", "patient_email", "patient_phone", "date_of_birth",
	"is_returning_patient", "medical_record_number", "preferred_contact_method", "is_pregnant", "weeks_of_gestation", "due_date",
	"is_high_risk", "confirmation_code", "confirmation_sent", "reminder_sent", "cancellation_reason", "created_at", "updated_at", "version",
}

var serviceColumns = []string{
	"id", "name", "description", "short_description", "icon", "category", "features", "duration", "preparation", "aftercare", "is_emergency", "created_at",
}

func sonographyService(id string) *sqlmock.Rows {
	return sqlmock.NewRows(serviceColumns).AddRow(
		id, "3D/4D Sonography", "Detailed imaging", "Imaging", "scan", "diagnostics",
		`["3D imaging"]`, "30-45 minutes", `["Drink water"]`, `[]`, false, time.Now(),
	)
}

// nextMonday is a Monday at least a week from now, at midnight UTC.
func nextMonday() time.Time {
	now := time.Now().UTC()
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
