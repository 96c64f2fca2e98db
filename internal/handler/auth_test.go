package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var userByUsernameColumns = []string{"id", "password_hash", "full_name", "email", "role", "is_active", "created_at", "version"}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	env.mock.ExpectQuery("FROM users").
		WithArgs("mlopez").
		WillReturnRows(sqlmock.NewRows(userByUsernameColumns).
			AddRow(7, string(hash), "Maria Lopez", "mlopez@mothercare.clinic", "receptionist", true, time.Now(), 1))

	rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "mlopez", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	env.mock.ExpectQuery("FROM users").
		WithArgs("mlopez").
		WillReturnRows(sqlmock.NewRows(userByUsernameColumns).
			AddRow(7, string(hash), "Maria Lopez", "mlopez@mothercare.clinic", "receptionist", true, time.Now(), 1))

	rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "mlopez", "password": "battery staple"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect username or password", resp.Message)
}

func TestLoginValidatesBody(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "mlopez"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password is a required field", resp.Message)

	rec, resp = env.do(t, http.MethodPost, "/auth/login", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is not valid JSON", resp.Message)
}

func TestResetPasswordStoresOTP(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("FROM users").
		WithArgs("mlopez").
		WillReturnRows(sqlmock.NewRows(userByUsernameColumns).
			AddRow(7, "hash", "Maria Lopez", "mlopez@mothercare.clinic", "receptionist", true, time.Now(), 1))

	rec, _ := env.do(t, http.MethodPost, "/auth/reset-password/require", map[string]string{"username": "mlopez"})
	require.Equal(t, http.StatusOK, rec.Code)

	key := resetPasswordKey("mlopez")
	otp, err := env.redis.Get(key)
	require.NoError(t, err)
	assert.Len(t, otp, 6)
	assert.Equal(t, 15*time.Minute, env.redis.TTL(key))

	sent := env.mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, domain.MailResetPassword, sent[0].Type)
	data := sent[0].Data.(domain.ResetPasswordMailData)
	assert.Equal(t, otp, data.OTP)
	assert.Equal(t, 15, data.Expiration)
}

func TestResetPasswordUnknownUserLooksTheSame(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery("FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userByUsernameColumns))

	rec, resp := env.do(t, http.MethodPost, "/auth/reset-password/require", map[string]string{"username": "ghost"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, env.mailer.messages())
}

func TestConfirmResetPasswordWrongOTP(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.redis.Set(resetPasswordKey("mlopez"), "123456"))

	rec, resp := env.do(t, http.MethodPost, "/auth/reset-password/confirm", map[string]string{
		"username": "mlopez",
		"otp":      "654321",
		"password": "a new password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid verification code", resp.Message)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
