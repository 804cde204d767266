package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triadStreakAPI/services"
)

// Validation runs before any database work, so the rejection paths are
// exercised without a pool.
func newAuthHandlerForValidation() *AuthHandler {
	return NewAuthHandler(services.NewAuthService(nil))
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	h := newAuthHandlerForValidation()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsUsernameWithSpace(t *testing.T) {
	h := newAuthHandlerForValidation()

	body := `{"email": "a@b.com", "password": "ninechars", "username": "bad name"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "username")
	assert.NotContains(t, resp.Errors, "email")
	assert.NotContains(t, resp.Errors, "password")
}

func TestLoginRejectsShortPassword(t *testing.T) {
	h := newAuthHandlerForValidation()

	body := `{"email": "a@b.com", "password": "short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "password")
}

func TestProtectedHandlerWithoutIdentity(t *testing.T) {
	h := NewUserHandler(services.NewUserService(nil, nil))

	// No auth middleware ran, so there is no user id on the context.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rec := httptest.NewRecorder()

	h.GetProfile(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
