package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triadStreakAPI/utils"
)

func init() {
	utils.InitLogger()
}

func protectedEcho(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var gotUserID string
	handler := AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r.Context())
		require.True(t, ok)
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &gotUserID
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken("user-42", "alpha_123")
	require.NoError(t, err)

	handler, gotUserID := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", *gotUserID)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	handler, _ := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsBadScheme(t *testing.T) {
	handler, _ := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "other-secret")
	token, err := utils.GenerateToken("user-42", "alpha_123")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "test-secret")
	handler, _ := protectedEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
