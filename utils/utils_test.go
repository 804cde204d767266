package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong horse", hash))
}

func TestTokenRoundtrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("user-123", "alpha_123")
	require.NoError(t, err)

	sub, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", sub)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateToken("user-123", "alpha_123")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "different-secret")
	_, err = VerifyToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	_, err := VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestLocalDateString(t *testing.T) {
	// 2026-03-01 03:30 UTC is still 2026-02-28 in New York.
	now := time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01", LocalDateString("UTC", now))
	assert.Equal(t, "2026-02-28", LocalDateString("America/New_York", now))
	assert.Equal(t, "2026-03-01", LocalDateString("", now))
	assert.Equal(t, "2026-03-01", LocalDateString("Not/AZone", now))
}
