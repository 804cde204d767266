package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triadStreakAPI/internal/user"
)

func TestRegisterValidationAccepts(t *testing.T) {
	req := &user.RegisterRequest{
		Email:    "a@b.com",
		Password: "ninechars",
		Username: "alpha_123",
	}
	assert.Nil(t, ValidateStruct(req))
}

func TestRegisterValidationRejectsUsernameWithSpace(t *testing.T) {
	req := &user.RegisterRequest{
		Email:    "a@b.com",
		Password: "longenough",
		Username: "bad name",
	}

	fields := ValidateStruct(req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "username")
	assert.NotContains(t, fields, "email")
	assert.NotContains(t, fields, "password")
}

func TestRegisterValidationCollectsPerField(t *testing.T) {
	req := &user.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
		Username: "x",
	}

	fields := ValidateStruct(req)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "username")
}

func TestRegisterValidationUsernameBounds(t *testing.T) {
	base := user.RegisterRequest{Email: "a@b.com", Password: "longenough"}

	short := base
	short.Username = "ab"
	assert.Contains(t, ValidateStruct(&short), "username")

	long := base
	long.Username = "abcdefghijklmnopqrstuvwxy" // 25 chars
	assert.Contains(t, ValidateStruct(&long), "username")

	ok := base
	ok.Username = "abc"
	assert.Nil(t, ValidateStruct(&ok))
}

func TestPasswordMinimumLength(t *testing.T) {
	req := &user.LoginRequest{Email: "a@b.com", Password: "1234567"}
	assert.Contains(t, ValidateStruct(req), "password")

	req.Password = "12345678"
	assert.Nil(t, ValidateStruct(req))
}
