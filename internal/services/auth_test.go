package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"psychicline-backend/internal/models"
)

func TestRegisterValidatesAllFields(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, nil, nil, zap.NewNop())

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "  ",
		Email:    "not-an-email",
		Password: "abc",
	})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "fullName")
	assert.Contains(t, ve.Fields, "email")
	assert.Equal(t, "Password must be at least 8 characters", ve.Fields["password"])
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, validatePassword("short1"))
	assert.EqualError(t, validatePassword("longenough"), "Password must contain at least one number")
	assert.NoError(t, validatePassword("longenough1"))
}

func TestRefreshValueRoundTrip(t *testing.T) {
	p := models.Principal{ID: uuid.New(), Role: models.RolePsychic}

	got, err := parseRefreshValue(refreshValue(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = parseRefreshValue("garbage")
	var ue *UnauthorizedError
	assert.ErrorAs(t, err, &ue)

	_, err = parseRefreshValue("user:not-a-uuid")
	assert.Error(t, err)
}

func TestGenerateTokenIsRandomHex(t *testing.T) {
	a, err := generateToken(32)
	require.NoError(t, err)
	b, err := generateToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
