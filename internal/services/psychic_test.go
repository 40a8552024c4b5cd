package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type countingPsychics struct {
	listCalls int
	verified  []models.Psychic
	emails    map[string]bool
}

func (c *countingPsychics) Create(_ context.Context, p *models.Psychic) error {
	if c.emails[p.Email] {
		return repository.ErrDuplicate
	}
	c.emails[p.Email] = true
	p.ID = uuid.New()
	return nil
}

func (c *countingPsychics) GetByID(context.Context, uuid.UUID) (*models.Psychic, error) {
	return nil, pgx.ErrNoRows
}

func (c *countingPsychics) ListVerified(context.Context) ([]models.Psychic, error) {
	c.listCalls++
	return c.verified, nil
}

func (c *countingPsychics) ListWithEarnings(context.Context) ([]models.PsychicWithEarnings, error) {
	return nil, nil
}

func (c *countingPsychics) ToggleVerify(context.Context, uuid.UUID) (bool, error) { return true, nil }
func (c *countingPsychics) SoftDelete(context.Context, uuid.UUID) error           { return nil }

func TestListPublicIsCachedUntilAdminChange(t *testing.T) {
	store := &countingPsychics{verified: []models.Psychic{{Name: "Luna"}}}
	svc := NewPsychicService(store, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := svc.ListPublic(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	}
	assert.Equal(t, 1, store.listCalls)

	_, err := svc.ToggleVerify(ctx, uuid.New())
	require.NoError(t, err)
	_, err = svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)

	require.NoError(t, svc.Delete(ctx, uuid.New()))
	_, err = svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls)
}

func TestCreatePsychic(t *testing.T) {
	store := &countingPsychics{emails: map[string]bool{}}
	svc := NewPsychicService(store, time.Minute, zap.NewNop())
	ctx := context.Background()
	req := models.CreatePsychicRequest{
		Name:        "Luna",
		Email:       "Luna@Example.com",
		Password:    "crystal123",
		Specialties: []string{" tarot ", ""},
		RatePerMin:  models.CreditsFromFloat(2.5),
	}

	p, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "luna@example.com", p.Email)
	assert.Equal(t, []string{"tarot"}, p.Specialties)
	assert.NotEqual(t, req.Password, p.PasswordHash)

	_, err = svc.Create(ctx, req)
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)

	req.RatePerMin = 0
	req.Password = "short"
	_, err = svc.Create(ctx, req)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "ratePerMin")
	assert.Contains(t, ve.Fields, "password")
}
