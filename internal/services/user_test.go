package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychicline-backend/internal/models"
	"psychicline-backend/internal/repository"
)

type memUsers struct {
	stubUsers
	active  map[uuid.UUID]bool
	deleted map[uuid.UUID]bool
	updated []models.User
}

func (m *memUsers) Update(_ context.Context, u *models.User) error {
	m.updated = append(m.updated, *u)
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok || m.deleted[id] {
		return pgx.ErrNoRows
	}
	if m.active[id] {
		return repository.ErrInUse
	}
	m.deleted[id] = true
	return nil
}

func (m *memUsers) ListWithWallets(context.Context) ([]models.UserWithWallet, error) {
	return nil, nil
}

func newUserFixture() (*UserService, *memUsers, uuid.UUID) {
	id := uuid.New()
	users := &memUsers{
		stubUsers: stubUsers{users: map[uuid.UUID]*models.User{id: {ID: id, Email: "ada@example.com", FullName: "Ada"}}},
		active:    map[uuid.UUID]bool{},
		deleted:   map[uuid.UUID]bool{},
	}
	return NewUserService(users), users, id
}

func TestUserDeleteDuringActiveSessionConflicts(t *testing.T) {
	svc, users, id := newUserFixture()
	users.active[id] = true

	err := svc.Delete(context.Background(), id)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "User has an active session", ce.Message)
	assert.False(t, users.deleted[id])
}

func TestUserDeleteTwiceIsNotFound(t *testing.T) {
	svc, users, id := newUserFixture()

	require.NoError(t, svc.Delete(context.Background(), id))
	assert.True(t, users.deleted[id])

	err := svc.Delete(context.Background(), id)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserUpdateNormalizesEmail(t *testing.T) {
	svc, users, id := newUserFixture()
	email := "  Ada@Example.COM "

	u, err := svc.Update(context.Background(), id, models.UpdateUserRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	require.Len(t, users.updated, 1)
}
