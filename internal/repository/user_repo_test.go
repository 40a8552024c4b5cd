package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func TestUserDeleteIsSoft(t *testing.T) {
	mock := newMockDB(t)
	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(userID))
	mock.ExpectQuery(sqlRe("SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE user_id = $1 AND status = 'active')")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(sqlRe("UPDATE chat_requests SET status = 'cancelled'") + ".*" + sqlRe("status IN ('pending', 'accepted')")).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(sqlRe("UPDATE users SET is_active = FALSE, deleted_at = NOW() WHERE id = $1")).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	// Any DELETE statement would be an unexpected call and fail the mock.
	assert.NoError(t, repo.Delete(context.Background(), userID))
}

func TestUserDeleteRefusedDuringActiveSession(t *testing.T) {
	mock := newMockDB(t)
	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(userID))
	mock.ExpectQuery(sqlRe("FROM chat_sessions WHERE user_id = $1 AND status = 'active'")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback().Times(2)

	err := repo.Delete(context.Background(), userID)
	assert.ErrorIs(t, err, ErrInUse)
}

func TestUserDeleteMissingOrAlreadyDeleted(t *testing.T) {
	mock := newMockDB(t)
	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback().Times(2)

	err := repo.Delete(context.Background(), userID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserLookupsSkipDeletedRows(t *testing.T) {
	mock := newMockDB(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery(sqlRe("WHERE email = $1 AND deleted_at IS NULL")).
		WithArgs("gone@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "gone@example.com")
	assert.True(t, IsNotFound(err))
}
