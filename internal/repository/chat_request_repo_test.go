package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychicline-backend/internal/models"
)

var requestCols = []string{"id", "user_id", "psychic_id", "status", "requested_at", "responded_at", "session_id", "updated_at"}

func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func sqlRe(s string) string {
	return regexp.QuoteMeta(s)
}

func TestChatRequestCreate(t *testing.T) {
	mock := newMockDB(t)
	repo := NewChatRequestRepo(mock)
	userID, psychicID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlRe("INSERT INTO chat_requests (id, user_id, psychic_id, status) VALUES ($1, $2, $3, $4) RETURNING requested_at, updated_at")).
		WithArgs(pgxmock.AnyArg(), userID, psychicID, models.RequestPending).
		WillReturnRows(pgxmock.NewRows([]string{"requested_at", "updated_at"}).AddRow(now, now))

	cr := &models.ChatRequest{UserID: userID, PsychicID: psychicID}
	require.NoError(t, repo.Create(context.Background(), cr))
	assert.NotEqual(t, uuid.Nil, cr.ID)
	assert.Equal(t, models.RequestPending, cr.Status)
	assert.Equal(t, now, cr.RequestedAt)
}

func TestChatRequestCreateDuplicate(t *testing.T) {
	mock := newMockDB(t)
	repo := NewChatRequestRepo(mock)

	mock.ExpectQuery(sqlRe("INSERT INTO chat_requests")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), models.RequestPending).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ux_chat_requests_outstanding"})

	err := repo.Create(context.Background(), &models.ChatRequest{UserID: uuid.New(), PsychicID: uuid.New()})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestChatRequestTransitionGuardsOnCurrentStatus(t *testing.T) {
	mock := newMockDB(t)
	repo := NewChatRequestRepo(mock)
	id, userID, psychicID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlRe("SET status = $3")+".*"+sqlRe("WHERE id = $1 AND status = $2 RETURNING id, user_id")).
		WithArgs(id, models.RequestPending, models.RequestAccepted).
		WillReturnRows(pgxmock.NewRows(requestCols).
			AddRow(id, userID, psychicID, models.RequestAccepted, now, &now, (*uuid.UUID)(nil), now))

	cr, err := repo.Transition(context.Background(), id, models.RequestPending, models.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, cr.Status)
	require.NotNil(t, cr.RespondedAt)
	assert.Nil(t, cr.SessionID)
}

func TestChatRequestTransitionLostRace(t *testing.T) {
	mock := newMockDB(t)
	repo := NewChatRequestRepo(mock)
	id := uuid.New()

	mock.ExpectQuery(sqlRe("WHERE id = $1 AND status = $2")).
		WithArgs(id, models.RequestAccepted, models.RequestCancelled).
		WillReturnRows(pgxmock.NewRows(requestCols))

	_, err := repo.Transition(context.Background(), id, models.RequestAccepted, models.RequestCancelled)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.True(t, IsNotFound(err))
}

func TestListForPsychicFiltersByStatus(t *testing.T) {
	psychicID := uuid.New()

	t.Run("outstanding by default", func(t *testing.T) {
		mock := newMockDB(t)
		mock.ExpectQuery(sqlRe("WHERE cr.psychic_id = $1 AND cr.status IN ('pending', 'accepted') ORDER BY cr.requested_at DESC")).
			WithArgs(psychicID).
			WillReturnRows(pgxmock.NewRows(append(requestCols, "full_name")))

		items, err := NewChatRequestRepo(mock).ListForPsychic(context.Background(), psychicID, "")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("explicit status", func(t *testing.T) {
		mock := newMockDB(t)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(sqlRe("WHERE cr.psychic_id = $1 AND cr.status = $2")).
			WithArgs(psychicID, models.RequestRejected).
			WillReturnRows(pgxmock.NewRows(append(requestCols, "full_name")).
				AddRow(uuid.New(), uuid.New(), psychicID, models.RequestRejected, now, &now, (*uuid.UUID)(nil), now, "Ada"))

		items, err := NewChatRequestRepo(mock).ListForPsychic(context.Background(), psychicID, models.RequestRejected)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Ada", items[0].UserName)
	})
}
