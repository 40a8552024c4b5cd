package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychicline-backend/internal/models"
)

var sessionCols = []string{
	"id", "request_id", "user_id", "psychic_id", "status", "rate_per_min_cents", "allowed_minutes", "reserved_cents",
	"started_at", "ended_at", "ended_by", "billed_minutes", "amount_cents", "psychic_earnings_cents", "platform_earnings_cents",
}

func TestSessionOpenReservesInsertsAndConsumes(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepo(mock)
	reqID, userID, psychicID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("FROM chat_requests WHERE id = $1 FOR UPDATE")).
		WithArgs(reqID).
		WillReturnRows(pgxmock.NewRows(requestCols).
			AddRow(reqID, userID, psychicID, models.RequestAccepted, now, &now, (*uuid.UUID)(nil), now))
	mock.ExpectQuery(sqlRe("SELECT rate_per_min_cents FROM psychics WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows([]string{"rate_per_min_cents"}).AddRow(models.Credits(150)))
	mock.ExpectQuery(sqlRe("FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "reserved_cents", "updated_at"}).
			AddRow(models.Credits(1000), models.Credits(0), now))
	mock.ExpectExec(sqlRe("UPDATE wallets SET reserved_cents = reserved_cents + $1")).
		WithArgs(models.Credits(900), userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(sqlRe("INSERT INTO chat_sessions")).
		WithArgs(pgxmock.AnyArg(), reqID, userID, psychicID, models.SessionActive, models.Credits(150), 6, models.Credits(900)).
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(now))
	mock.ExpectExec(sqlRe("UPDATE chat_requests SET status = 'consumed', session_id = $1")).
		WithArgs(pgxmock.AnyArg(), reqID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	var seenRate models.Credits
	var seenWallet *models.Wallet
	s, err := repo.Open(context.Background(), reqID, func(req *models.ChatRequest, rate models.Credits, w *models.Wallet) (*models.ChatSession, error) {
		seenRate, seenWallet = rate, w
		return &models.ChatSession{RatePerMin: rate, AllowedMinutes: 6, Reserved: 900}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.Credits(150), seenRate)
	assert.Equal(t, models.Credits(1000), seenWallet.Balance)
	assert.Equal(t, models.SessionActive, s.Status)
	assert.Equal(t, reqID, s.RequestID)
	assert.Equal(t, now, s.StartedAt)
}

func TestSessionOpenRejectedByDecideWritesNothing(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepo(mock)
	reqID, userID, psychicID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	refused := errors.New("insufficient credits")

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("FROM chat_requests WHERE id = $1 FOR UPDATE")).
		WithArgs(reqID).
		WillReturnRows(pgxmock.NewRows(requestCols).
			AddRow(reqID, userID, psychicID, models.RequestAccepted, now, &now, (*uuid.UUID)(nil), now))
	mock.ExpectQuery(sqlRe("SELECT rate_per_min_cents FROM psychics")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows([]string{"rate_per_min_cents"}).AddRow(models.Credits(150)))
	mock.ExpectQuery(sqlRe("FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "reserved_cents", "updated_at"}).
			AddRow(models.Credits(100), models.Credits(0), now))
	mock.ExpectRollback().Times(2)

	_, err := repo.Open(context.Background(), reqID, func(*models.ChatRequest, models.Credits, *models.Wallet) (*models.ChatSession, error) {
		return nil, refused
	})
	assert.ErrorIs(t, err, refused)
}

func TestSessionSettleDebitsAndReleases(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepo(mock)
	sessionID, reqID, userID, psychicID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ended := started.Add(3 * time.Minute)
	by := "user"

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("FROM chat_sessions WHERE id = $1 FOR UPDATE")).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(
			sessionID, reqID, userID, psychicID, models.SessionActive, models.Credits(150), 6, models.Credits(900),
			started, (*time.Time)(nil), (*string)(nil), 0, models.Credits(0), models.Credits(0), models.Credits(0)))
	mock.ExpectQuery(sqlRe("FROM wallets WHERE user_id = $1 FOR UPDATE")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"balance_cents", "reserved_cents", "updated_at"}).
			AddRow(models.Credits(1000), models.Credits(900), started))
	mock.ExpectExec(sqlRe("SET balance_cents = balance_cents - $1, reserved_cents = reserved_cents - $2")).
		WithArgs(models.Credits(450), models.Credits(900), userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(sqlRe("INSERT INTO wallet_transactions")).
		WithArgs(pgxmock.AnyArg(), userID, models.TransactionDebit, models.Credits(450), "Chat session, 3 min", &sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(ended))
	mock.ExpectQuery(sqlRe("UPDATE chat_sessions SET status = $2")).
		WithArgs(sessionID, models.SessionCompleted, ended, "user", 3,
			models.Credits(450), models.Credits(270), models.Credits(180)).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(
			sessionID, reqID, userID, psychicID, models.SessionCompleted, models.Credits(150), 6, models.Credits(900),
			started, &ended, &by, 3, models.Credits(450), models.Credits(270), models.Credits(180)))
	mock.ExpectCommit()
	mock.ExpectRollback()

	s, err := repo.Settle(context.Background(), sessionID, func(s *models.ChatSession) (*Settlement, error) {
		return &Settlement{
			BilledMinutes:    3,
			Amount:           450,
			PsychicEarnings:  270,
			PlatformEarnings: 180,
			EndedBy:          "user",
			EndedAt:          ended,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, s.Status)
	assert.Equal(t, models.Credits(450), s.Amount)
	require.NotNil(t, s.EndedBy)
	assert.Equal(t, "user", *s.EndedBy)
}

func TestSessionSettleNoopLeavesRowsAlone(t *testing.T) {
	mock := newMockDB(t)
	repo := NewSessionRepo(mock)
	sessionID := uuid.New()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("FROM chat_sessions WHERE id = $1 FOR UPDATE")).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(
			sessionID, uuid.New(), uuid.New(), uuid.New(), models.SessionActive, models.Credits(150), 6, models.Credits(900),
			started, (*time.Time)(nil), (*string)(nil), 0, models.Credits(0), models.Credits(0), models.Credits(0)))
	mock.ExpectCommit()
	mock.ExpectRollback()

	s, err := repo.Settle(context.Background(), sessionID, func(*models.ChatSession) (*Settlement, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionActive, s.Status)
}
