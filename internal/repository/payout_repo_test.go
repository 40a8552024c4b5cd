package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychicline-backend/internal/models"
)

var (
	payoutCols   = []string{"id", "psychic_id", "amount_cents", "payment_id", "note", "paid_by", "created_at"}
	earningsCols = []string{"id", "sessions", "minutes", "gross", "psychic_share", "platform_share", "paid"}
)

func TestPayoutCreateChecksEarningsThenInserts(t *testing.T) {
	mock := newMockDB(t)
	repo := NewPayoutRepo(mock)
	psychicID, adminID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM psychics WHERE id = $1 FOR UPDATE")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(psychicID))
	mock.ExpectQuery(sqlRe("FROM payouts WHERE payment_id = $1")).
		WithArgs("pay_1").
		WillReturnRows(pgxmock.NewRows(payoutCols))
	mock.ExpectQuery(sqlRe("FROM psychics ps") + ".*" + sqlRe("WHERE ps.id = $1")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows(earningsCols).
			AddRow(psychicID, 4, 40, models.Credits(6000), models.Credits(3600), models.Credits(2400), models.Credits(1000)))
	mock.ExpectQuery(sqlRe("INSERT INTO payouts (id, psychic_id, amount_cents, payment_id, note, paid_by)")).
		WithArgs(pgxmock.AnyArg(), psychicID, models.Credits(2500), "pay_1", (*string)(nil), adminID).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()
	mock.ExpectRollback()

	var outstanding models.Credits
	p, dup, err := repo.Create(context.Background(),
		&models.Payout{PsychicID: psychicID, Amount: 2500, PaymentID: "pay_1", PaidBy: adminID},
		func(e *models.EarningsSummary) error {
			outstanding = e.Outstanding
			return nil
		})
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, models.Credits(2600), outstanding)
	assert.Equal(t, now, p.CreatedAt)
}

func TestPayoutCreateReturnsExistingPaymentWithoutInsert(t *testing.T) {
	mock := newMockDB(t)
	repo := NewPayoutRepo(mock)
	psychicID, adminID, existingID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM psychics WHERE id = $1 FOR UPDATE")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(psychicID))
	mock.ExpectQuery(sqlRe("FROM payouts WHERE payment_id = $1")).
		WithArgs("pay_1").
		WillReturnRows(pgxmock.NewRows(payoutCols).
			AddRow(existingID, psychicID, models.Credits(2500), "pay_1", (*string)(nil), adminID, now))
	mock.ExpectCommit()
	mock.ExpectRollback()

	checked := false
	p, dup, err := repo.Create(context.Background(),
		&models.Payout{PsychicID: psychicID, Amount: 2500, PaymentID: "pay_1", PaidBy: adminID},
		func(*models.EarningsSummary) error {
			checked = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, dup)
	assert.False(t, checked)
	assert.Equal(t, existingID, p.ID)
}

func TestPayoutCreateRaceOnPaymentID(t *testing.T) {
	mock := newMockDB(t)
	repo := NewPayoutRepo(mock)
	psychicID, adminID, winnerID := uuid.New(), uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlRe("SELECT id FROM psychics WHERE id = $1 FOR UPDATE")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(psychicID))
	mock.ExpectQuery(sqlRe("FROM payouts WHERE payment_id = $1")).
		WithArgs("pay_2").
		WillReturnRows(pgxmock.NewRows(payoutCols))
	mock.ExpectQuery(sqlRe("WHERE ps.id = $1")).
		WithArgs(psychicID).
		WillReturnRows(pgxmock.NewRows(earningsCols).
			AddRow(psychicID, 1, 10, models.Credits(5000), models.Credits(3000), models.Credits(2000), models.Credits(0)))
	mock.ExpectQuery(sqlRe("INSERT INTO payouts")).
		WithArgs(pgxmock.AnyArg(), psychicID, models.Credits(1000), "pay_2", (*string)(nil), adminID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback().Times(2)
	mock.ExpectQuery(sqlRe("FROM payouts WHERE payment_id = $1")).
		WithArgs("pay_2").
		WillReturnRows(pgxmock.NewRows(payoutCols).
			AddRow(winnerID, uuid.New(), models.Credits(1000), "pay_2", (*string)(nil), adminID, now))

	p, dup, err := repo.Create(context.Background(),
		&models.Payout{PsychicID: psychicID, Amount: 1000, PaymentID: "pay_2", PaidBy: adminID},
		func(*models.EarningsSummary) error { return nil })
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, winnerID, p.ID)
}
