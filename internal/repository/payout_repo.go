package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type PayoutRepo struct {
	pool DB
}

func NewPayoutRepo(pool DB) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

// PayoutCheckFunc validates a payout against the psychic's current earnings.
type PayoutCheckFunc func(earnings *models.EarningsSummary) error

const payoutColumns = `id, psychic_id, amount_cents, payment_id, note, paid_by, created_at`

func scanPayout(row pgx.Row) (*models.Payout, error) {
	p := &models.Payout{}
	if err := row.Scan(&p.ID, &p.PsychicID, &p.Amount, &p.PaymentID, &p.Note, &p.PaidBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// Create records a payout keyed by its payment id. If the payment id was
// already used the stored payout is returned with duplicate set. Payouts for
// one psychic are serialised by locking the psychic row.
func (r *PayoutRepo) Create(ctx context.Context, p *models.Payout, check PayoutCheckFunc) (*models.Payout, bool, error) {
	var (
		result    *models.Payout
		duplicate bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, "SELECT id FROM psychics WHERE id = $1 FOR UPDATE", p.PsychicID).Scan(&locked); err != nil {
			return err
		}

		existing, err := scanPayout(tx.QueryRow(ctx, "SELECT "+payoutColumns+" FROM payouts WHERE payment_id = $1", p.PaymentID))
		if err == nil {
			result, duplicate = existing, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		earnings, err := scanEarnings(tx.QueryRow(ctx, earningsSelect+" WHERE ps.id = $1", p.PsychicID))
		if err != nil {
			return err
		}
		if err := check(earnings); err != nil {
			return err
		}

		p.ID = uuid.New()
		err = tx.QueryRow(ctx, `
			INSERT INTO payouts (id, psychic_id, amount_cents, payment_id, note, paid_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			p.ID, p.PsychicID, p.Amount, p.PaymentID, p.Note, p.PaidBy,
		).Scan(&p.CreatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return err
		}
		result = p
		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		// Lost a race on the same payment id against another psychic's row lock.
		existing, getErr := r.GetByPaymentID(ctx, p.PaymentID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return result, duplicate, nil
}

func (r *PayoutRepo) GetByPaymentID(ctx context.Context, paymentID string) (*models.Payout, error) {
	return scanPayout(r.pool.QueryRow(ctx, "SELECT "+payoutColumns+" FROM payouts WHERE payment_id = $1", paymentID))
}

func (r *PayoutRepo) ListByPsychic(ctx context.Context, psychicID uuid.UUID) ([]models.Payout, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+payoutColumns+" FROM payouts WHERE psychic_id = $1 ORDER BY created_at DESC", psychicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payouts := make([]models.Payout, 0)
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, err
		}
		payouts = append(payouts, *p)
	}
	return payouts, rows.Err()
}
