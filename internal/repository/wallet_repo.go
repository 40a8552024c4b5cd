package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type WalletRepo struct {
	pool DB
}

func NewWalletRepo(pool DB) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Get returns the user's wallet, or an empty one if it was never created.
func (r *WalletRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w := &models.Wallet{UserID: userID}
	err := r.pool.QueryRow(ctx,
		"SELECT balance_cents, reserved_cents, updated_at FROM wallets WHERE user_id = $1", userID,
	).Scan(&w.Balance, &w.Reserved, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return w, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Credit adds amount to the balance and records the transaction.
func (r *WalletRepo) Credit(ctx context.Context, userID uuid.UUID, amount models.Credits, description string) (*models.Wallet, error) {
	w := &models.Wallet{UserID: userID}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO wallets (user_id, balance_cents, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id) DO UPDATE
			SET balance_cents = wallets.balance_cents + EXCLUDED.balance_cents, updated_at = NOW()
			RETURNING balance_cents, reserved_cents, updated_at`,
			userID, amount,
		).Scan(&w.Balance, &w.Reserved, &w.UpdatedAt)
		if err != nil {
			return err
		}
		return insertTransaction(ctx, tx, &models.WalletTransaction{
			UserID:      userID,
			Type:        models.TransactionCredit,
			Amount:      amount,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *WalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, amount_cents, description, session_id, created_at
		FROM wallet_transactions WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txns := make([]models.WalletTransaction, 0)
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.SessionID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*models.Wallet, error) {
	w := &models.Wallet{UserID: userID}
	err := tx.QueryRow(ctx,
		"SELECT balance_cents, reserved_cents, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE", userID,
	).Scan(&w.Balance, &w.Reserved, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t *models.WalletTransaction) error {
	t.ID = uuid.New()
	return tx.QueryRow(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, amount_cents, description, session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		t.ID, t.UserID, t.Type, t.Amount, t.Description, t.SessionID,
	).Scan(&t.CreatedAt)
}
