package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type UserRepo struct {
	pool DB
}

func NewUserRepo(pool DB) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts the user together with an empty wallet.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	user.IsActive = true

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (id, email, password_hash, full_name, avatar_url, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			user.ID, user.Email, user.PasswordHash, user.FullName, user.AvatarURL, user.IsActive,
		).Scan(&user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}

		_, err = tx.Exec(ctx, "INSERT INTO wallets (user_id) VALUES ($1) ON CONFLICT DO NOTHING", user.ID)
		return err
	})
}

const userColumns = `id, email, password_hash, full_name, avatar_url, is_active, created_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.AvatarURL,
		&user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1 AND deleted_at IS NULL", email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1 AND deleted_at IS NULL", id))
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE users SET full_name = $1, email = $2, avatar_url = $3, is_active = $4 WHERE id = $5 AND deleted_at IS NULL",
		user.FullName, user.Email, user.AvatarURL, user.IsActive, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete soft-deletes the user. Sessions, transactions and ratings keep
// referencing the row so psychic earnings and the wallet ledger stay intact.
// Outstanding requests are cancelled; an active session blocks the delete.
func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			"SELECT id FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE", userID,
		).Scan(&id)
		if err != nil {
			return err
		}

		var active bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM chat_sessions WHERE user_id = $1 AND status = 'active')", userID,
		).Scan(&active)
		if err != nil {
			return err
		}
		if active {
			return ErrInUse
		}

		if _, err := tx.Exec(ctx, `
			UPDATE chat_requests SET status = 'cancelled', updated_at = NOW()
			WHERE user_id = $1 AND status IN ('pending', 'accepted')`, userID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			"UPDATE users SET is_active = FALSE, deleted_at = NOW() WHERE id = $1", userID)
		return err
	})
}

// ListWithWallets returns every user with their wallet, newest first.
func (r *UserRepo) ListWithWallets(ctx context.Context) ([]models.UserWithWallet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.password_hash, u.full_name, u.avatar_url, u.is_active, u.created_at, u.last_login_at,
			COALESCE(w.balance_cents, 0), COALESCE(w.reserved_cents, 0)
		FROM users u
		LEFT JOIN wallets w ON w.user_id = u.id
		WHERE u.deleted_at IS NULL
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.UserWithWallet, 0)
	for rows.Next() {
		var u models.UserWithWallet
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.AvatarURL, &u.IsActive, &u.CreatedAt, &u.LastLoginAt,
			&u.Credits, &u.Reserved,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
