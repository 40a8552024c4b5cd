package repository

import (
	"context"

	"github.com/google/uuid"

	"psychicline-backend/internal/models"
)

type AdminRepo struct {
	pool DB
}

func NewAdminRepo(pool DB) *AdminRepo {
	return &AdminRepo{pool: pool}
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	a := &models.Admin{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at FROM admins WHERE email = $1", email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AdminRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	a := &models.Admin{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at FROM admins WHERE id = $1", id,
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Ensure inserts the admin unless one with the same email exists. It reports
// whether a row was created.
func (r *AdminRepo) Ensure(ctx context.Context, a *models.Admin) (bool, error) {
	a.ID = uuid.New()
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO admins (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`,
		a.ID, a.Email, a.PasswordHash, a.Name,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
