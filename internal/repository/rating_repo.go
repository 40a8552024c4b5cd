package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type RatingRepo struct {
	pool DB
}

func NewRatingRepo(pool DB) *RatingRepo {
	return &RatingRepo{pool: pool}
}

// Create stores a rating. ErrDuplicate means the session was already rated.
func (r *RatingRepo) Create(ctx context.Context, rt *models.Rating) error {
	rt.ID = uuid.New()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ratings (id, session_id, user_id, psychic_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		rt.ID, rt.SessionID, rt.UserID, rt.PsychicID, rt.Rating, rt.Comment,
	).Scan(&rt.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *RatingRepo) List(ctx context.Context, psychicID *uuid.UUID) ([]models.Rating, error) {
	query := `
		SELECT r.id, r.session_id, r.user_id, r.psychic_id, r.rating, r.comment, r.created_at, u.full_name, p.name
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN psychics p ON p.id = r.psychic_id`
	var args []interface{}
	if psychicID != nil {
		query += " WHERE r.psychic_id = $1"
		args = append(args, *psychicID)
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make([]models.Rating, 0)
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(
			&rt.ID, &rt.SessionID, &rt.UserID, &rt.PsychicID, &rt.Rating, &rt.Comment, &rt.CreatedAt,
			&rt.UserName, &rt.PsychicName,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rt)
	}
	return ratings, rows.Err()
}

func (r *RatingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM ratings WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
