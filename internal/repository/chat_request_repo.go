package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type ChatRequestRepo struct {
	pool DB
}

func NewChatRequestRepo(pool DB) *ChatRequestRepo {
	return &ChatRequestRepo{pool: pool}
}

const chatRequestColumns = `id, user_id, psychic_id, status, requested_at, responded_at, session_id, updated_at`

func scanChatRequest(row pgx.Row) (*models.ChatRequest, error) {
	cr := &models.ChatRequest{}
	err := row.Scan(
		&cr.ID, &cr.UserID, &cr.PsychicID, &cr.Status,
		&cr.RequestedAt, &cr.RespondedAt, &cr.SessionID, &cr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return cr, nil
}

// Create inserts a pending request. ErrDuplicate means the pair already has an
// outstanding request.
func (r *ChatRequestRepo) Create(ctx context.Context, cr *models.ChatRequest) error {
	cr.ID = uuid.New()
	cr.Status = models.RequestPending

	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_requests (id, user_id, psychic_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING requested_at, updated_at`,
		cr.ID, cr.UserID, cr.PsychicID, cr.Status,
	).Scan(&cr.RequestedAt, &cr.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *ChatRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatRequest, error) {
	return scanChatRequest(r.pool.QueryRow(ctx, "SELECT "+chatRequestColumns+" FROM chat_requests WHERE id = $1", id))
}

// GetOutstanding returns the pending or accepted request for the pair.
func (r *ChatRequestRepo) GetOutstanding(ctx context.Context, userID, psychicID uuid.UUID) (*models.ChatRequest, error) {
	return scanChatRequest(r.pool.QueryRow(ctx,
		"SELECT "+chatRequestColumns+` FROM chat_requests
		WHERE user_id = $1 AND psychic_id = $2 AND status IN ('pending', 'accepted')`,
		userID, psychicID,
	))
}

// ListForPsychic returns the psychic's inbox. An empty status lists every
// outstanding request.
func (r *ChatRequestRepo) ListForPsychic(ctx context.Context, psychicID uuid.UUID, status models.ChatRequestStatus) ([]models.InboxItem, error) {
	query := `
		SELECT cr.id, cr.user_id, cr.psychic_id, cr.status, cr.requested_at, cr.responded_at, cr.session_id, cr.updated_at,
			u.full_name
		FROM chat_requests cr
		JOIN users u ON u.id = cr.user_id
		WHERE cr.psychic_id = $1`
	args := []interface{}{psychicID}
	if status == "" {
		query += " AND cr.status IN ('pending', 'accepted')"
	} else {
		query += " AND cr.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY cr.requested_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.InboxItem, 0)
	for rows.Next() {
		var it models.InboxItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.PsychicID, &it.Status,
			&it.RequestedAt, &it.RespondedAt, &it.SessionID, &it.UpdatedAt,
			&it.UserName,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Transition moves the request from one status to another only if it is
// still in the expected status. pgx.ErrNoRows means it was not.
func (r *ChatRequestRepo) Transition(ctx context.Context, id uuid.UUID, from, to models.ChatRequestStatus) (*models.ChatRequest, error) {
	return scanChatRequest(r.pool.QueryRow(ctx, `
		UPDATE chat_requests
		SET status = $3,
			responded_at = CASE WHEN $3 IN ('accepted', 'rejected') THEN NOW() ELSE responded_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+chatRequestColumns,
		id, from, to,
	))
}

// ExpireStale expires pending requests created before pendingBefore and
// accepted requests answered before acceptedBefore.
func (r *ChatRequestRepo) ExpireStale(ctx context.Context, pendingBefore, acceptedBefore time.Time) ([]models.ChatRequest, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE chat_requests
		SET status = 'expired', updated_at = NOW()
		WHERE (status = 'pending' AND requested_at < $1)
		   OR (status = 'accepted' AND COALESCE(responded_at, requested_at) < $2)
		RETURNING `+chatRequestColumns,
		pendingBefore, acceptedBefore,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expired := make([]models.ChatRequest, 0)
	for rows.Next() {
		cr, err := scanChatRequest(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *cr)
	}
	return expired, rows.Err()
}
