package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type MessageRepo struct {
	pool DB
}

func NewMessageRepo(pool DB) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, m *models.Message) error {
	m.ID = uuid.New()
	m.Status = models.MessageNew
	return r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, name, email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		m.ID, m.Name, m.Email, m.Subject, m.Body, m.Status,
	).Scan(&m.CreatedAt)
}

func (r *MessageRepo) List(ctx context.Context) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, name, email, subject, body, status, created_at FROM messages ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Status, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetByID loads the message with its reply thread.
func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	m := &models.Message{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, email, subject, body, status, created_at FROM messages WHERE id = $1", id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		"SELECT id, message_id, admin_id, body, created_at FROM message_replies WHERE message_id = $1 ORDER BY created_at", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m.Replies = make([]models.MessageReply, 0)
	for rows.Next() {
		var rep models.MessageReply
		if err := rows.Scan(&rep.ID, &rep.MessageID, &rep.AdminID, &rep.Body, &rep.CreatedAt); err != nil {
			return nil, err
		}
		m.Replies = append(m.Replies, rep)
	}
	return m, rows.Err()
}

// AddReply stores the reply and marks the message replied.
func (r *MessageRepo) AddReply(ctx context.Context, reply *models.MessageReply) error {
	reply.ID = uuid.New()
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "UPDATE messages SET status = $1 WHERE id = $2", models.MessageReplied, reply.MessageID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return tx.QueryRow(ctx, `
			INSERT INTO message_replies (id, message_id, admin_id, body)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at`,
			reply.ID, reply.MessageID, reply.AdminID, reply.Body,
		).Scan(&reply.CreatedAt)
	})
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM messages WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
