package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type SessionRepo struct {
	pool DB
}

func NewSessionRepo(pool DB) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// OpenFunc decides, under lock, whether an accepted request may become a
// session. It returns the session to insert or an error to abort.
type OpenFunc func(req *models.ChatRequest, rate models.Credits, wallet *models.Wallet) (*models.ChatSession, error)

// Settlement is the billing outcome applied when a session ends.
type Settlement struct {
	BilledMinutes    int
	Amount           models.Credits
	PsychicEarnings  models.Credits
	PlatformEarnings models.Credits
	EndedBy          string
	EndedAt          time.Time
}

// SettleFunc computes the settlement for a locked session. A nil settlement
// leaves the session untouched.
type SettleFunc func(s *models.ChatSession) (*Settlement, error)

const sessionColumns = `id, request_id, user_id, psychic_id, status, rate_per_min_cents, allowed_minutes, reserved_cents,
	started_at, ended_at, ended_by, billed_minutes, amount_cents, psychic_earnings_cents, platform_earnings_cents`

func scanSession(row pgx.Row) (*models.ChatSession, error) {
	s := &models.ChatSession{}
	err := row.Scan(
		&s.ID, &s.RequestID, &s.UserID, &s.PsychicID, &s.Status, &s.RatePerMin, &s.AllowedMinutes, &s.Reserved,
		&s.StartedAt, &s.EndedAt, &s.EndedBy, &s.BilledMinutes, &s.Amount, &s.PsychicEarnings, &s.PlatformEarnings,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open locks the request and the user's wallet, lets decide validate them,
// then reserves credits, consumes the request and inserts the session in a
// single transaction.
func (r *SessionRepo) Open(ctx context.Context, requestID uuid.UUID, decide OpenFunc) (*models.ChatSession, error) {
	var session *models.ChatSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		req, err := scanChatRequest(tx.QueryRow(ctx,
			"SELECT "+chatRequestColumns+" FROM chat_requests WHERE id = $1 FOR UPDATE", requestID))
		if err != nil {
			return err
		}

		var rate models.Credits
		err = tx.QueryRow(ctx,
			"SELECT rate_per_min_cents FROM psychics WHERE id = $1 AND deleted_at IS NULL", req.PsychicID,
		).Scan(&rate)
		if err != nil {
			return err
		}

		wallet, err := lockWallet(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		s, err := decide(req, rate, wallet)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			"UPDATE wallets SET reserved_cents = reserved_cents + $1, updated_at = NOW() WHERE user_id = $2",
			s.Reserved, req.UserID,
		); err != nil {
			return fmt.Errorf("reserve credits: %w", err)
		}

		s.ID = uuid.New()
		err = tx.QueryRow(ctx, `
			INSERT INTO chat_sessions (id, request_id, user_id, psychic_id, status, rate_per_min_cents, allowed_minutes, reserved_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING started_at`,
			s.ID, req.ID, req.UserID, req.PsychicID, models.SessionActive, s.RatePerMin, s.AllowedMinutes, s.Reserved,
		).Scan(&s.StartedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		s.RequestID, s.UserID, s.PsychicID, s.Status = req.ID, req.UserID, req.PsychicID, models.SessionActive

		if _, err := tx.Exec(ctx,
			"UPDATE chat_requests SET status = 'consumed', session_id = $1, updated_at = NOW() WHERE id = $2",
			s.ID, req.ID,
		); err != nil {
			return fmt.Errorf("consume request: %w", err)
		}

		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Settle locks the session and its wallet, lets settle compute the bill, then
// debits the balance, releases the reservation and completes the session.
func (r *SessionRepo) Settle(ctx context.Context, sessionID uuid.UUID, settle SettleFunc) (*models.ChatSession, error) {
	var session *models.ChatSession
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := scanSession(tx.QueryRow(ctx,
			"SELECT "+sessionColumns+" FROM chat_sessions WHERE id = $1 FOR UPDATE", sessionID))
		if err != nil {
			return err
		}

		st, err := settle(s)
		if err != nil {
			return err
		}
		if st == nil {
			session = s
			return nil
		}

		if _, err := lockWallet(ctx, tx, s.UserID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE wallets
			SET balance_cents = balance_cents - $1, reserved_cents = reserved_cents - $2, updated_at = NOW()
			WHERE user_id = $3`,
			st.Amount, s.Reserved, s.UserID,
		); err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}

		if st.Amount > 0 {
			sid := s.ID
			if err := insertTransaction(ctx, tx, &models.WalletTransaction{
				UserID:      s.UserID,
				Type:        models.TransactionDebit,
				Amount:      st.Amount,
				Description: fmt.Sprintf("Chat session, %d min", st.BilledMinutes),
				SessionID:   &sid,
			}); err != nil {
				return err
			}
		}

		session, err = scanSession(tx.QueryRow(ctx, `
			UPDATE chat_sessions
			SET status = $2, ended_at = $3, ended_by = $4, billed_minutes = $5,
				amount_cents = $6, psychic_earnings_cents = $7, platform_earnings_cents = $8
			WHERE id = $1
			RETURNING `+sessionColumns,
			s.ID, models.SessionCompleted, st.EndedAt, st.EndedBy, st.BilledMinutes,
			st.Amount, st.PsychicEarnings, st.PlatformEarnings,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	return scanSession(r.pool.QueryRow(ctx, "SELECT "+sessionColumns+" FROM chat_sessions WHERE id = $1", id))
}

// ListDue returns active sessions whose allotted time ended before now.
func (r *SessionRepo) ListDue(ctx context.Context, now time.Time) ([]models.ChatSession, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+sessionColumns+` FROM chat_sessions
		WHERE status = 'active' AND started_at + allowed_minutes * INTERVAL '1 minute' <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := make([]models.ChatSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, *s)
	}
	return due, rows.Err()
}

const sessionDetailSelect = `
	SELECT s.id, s.request_id, s.user_id, s.psychic_id, s.status, s.rate_per_min_cents, s.allowed_minutes, s.reserved_cents,
		s.started_at, s.ended_at, s.ended_by, s.billed_minutes, s.amount_cents, s.psychic_earnings_cents, s.platform_earnings_cents,
		u.full_name, u.email, p.name
	FROM chat_sessions s
	JOIN users u ON u.id = s.user_id
	JOIN psychics p ON p.id = s.psychic_id`

func scanSessionDetail(row pgx.Row) (*models.SessionDetail, error) {
	d := &models.SessionDetail{}
	err := row.Scan(
		&d.ID, &d.RequestID, &d.UserID, &d.PsychicID, &d.Status, &d.RatePerMin, &d.AllowedMinutes, &d.Reserved,
		&d.StartedAt, &d.EndedAt, &d.EndedBy, &d.BilledMinutes, &d.Amount, &d.PsychicEarnings, &d.PlatformEarnings,
		&d.UserName, &d.UserEmail, &d.PsychicName,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *SessionRepo) GetDetail(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	return scanSessionDetail(r.pool.QueryRow(ctx, sessionDetailSelect+" WHERE s.id = $1", id))
}

// ListDetails lists sessions newest first, optionally for one psychic.
func (r *SessionRepo) ListDetails(ctx context.Context, psychicID *uuid.UUID) ([]models.SessionDetail, error) {
	query := sessionDetailSelect
	var args []interface{}
	if psychicID != nil {
		query += " WHERE s.psychic_id = $1"
		args = append(args, *psychicID)
	}
	query += " ORDER BY s.started_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.SessionDetail, 0)
	for rows.Next() {
		d, err := scanSessionDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, rows.Err()
}

// SummarizeByPsychic groups completed sessions per psychic.
func (r *SessionRepo) SummarizeByPsychic(ctx context.Context) ([]models.PsychicChatSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, COUNT(s.id), COALESCE(SUM(s.billed_minutes), 0)::bigint,
			COALESCE(SUM(s.amount_cents), 0)::bigint, MAX(s.ended_at)
		FROM psychics p
		JOIN chat_sessions s ON s.psychic_id = p.id AND s.status = 'completed'
		GROUP BY p.id, p.name
		ORDER BY MAX(s.ended_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.PsychicChatSummary, 0)
	for rows.Next() {
		var sum models.PsychicChatSummary
		if err := rows.Scan(
			&sum.PsychicID, &sum.PsychicName, &sum.SessionCount, &sum.TotalMinutes,
			&sum.GrossAmount, &sum.LastSessionAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
