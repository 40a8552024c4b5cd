package repository

import (
	"context"

	"psychicline-backend/internal/models"
)

type StatsRepo struct {
	pool DB
}

func NewStatsRepo(pool DB) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Platform(ctx context.Context) (*models.PlatformStats, error) {
	st := &models.PlatformStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM psychics WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM psychics WHERE deleted_at IS NULL AND is_verified = TRUE),
			(SELECT COUNT(*) FROM chat_sessions WHERE status = 'completed'),
			(SELECT COUNT(*) FROM chat_sessions WHERE status = 'active'),
			(SELECT COUNT(*) FROM chat_requests WHERE status = 'pending'),
			COALESCE((SELECT SUM(amount_cents) FROM chat_sessions WHERE status = 'completed'), 0)::bigint,
			COALESCE((SELECT SUM(psychic_earnings_cents) FROM chat_sessions WHERE status = 'completed'), 0)::bigint,
			COALESCE((SELECT SUM(platform_earnings_cents) FROM chat_sessions WHERE status = 'completed'), 0)::bigint,
			COALESCE((SELECT SUM(amount_cents) FROM payouts), 0)::bigint
	`).Scan(
		&st.TotalUsers, &st.TotalPsychics, &st.VerifiedPsychics, &st.TotalSessions, &st.ActiveSessions,
		&st.PendingRequests, &st.GrossRevenue, &st.PsychicEarnings, &st.PlatformEarnings, &st.TotalPaidOut,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}
