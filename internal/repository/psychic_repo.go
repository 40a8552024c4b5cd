package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"psychicline-backend/internal/models"
)

type PsychicRepo struct {
	pool DB
}

func NewPsychicRepo(pool DB) *PsychicRepo {
	return &PsychicRepo{pool: pool}
}

const psychicSelect = `
	SELECT ps.id, ps.name, ps.email, ps.password_hash, ps.bio, ps.image_url, ps.specialties,
		ps.rate_per_min_cents, ps.is_verified, COALESCE(rt.avg_rating, 0)::float8, COALESCE(rt.rating_count, 0),
		ps.created_at, ps.deleted_at
	FROM psychics ps
	LEFT JOIN (
		SELECT psychic_id, AVG(rating) AS avg_rating, COUNT(*) AS rating_count
		FROM ratings GROUP BY psychic_id
	) rt ON rt.psychic_id = ps.id`

// earningsSelect aggregates completed sessions and payouts per psychic in one pass.
const earningsSelect = `
	SELECT ps.id,
		COALESCE(s.sessions, 0), COALESCE(s.minutes, 0), COALESCE(s.gross, 0),
		COALESCE(s.psychic_share, 0), COALESCE(s.platform_share, 0), COALESCE(p.paid, 0)
	FROM psychics ps
	LEFT JOIN (
		SELECT psychic_id, COUNT(*) AS sessions, SUM(billed_minutes)::bigint AS minutes, SUM(amount_cents)::bigint AS gross,
			SUM(psychic_earnings_cents)::bigint AS psychic_share, SUM(platform_earnings_cents)::bigint AS platform_share
		FROM chat_sessions WHERE status = 'completed' GROUP BY psychic_id
	) s ON s.psychic_id = ps.id
	LEFT JOIN (
		SELECT psychic_id, SUM(amount_cents)::bigint AS paid FROM payouts GROUP BY psychic_id
	) p ON p.psychic_id = ps.id`

func scanPsychic(row pgx.Row) (*models.Psychic, error) {
	p := &models.Psychic{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Bio, &p.ImageURL, &p.Specialties,
		&p.RatePerMin, &p.IsVerified, &p.AverageRating, &p.RatingCount,
		&p.CreatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanEarnings(row pgx.Row) (*models.EarningsSummary, error) {
	e := &models.EarningsSummary{}
	err := row.Scan(
		&e.PsychicID, &e.Sessions, &e.TotalMinutes, &e.GrossAmount,
		&e.PsychicEarnings, &e.PlatformEarnings, &e.PaidOut,
	)
	if err != nil {
		return nil, err
	}
	e.Outstanding = e.PsychicEarnings - e.PaidOut
	return e, nil
}

func (r *PsychicRepo) Create(ctx context.Context, p *models.Psychic) error {
	p.ID = uuid.New()
	if p.Specialties == nil {
		p.Specialties = []string{}
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO psychics (id, name, email, password_hash, bio, image_url, specialties, rate_per_min_cents, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Bio, p.ImageURL, p.Specialties, p.RatePerMin, p.IsVerified,
	).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID ignores soft-deleted psychics.
func (r *PsychicRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Psychic, error) {
	return scanPsychic(r.pool.QueryRow(ctx, psychicSelect+" WHERE ps.id = $1 AND ps.deleted_at IS NULL", id))
}

func (r *PsychicRepo) GetByEmail(ctx context.Context, email string) (*models.Psychic, error) {
	return scanPsychic(r.pool.QueryRow(ctx, psychicSelect+" WHERE ps.email = $1 AND ps.deleted_at IS NULL", email))
}

func (r *PsychicRepo) list(ctx context.Context, where string) ([]models.Psychic, error) {
	rows, err := r.pool.Query(ctx, psychicSelect+" "+where+" ORDER BY ps.created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	psychics := make([]models.Psychic, 0)
	for rows.Next() {
		p, err := scanPsychic(rows)
		if err != nil {
			return nil, err
		}
		psychics = append(psychics, *p)
	}
	return psychics, rows.Err()
}

// ListVerified is the public marketplace listing.
func (r *PsychicRepo) ListVerified(ctx context.Context) ([]models.Psychic, error) {
	return r.list(ctx, "WHERE ps.deleted_at IS NULL AND ps.is_verified = TRUE")
}

// ListWithEarnings returns every live psychic joined with its earnings. Two
// queries regardless of the number of psychics.
func (r *PsychicRepo) ListWithEarnings(ctx context.Context) ([]models.PsychicWithEarnings, error) {
	psychics, err := r.list(ctx, "WHERE ps.deleted_at IS NULL")
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, earningsSelect+" WHERE ps.deleted_at IS NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]models.EarningsSummary, len(psychics))
	for rows.Next() {
		e, err := scanEarnings(rows)
		if err != nil {
			return nil, err
		}
		byID[e.PsychicID] = *e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.PsychicWithEarnings, 0, len(psychics))
	for _, p := range psychics {
		e, ok := byID[p.ID]
		if !ok {
			e = models.EarningsSummary{PsychicID: p.ID}
		}
		out = append(out, models.PsychicWithEarnings{Psychic: p, Earnings: e})
	}
	return out, nil
}

// Earnings also covers soft-deleted psychics.
func (r *PsychicRepo) Earnings(ctx context.Context, id uuid.UUID) (*models.EarningsSummary, error) {
	return scanEarnings(r.pool.QueryRow(ctx, earningsSelect+" WHERE ps.id = $1", id))
}

// ToggleVerify flips the verified flag and returns the new value.
func (r *PsychicRepo) ToggleVerify(ctx context.Context, id uuid.UUID) (bool, error) {
	var verified bool
	err := r.pool.QueryRow(ctx,
		"UPDATE psychics SET is_verified = NOT is_verified WHERE id = $1 AND deleted_at IS NULL RETURNING is_verified",
		id,
	).Scan(&verified)
	return verified, err
}

// SoftDelete hides the psychic. Sessions and payouts keep referencing the row.
func (r *PsychicRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE psychics SET deleted_at = NOW(), is_verified = FALSE WHERE id = $1 AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
