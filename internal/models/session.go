package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// ChatSession is a paid timer. Once completed it carries the billed amount and
// its revenue split.
type ChatSession struct {
	ID               uuid.UUID  `json:"id"`
	RequestID        uuid.UUID  `json:"request_id"`
	UserID           uuid.UUID  `json:"user_id"`
	PsychicID        uuid.UUID  `json:"psychic_id"`
	Status           string     `json:"status"`
	RatePerMin       Credits    `json:"rate_per_min"`
	AllowedMinutes   int        `json:"allowed_minutes"`
	Reserved         Credits    `json:"reserved"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at"`
	EndedBy          *string    `json:"ended_by"`
	BilledMinutes    int        `json:"billed_minutes"`
	Amount           Credits    `json:"amount"`
	PsychicEarnings  Credits    `json:"psychic_earnings"`
	PlatformEarnings Credits    `json:"platform_earnings"`
}

// Deadline is when the allotted minutes run out.
func (s *ChatSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.AllowedMinutes) * time.Minute)
}

type SessionDetail struct {
	ChatSession
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	PsychicName string `json:"psychic_name"`
}

// PsychicChatSummary groups completed sessions per psychic for the admin chat views.
type PsychicChatSummary struct {
	PsychicID     uuid.UUID  `json:"psychic_id"`
	PsychicName   string     `json:"psychic_name"`
	SessionCount  int        `json:"session_count"`
	TotalMinutes  int        `json:"total_minutes"`
	GrossAmount   Credits    `json:"gross_amount"`
	LastSessionAt *time.Time `json:"last_session_at"`
}

type EarningsSummary struct {
	PsychicID        uuid.UUID `json:"psychic_id"`
	Sessions         int       `json:"sessions"`
	TotalMinutes     int       `json:"total_minutes"`
	GrossAmount      Credits   `json:"gross_amount"`
	PsychicEarnings  Credits   `json:"psychic_earnings"`
	PlatformEarnings Credits   `json:"platform_earnings"`
	PaidOut          Credits   `json:"paid_out"`
	Outstanding      Credits   `json:"outstanding"`
}

type Payout struct {
	ID        uuid.UUID `json:"id"`
	PsychicID uuid.UUID `json:"psychic_id"`
	Amount    Credits   `json:"amount"`
	PaymentID string    `json:"payment_id"`
	Note      *string   `json:"note"`
	PaidBy    uuid.UUID `json:"paid_by"`
	CreatedAt time.Time `json:"created_at"`
}

type PayoutRequest struct {
	Amount    Credits `json:"amount"`
	PaymentID string  `json:"paymentId"`
	Note      *string `json:"note"`
}

type PayoutResult struct {
	Payout    *Payout          `json:"payout"`
	Duplicate bool             `json:"duplicate"`
	Earnings  *EarningsSummary `json:"earnings"`
}
