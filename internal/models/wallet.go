package models

import (
	"time"

	"github.com/google/uuid"
)

type Wallet struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   Credits   `json:"credits"`
	Reserved  Credits   `json:"reserved_credits"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Available is the part of the balance not held by an active session.
func (w *Wallet) Available() Credits {
	return w.Balance - w.Reserved
}

const (
	TransactionCredit = "credit"
	TransactionDebit  = "debit"
)

type WalletTransaction struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        string     `json:"type"`
	Amount      Credits    `json:"amount"`
	Description string     `json:"description"`
	SessionID   *uuid.UUID `json:"session_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AddCreditsRequest struct {
	UserID uuid.UUID `json:"userId"`
	Amount Credits   `json:"amount"`
}

type BalanceResponse struct {
	Credits        Credits  `json:"credits"`
	Reserved       Credits  `json:"reserved_credits"`
	Available      Credits  `json:"available_credits"`
	RatePerMin     *Credits `json:"rate_per_min,omitempty"`
	AllowedMinutes *int64   `json:"allowed_minutes,omitempty"`
	CanSendRequest *bool    `json:"can_send_request,omitempty"`
}
