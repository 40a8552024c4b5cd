package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequestStatus string

const (
	RequestPending   ChatRequestStatus = "pending"
	RequestAccepted  ChatRequestStatus = "accepted"
	RequestRejected  ChatRequestStatus = "rejected"
	RequestCancelled ChatRequestStatus = "cancelled"
	RequestExpired   ChatRequestStatus = "expired"
	RequestConsumed  ChatRequestStatus = "consumed"
)

var requestTransitions = map[ChatRequestStatus][]ChatRequestStatus{
	RequestPending:  {RequestAccepted, RequestRejected, RequestCancelled, RequestExpired},
	RequestAccepted: {RequestConsumed, RequestExpired},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to ChatRequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outstanding statuses count against the one-open-request-per-pair rule.
func (s ChatRequestStatus) Outstanding() bool {
	return s == RequestPending || s == RequestAccepted
}

func (s ChatRequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

type ChatRequest struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	PsychicID   uuid.UUID         `json:"psychic_id"`
	Status      ChatRequestStatus `json:"status"`
	RequestedAt time.Time         `json:"requested_at"`
	RespondedAt *time.Time        `json:"responded_at"`
	SessionID   *uuid.UUID        `json:"session_id"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ChatRequestView is what a user sees when opening the request modal for a psychic.
type ChatRequestView struct {
	Request        *ChatRequest `json:"request"`
	Credits        Credits      `json:"credits"`
	RatePerMin     Credits      `json:"rate_per_min"`
	AllowedMinutes int64        `json:"allowed_minutes"`
	CanSendRequest bool         `json:"can_send_request"`
}

// InboxItem is a request as listed for the target psychic.
type InboxItem struct {
	ChatRequest
	UserName string `json:"user_name"`
}

type SendChatRequest struct {
	PsychicID uuid.UUID `json:"psychicId"`
}

type StartSessionRequest struct {
	RequestID uuid.UUID `json:"requestId"`
}

type StartSessionResponse struct {
	Session      *ChatSession `json:"session"`
	TotalMinutes int          `json:"total_minutes"`
}
