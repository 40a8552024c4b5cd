package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Email job types processed by the worker pool.
const (
	JobMessageReply    = "message-reply"
	JobPayoutReceipt   = "payout-receipt"
	JobRequestAccepted = "request-accepted"
)

type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

type MessageReplyPayload struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type PayoutReceiptPayload struct {
	To          string  `json:"to"`
	PsychicName string  `json:"psychic_name"`
	Amount      Credits `json:"amount"`
	PaymentID   string  `json:"payment_id"`
}

type RequestAcceptedPayload struct {
	To          string    `json:"to"`
	UserName    string    `json:"user_name"`
	PsychicName string    `json:"psychic_name"`
	RequestID   uuid.UUID `json:"request_id"`
}

// WebSocket message types
const (
	WSChatRequestUpdate = "chat_request_update"
	WSSessionUpdate     = "session_update"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ChatRequestUpdate struct {
	RequestID uuid.UUID         `json:"request_id"`
	UserID    uuid.UUID         `json:"user_id"`
	PsychicID uuid.UUID         `json:"psychic_id"`
	Status    ChatRequestStatus `json:"status"`
	SessionID *uuid.UUID        `json:"session_id,omitempty"`
}

type SessionUpdate struct {
	SessionID     uuid.UUID `json:"session_id"`
	Status        string    `json:"status"`
	BilledMinutes int       `json:"billed_minutes"`
	Amount        Credits   `json:"amount"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
