// Package events publishes marketplace domain events to the NATS bus.
package events

import "time"

// Event subjects, published under "events.".
const (
	ChatRequestCreated   = "chat_request.created"
	ChatRequestAccepted  = "chat_request.accepted"
	ChatRequestRejected  = "chat_request.rejected"
	ChatRequestCancelled = "chat_request.cancelled"
	ChatRequestExpired   = "chat_request.expired"
	SessionStarted       = "session.started"
	SessionCompleted     = "session.completed"
	PayoutCreated        = "payout.created"
	CreditsAdded         = "wallet.credits_added"
)

type Event struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) Event {
	return Event{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}
