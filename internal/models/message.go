package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageNew     = "new"
	MessageReplied = "replied"
)

// Message is a contact-form submission handled from the admin inbox.
type Message struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Replies   []MessageReply `json:"replies,omitempty"`
}

type MessageReply struct {
	ID        uuid.UUID `json:"id"`
	MessageID uuid.UUID `json:"message_id"`
	AdminID   uuid.UUID `json:"admin_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateMessageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type ReplyMessageRequest struct {
	Body string `json:"body"`
}
