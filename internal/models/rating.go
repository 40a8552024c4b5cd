package models

import (
	"time"

	"github.com/google/uuid"
)

type Rating struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	UserID      uuid.UUID `json:"user_id"`
	PsychicID   uuid.UUID `json:"psychic_id"`
	Rating      int       `json:"rating"`
	Comment     *string   `json:"comment"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user_name,omitempty"`
	PsychicName string    `json:"psychic_name,omitempty"`
}

type CreateRatingRequest struct {
	SessionID uuid.UUID `json:"sessionId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
}
