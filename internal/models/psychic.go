package models

import (
	"time"

	"github.com/google/uuid"
)

type Psychic struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Bio           *string    `json:"bio"`
	ImageURL      *string    `json:"image_url"`
	Specialties   []string   `json:"specialties"`
	RatePerMin    Credits    `json:"rate_per_min"`
	IsVerified    bool       `json:"is_verified"`
	AverageRating float64    `json:"average_rating"`
	RatingCount   int        `json:"rating_count"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"-"`
}

// PsychicWithEarnings is the admin listing row.
type PsychicWithEarnings struct {
	Psychic
	Earnings EarningsSummary `json:"earnings"`
}

type CreatePsychicRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Bio         *string  `json:"bio"`
	ImageURL    *string  `json:"imageUrl"`
	Specialties []string `json:"specialties"`
	RatePerMin  Credits  `json:"ratePerMin"`
}
