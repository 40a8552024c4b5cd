package services

import (
	"math"
	"time"

	"psychicline-backend/internal/models"
)

// AllowedMinutes is how many whole minutes the balance buys at rate.
func AllowedMinutes(balance, rate models.Credits) int64 {
	if rate <= 0 || balance <= 0 {
		return 0
	}
	return int64(balance / rate)
}

// CanSendRequest reports whether the balance covers at least one minute.
func CanSendRequest(balance, rate models.Credits) bool {
	return rate > 0 && balance >= rate
}

// BilledMinutes rounds the elapsed time up to whole minutes, charging at
// least one and never more than allowed.
func BilledMinutes(startedAt, endedAt time.Time, allowed int) int {
	elapsed := endedAt.Sub(startedAt)
	minutes := int(math.Ceil(elapsed.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	if minutes > allowed {
		minutes = allowed
	}
	return minutes
}

// Split is an amount divided between psychic and platform.
type Split struct {
	Psychic  models.Credits
	Platform models.Credits
}

// RevenueSplitter is the only place earnings shares are computed.
type RevenueSplitter struct {
	PsychicRate float64
}

func NewRevenueSplitter(psychicRate float64) RevenueSplitter {
	return RevenueSplitter{PsychicRate: psychicRate}
}

// Split rounds the psychic share half up to the cent and gives the platform
// the remainder, so the two parts always add up to amount.
func (r RevenueSplitter) Split(amount models.Credits) Split {
	psychic := models.Credits(math.Floor(float64(amount)*r.PsychicRate + 0.5))
	if psychic > amount {
		psychic = amount
	}
	return Split{Psychic: psychic, Platform: amount - psychic}
}
