package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"psychicline-backend/internal/models"
)

func TestAllowedMinutes(t *testing.T) {
	tests := []struct {
		name    string
		balance float64
		rate    float64
		want    int64
	}{
		{"fractional rate", 4.0, 1.50, 2},
		{"exact multiple", 10, 2.5, 4},
		{"below one minute", 1.49, 1.50, 0},
		{"zero balance", 0, 1, 0},
		{"zero rate", 10, 0, 0},
		{"negative balance", -5, 1, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowedMinutes(models.CreditsFromFloat(tc.balance), models.CreditsFromFloat(tc.rate))
			assert.Equal(t, tc.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestCanSendRequestMatchesBalanceCoversRate(t *testing.T) {
	rate := models.CreditsFromFloat(1.50)

	assert.True(t, CanSendRequest(models.CreditsFromFloat(4.0), rate))
	assert.True(t, CanSendRequest(rate, rate))
	assert.False(t, CanSendRequest(rate-1, rate))
	assert.False(t, CanSendRequest(100, 0))

	for balance := models.Credits(0); balance < 1000; balance += 7 {
		for r := models.Credits(1); r < 500; r += 13 {
			assert.Equal(t, balance >= r, CanSendRequest(balance, r))
			assert.Equal(t, CanSendRequest(balance, r), AllowedMinutes(balance, r) >= 1)
		}
	}
}

func TestBilledMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, BilledMinutes(start, start, 5))
	assert.Equal(t, 1, BilledMinutes(start, start.Add(30*time.Second), 5))
	assert.Equal(t, 2, BilledMinutes(start, start.Add(61*time.Second), 5))
	assert.Equal(t, 3, BilledMinutes(start, start.Add(3*time.Minute), 5))
	assert.Equal(t, 5, BilledMinutes(start, start.Add(time.Hour), 5))
}

func TestRevenueSplitDefaultRate(t *testing.T) {
	s := NewRevenueSplitter(0.25).Split(models.CreditsFromFloat(100))

	assert.Equal(t, "25.00", s.Psychic.String())
	assert.Equal(t, "75.00", s.Platform.String())
}

func TestRevenueSplitAlwaysSumsToAmount(t *testing.T) {
	for _, rate := range []float64{0, 0.1, 0.25, 1.0 / 3, 0.5, 0.99, 1} {
		splitter := NewRevenueSplitter(rate)
		for amount := models.Credits(0); amount <= 5000; amount += 3 {
			s := splitter.Split(amount)
			assert.Equal(t, amount, s.Psychic+s.Platform, "rate %v amount %d", rate, amount)
			assert.GreaterOrEqual(t, int64(s.Psychic), int64(0))
			assert.GreaterOrEqual(t, int64(s.Platform), int64(0))
		}
	}
}

func TestRevenueSplitRoundsHalfUp(t *testing.T) {
	// 0.02 * 0.25 = 0.005 -> 0.01
	s := NewRevenueSplitter(0.25).Split(2)
	assert.Equal(t, models.Credits(1), s.Psychic)
	assert.Equal(t, models.Credits(1), s.Platform)
}
