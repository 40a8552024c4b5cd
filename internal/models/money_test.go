package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditsJSON(t *testing.T) {
	out, err := json.Marshal(struct {
		Amount Credits `json:"amount"`
	}{Amount: 150})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1.50}`, string(out))

	var in struct {
		Amount Credits `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":0.1}`), &in))
	assert.Equal(t, Credits(10), in.Amount)

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"ten"}`), &in))
}

func TestCreditsFromFloatRounds(t *testing.T) {
	assert.Equal(t, Credits(30), CreditsFromFloat(0.1+0.2))
	assert.Equal(t, Credits(1999), CreditsFromFloat(19.99))
	assert.Equal(t, "19.99", Credits(1999).String())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ChatRequestStatus
		want     bool
	}{
		{RequestPending, RequestAccepted, true},
		{RequestPending, RequestCancelled, true},
		{RequestPending, RequestConsumed, false},
		{RequestAccepted, RequestConsumed, true},
		{RequestAccepted, RequestCancelled, false},
		{RequestConsumed, RequestExpired, false},
		{RequestRejected, RequestPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}

	assert.True(t, RequestAccepted.Outstanding())
	assert.False(t, RequestExpired.Outstanding())
	assert.True(t, RequestConsumed.Terminal())
	assert.False(t, RequestPending.Terminal())
}
