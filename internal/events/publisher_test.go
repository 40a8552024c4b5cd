package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublisher_NoURLIsNoop(t *testing.T) {
	p, err := NewPublisher("", zap.NewNop())
	require.NoError(t, err)

	err = p.Publish(context.Background(), New(ChatRequestCreated, map[string]interface{}{"id": "x"}))
	assert.NoError(t, err)
	p.Close()
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), New(PayoutCreated, nil)))
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.chat_request.accepted", Subject(ChatRequestAccepted))
}
