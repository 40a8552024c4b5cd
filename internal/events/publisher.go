package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends events to NATS. A nil connection turns Publish into a no-op
// so the API runs without a bus in development.
type Publisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) (*Publisher, error) {
	if url == "" {
		log.Info("NATS_URL not set, domain events disabled")
		return &Publisher{log: log}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("psychicline-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{nc: nc, log: log}, nil
}

func Subject(eventType string) string {
	return "events." + eventType
}

func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.nc == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.nc.Publish(Subject(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", Subject(event.Type), err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Drain()
	}
}
