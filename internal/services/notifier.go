package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"psychicline-backend/internal/models"
)

// UpdateChannel is the pub/sub channel the websocket hub relays to one account.
func UpdateChannel(id uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", id.String())
}

// Notifier pushes realtime updates through Redis pub/sub so every API
// instance's websocket hub can deliver them.
type Notifier struct {
	redis *redis.Client
	log   *zap.Logger
}

func NewNotifier(redisClient *redis.Client, log *zap.Logger) *Notifier {
	return &Notifier{redis: redisClient, log: log}
}

func (n *Notifier) PublishUpdate(ctx context.Context, id uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("marshal ws message", zap.Error(err))
		return
	}
	if err := n.redis.Publish(ctx, UpdateChannel(id), string(data)).Err(); err != nil {
		n.log.Warn("publish ws update", zap.String("to", id.String()), zap.Error(err))
	}
}
