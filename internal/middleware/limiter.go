package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Rule is a fixed-window limit keyed by prefix + identifier.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Limiter counts actions in Redis so the limit holds across instances.
type Limiter struct {
	client *redis.Client
	log    *zap.Logger
}

func NewLimiter(client *redis.Client, log *zap.Logger) *Limiter {
	return &Limiter{client: client, log: log}
}

// Allow increments the counter for identifier and reports whether it is still
// within the rule. Redis errors fail open.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) bool {
	key := rule.Key + identifier

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		l.log.Warn("rate limiter incr failed, allowing", zap.String("key", key), zap.Error(err))
		return true
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, rule.Window).Err(); err != nil {
			l.log.Warn("rate limiter expire failed, allowing", zap.String("key", key), zap.Error(err))
			l.client.Del(ctx, key)
			return true
		}
	}

	return int(count) <= rule.Limit
}
