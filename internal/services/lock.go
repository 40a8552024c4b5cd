package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock is a best-effort SETNX lock shared by the worker pool and the
// scheduler.
type RedisLock struct {
	redis *redis.Client
}

func NewRedisLock(redisClient *redis.Client) *RedisLock {
	return &RedisLock{redis: redisClient}
}

// TryLock reports whether the key was free and is now held until ttl.
// Redis errors count as not acquired.
func (l *RedisLock) TryLock(ctx context.Context, key string, ttl time.Duration) bool {
	ok, err := l.redis.SetNX(ctx, key, "1", ttl).Result()
	return err == nil && ok
}

func (l *RedisLock) Unlock(ctx context.Context, key string) {
	l.redis.Del(ctx, key)
}
