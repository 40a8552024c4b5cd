package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds two connections to the same server. Main serves refresh
// tokens, the email queue, rate limits, locks and analytics. PubSub carries
// the user_updates channels for the WebSocket hub.
type RedisClients struct {
	Main   *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	main, err := dialRedis(ctx, opt, "main")
	if err != nil {
		return nil, err
	}

	pubsubOpt := *opt
	pubsubOpt.PoolSize = 4
	pubsub, err := dialRedis(ctx, &pubsubOpt, "pubsub")
	if err != nil {
		main.Close()
		return nil, err
	}

	return &RedisClients{Main: main, PubSub: pubsub}, nil
}

func dialRedis(ctx context.Context, opt *redis.Options, name string) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", name, err)
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Main.Close()
	r.PubSub.Close()
}
