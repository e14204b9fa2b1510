package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/venslow/gatehouse/internal/config"
)

// NewRedis connects the rate-limiter store from a redis:// URL and verifies
// it answers before the server starts taking traffic.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}
