// Package queue implements the Redis-backed report job queue: a wait list
// for ready jobs, a delayed set for backoff retries, and a failed list for
// jobs that exhausted their attempts.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civicpulse/classifier/internal/config"
)

const redisPingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Address, err)
	}

	return client, nil
}
