package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// NewClient parses redisURL and returns a client that answered PING.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	return client, nil
}

// Checker adapts a client to the readiness probe.
type Checker struct {
	client *redis.Client
}

// NewChecker wraps client.
func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

// Ping reports whether the server answers.
func (c *Checker) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
