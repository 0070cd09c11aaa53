package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrConnectionConfig is returned when the connection parameters are missing or conflicting.
var ErrConnectionConfig = errors.New("redis: exactly one of addr or url must be set")

// ConnOptions describes how to reach the shared store.
type ConnOptions struct {
	Addr     string
	URL      string
	Password string
	DB       int
}

// NewClient builds a client from ConnOptions and verifies the connection.
func NewClient(ctx context.Context, opts ConnOptions) (*redis.Client, error) {
	if (opts.Addr == "") == (opts.URL == "") {
		return nil, ErrConnectionConfig
	}

	var redisOpts *redis.Options
	if opts.URL != "" {
		parsed, err := redis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisOpts = parsed
	} else {
		redisOpts = &redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}
	}

	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
