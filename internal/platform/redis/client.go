// Package redis opens the Redis connection that backs guest quota rows when
// REDIS_URL is set.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"atelier/internal/platform/config"
)

// ClientName tags connections in CLIENT LIST.
const ClientName = "atelier-guestquota"

// Fallbacks when the config leaves a pool setting at zero. Guest scripts are
// single round trips, so IO timeouts stay at one second.
const (
	defaultPoolSize     = 10
	defaultMinIdleConns = 2
	defaultDialTimeout  = 5 * time.Second
	defaultIOTimeout    = time.Second
)

// Client wraps the go-redis client with a health check.
type Client struct {
	*redis.Client
}

// New connects and pings. Returns nil without error when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Options parses the URL and applies pool settings, filling zero values with
// the guest quota defaults.
func Options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.ClientName = ClientName
	opts.PoolSize = orDefault(cfg.PoolSize, defaultPoolSize)
	opts.MinIdleConns = orDefault(cfg.MinIdleConns, defaultMinIdleConns)
	opts.DialTimeout = orDefault(cfg.DialTimeout, defaultDialTimeout)
	opts.ReadTimeout = orDefault(cfg.ReadTimeout, defaultIOTimeout)
	opts.WriteTimeout = orDefault(cfg.WriteTimeout, defaultIOTimeout)
	if opts.MinIdleConns > opts.PoolSize {
		opts.MinIdleConns = opts.PoolSize
	}
	return opts, nil
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
