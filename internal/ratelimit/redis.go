package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the shared limiter store
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
}

// RedisStore is the Redis connection shared by every replica's limiter. A nil *RedisStore
// means the limiter runs in memory only.
type RedisStore struct {
	client *redis.Client
	addr   string
}

// ConnectRedis dials and pings Redis. It returns (nil, nil) when no address is configured and
// (nil, err) when the server is unreachable; callers fall back to in-memory limiting either way.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, nil
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   2,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	slog.Info("Redis rate limit store connected", "addr", opts.Addr, "db", opts.DB)
	return &RedisStore{client: client, addr: opts.Addr}, nil
}

// IsEnabled reports whether limits are shared through Redis
func (s *RedisStore) IsEnabled() bool {
	return s != nil && s.client != nil
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if !s.IsEnabled() {
		return fmt.Errorf("redis store not configured")
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the connection pool
func (s *RedisStore) Close() error {
	if !s.IsEnabled() {
		return nil
	}
	return s.client.Close()
}

// PoolStats reports connection pool usage
func (s *RedisStore) PoolStats() map[string]interface{} {
	if !s.IsEnabled() {
		return map[string]interface{}{"enabled": false}
	}

	stats := s.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        s.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}
