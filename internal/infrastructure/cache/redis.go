package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cmcs-backend/internal/config"
)

const pingTimeout = 5 * time.Second

// OpenRedis connects and pings; the client backs request idempotency.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return r, nil
}
