package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var ErrRedisNotConfigured = errors.New("redis url is not configured")

const redisPingTimeout = 5 * time.Second

// NewRedis connects to cfg.URL and verifies the connection with a ping. The
// client backs the session store and the rate limiter.
func NewRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, ErrRedisNotConfigured
	}
	log := logger.FromContext(ctx).With("component", "infra_redis")
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}
	log.Info("Connected to redis", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}
