package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/focitech/focitech/engine/infra/server/router"
	"github.com/focitech/focitech/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const LimitReachedMessage = "Too many requests. Please wait a moment and try again."

// Manager hands out one limiter middleware per named route, all sharing a
// single store.
type Manager struct {
	config   *Config
	store    limiter.Store
	recorder Recorder
}

// NewManager uses a redis store when client is set and an in-memory store
// otherwise.
func NewManager(cfg *Config, client *redis.Client, recorder Recorder) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = NoopRecorder
	}
	var store limiter.Store
	if client != nil {
		s, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:   cfg.Prefix,
			MaxRetry: cfg.MaxRetry,
		})
		if err != nil {
			return nil, fmt.Errorf("creating redis rate limit store: %w", err)
		}
		store = s
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          cfg.Prefix,
			CleanUpInterval: time.Minute,
		})
	}
	return &Manager{config: cfg, store: store, recorder: recorder}, nil
}

// Middleware limits requests to the named route per client IP. Disabled or
// unknown routes pass through.
func (m *Manager) Middleware(name string) gin.HandlerFunc {
	rate, ok := m.config.Rates[name]
	if !m.config.Enabled || !ok || rate.Limit == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	lim := limiter.New(m.store, rate.ToLimiterRate())
	return mgin.NewMiddleware(lim,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return name + ":" + c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			m.recorder.RateLimited(name)
			logger.FromContext(c.Request.Context()).Warn("Rate limit reached", "route", name, "client_ip", c.ClientIP())
			router.RespondProblemWithCode(c, http.StatusTooManyRequests, router.ErrRateLimitedCode, LimitReachedMessage)
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open so a store outage does not block visitors
			logger.FromContext(c.Request.Context()).Error("Rate limiter failed", "route", name, "error", err)
			c.Next()
		}),
	)
}
