package ratelimit

import (
	"fmt"
	"time"

	"github.com/focitech/focitech/pkg/config"
	"github.com/ulule/limiter/v3"
)

// Names of the rate limited form posts.
const (
	RouteContact = "contact"
	RouteApply   = "apply"
	RouteLogin   = "login"
)

// Config represents rate limiting configuration
type Config struct {
	Enabled bool
	// Rates holds one limit per named route. A zero Limit disables the route.
	Rates    map[string]RateConfig
	Prefix   string
	MaxRetry int
}

// RateConfig represents a single rate limit configuration
type RateConfig struct {
	Period time.Duration
	Limit  int64
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Rates: map[string]RateConfig{
			RouteContact: {Limit: 5, Period: time.Minute},
			RouteApply:   {Limit: 3, Period: time.Minute},
			// stricter to slow password guessing
			RouteLogin: {Limit: 10, Period: 5 * time.Minute},
		},
		Prefix:   "focitech:ratelimit:",
		MaxRetry: 3,
	}
}

// FromAppConfig converts the application rate limit section.
func FromAppConfig(cfg *config.RateLimitConfig) *Config {
	out := DefaultConfig()
	out.Enabled = cfg.Enabled
	if cfg.Prefix != "" {
		out.Prefix = cfg.Prefix
	}
	for name, rate := range map[string]config.RateConfig{
		RouteContact: cfg.Contact,
		RouteApply:   cfg.Apply,
		RouteLogin:   cfg.Login,
	} {
		if rate.Period > 0 {
			out.Rates[name] = RateConfig{Limit: rate.Limit, Period: rate.Period}
		}
	}
	return out
}

// ToLimiterRate converts RateConfig to limiter.Rate
func (rc RateConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{
		Period: rc.Period,
		Limit:  rc.Limit,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for route, rate := range c.Rates {
		if rate.Limit < 0 {
			return fmt.Errorf("rate limit for %s must not be negative", route)
		}
		if rate.Limit > 0 && rate.Period <= 0 {
			return fmt.Errorf("rate limit period for %s must be positive", route)
		}
	}
	return nil
}
