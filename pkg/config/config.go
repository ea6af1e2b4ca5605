package config

import (
	"context"
	"time"
)

// Config represents the complete configuration for the Focitech web front end.
// It provides type-safe access to all configuration values with validation.
type Config struct {
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	API       APIConfig       `koanf:"api"       validate:"required"`
	Identity  IdentityConfig  `koanf:"identity"`
	Session   SessionConfig   `koanf:"session"   validate:"required"`
	Redis     RedisConfig     `koanf:"redis"`
	Database  DatabaseConfig  `koanf:"database"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Cache     CacheConfig     `koanf:"cache"`
	Uploads   UploadsConfig   `koanf:"uploads"`
	Runtime   RuntimeConfig   `koanf:"runtime"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string        `koanf:"host"          validate:"required"        env:"SERVER_HOST"`
	Port         int           `koanf:"port"          validate:"min=1,max=65535" env:"SERVER_PORT"`
	CORSEnabled  bool          `koanf:"cors_enabled"                             env:"SERVER_CORS_ENABLED"`
	CORS         CORSConfig    `koanf:"cors"`
	Timeout      time.Duration `koanf:"timeout"                                  env:"SERVER_TIMEOUT"`
	CookieName   string        `koanf:"cookie_name"   validate:"required"        env:"SERVER_COOKIE_NAME"`
	CookieSecure bool          `koanf:"cookie_secure"                            env:"SERVER_COOKIE_SECURE"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"   env:"SERVER_CORS_ALLOWED_ORIGINS"`
	AllowCredentials bool     `koanf:"allow_credentials" env:"SERVER_CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `koanf:"max_age"           env:"SERVER_CORS_MAX_AGE"`
}

// APIConfig points at the agency REST backend.
type APIConfig struct {
	BaseURL       string        `koanf:"base_url"       validate:"required,http_url" env:"API_BASE_URL"`
	Timeout       time.Duration `koanf:"timeout"                                     env:"API_TIMEOUT"`
	TrailingSlash bool          `koanf:"trailing_slash"                              env:"API_TRAILING_SLASH"`
}

// IdentityConfig points at the Supabase auth service.
type IdentityConfig struct {
	URL       string          `koanf:"url"        env:"SUPABASE_URL"`
	AnonKey   SensitiveString `koanf:"anon_key"   env:"SUPABASE_ANON_KEY"   sensitive:"true"`
	JWTSecret SensitiveString `koanf:"jwt_secret" env:"SUPABASE_JWT_SECRET" sensitive:"true"`
}

// SessionConfig controls browser session storage.
type SessionConfig struct {
	Store      string        `koanf:"store"       validate:"oneof=memory redis" env:"SESSION_STORE"`
	TTL        time.Duration `koanf:"ttl"                                       env:"SESSION_TTL"`
	MaxEntries int           `koanf:"max_entries" validate:"min=1"              env:"SESSION_MAX_ENTRIES"`
	Prefix     string        `koanf:"prefix"                                    env:"SESSION_PREFIX"`
}

// RedisConfig contains the shared Redis connection.
type RedisConfig struct {
	URL string `koanf:"url" env:"REDIS_URL" validate:"redis_url"`
}

// DatabaseConfig enables direct reads of the team table when set.
type DatabaseConfig struct {
	ConnString SensitiveString `koanf:"conn_string" env:"DATABASE_URL" sensitive:"true"`
}

// RateLimitConfig contains rate limiting configuration for form posts.
type RateLimitConfig struct {
	Enabled bool       `koanf:"enabled" env:"RATELIMIT_ENABLED"`
	Contact RateConfig `koanf:"contact"`
	Apply   RateConfig `koanf:"apply"`
	Login   RateConfig `koanf:"login"`
	Prefix  string     `koanf:"prefix"  env:"RATELIMIT_PREFIX"`
}

// RateConfig represents a single rate limit.
type RateConfig struct {
	Limit  int64         `koanf:"limit"  validate:"min=0"`
	Period time.Duration `koanf:"period"`
}

// CacheConfig controls the public page cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"  env:"CACHE_ENABLED"`
	TTL     time.Duration `koanf:"ttl"      env:"CACHE_TTL"`
	MaxCost int64         `koanf:"max_cost" env:"CACHE_MAX_COST" validate:"min=1"`
}

// UploadsConfig bounds resume uploads.
type UploadsConfig struct {
	MaxResumeBytes int64 `koanf:"max_resume_bytes" env:"UPLOADS_MAX_RESUME_BYTES" validate:"min=1"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   env:"RUNTIME_LOG_LEVEL"   validate:"omitempty,oneof=debug info warn error disabled"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type for a specific configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

const (
	DefaultAPIBaseURL   = "https://techfoci.onrender.com/api/v1"
	DefaultAPITimeout   = 10 * time.Second
	DefaultResumeLimit  = 5 * 1024 * 1024
	DefaultSessionTTL   = 24 * time.Hour
	DefaultCookieName   = "focitech_session"
	defaultRatePeriod   = time.Minute
	defaultSessionLimit = 10000
)

// Default returns a Config with default values for development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       8080,
			Timeout:    30 * time.Second,
			CookieName: DefaultCookieName,
			CORS: CORSConfig{
				AllowedOrigins: []string{},
				MaxAge:         86400,
			},
		},
		API: APIConfig{
			BaseURL:       DefaultAPIBaseURL,
			Timeout:       DefaultAPITimeout,
			TrailingSlash: true,
		},
		Session: SessionConfig{
			Store:      "memory",
			TTL:        DefaultSessionTTL,
			MaxEntries: defaultSessionLimit,
			Prefix:     "focitech:session:",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Contact: RateConfig{Limit: 5, Period: defaultRatePeriod},
			Apply:   RateConfig{Limit: 5, Period: defaultRatePeriod},
			Login:   RateConfig{Limit: 10, Period: defaultRatePeriod},
			Prefix:  "focitech:ratelimit:",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     time.Minute,
			MaxCost: 1000,
		},
		Uploads: UploadsConfig{
			MaxResumeBytes: DefaultResumeLimit,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
	}
}
