package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/focitech/focitech/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	blocked map[string]int
}

func (r *countingRecorder) RateLimited(route string) {
	r.blocked[route]++
}

func buildRouterForTest(t *testing.T, cfg *Config, client *redis.Client, rec Recorder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m, err := NewManager(cfg, client, rec)
	require.NoError(t, err)
	r.POST("/contact", m.Middleware(RouteContact), func(c *gin.Context) { c.String(200, "ok") })
	r.POST("/login", m.Middleware(RouteLogin), func(c *gin.Context) { c.String(200, "ok") })
	return r
}

func doReq(r *gin.Engine, path, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
	if ip != "" {
		req.Header.Set("X-Real-IP", ip)
	}
	r.ServeHTTP(w, req)
	return w
}

func testConfig(limit int64, period time.Duration) *Config {
	return &Config{
		Enabled: true,
		Rates: map[string]RateConfig{
			RouteContact: {Limit: limit, Period: period},
			RouteLogin:   {Limit: 100, Period: time.Minute},
		},
		Prefix:   "test:ratelimit:",
		MaxRetry: 1,
	}
}

func TestInMemoryRateLimit(t *testing.T) {
	t.Run("Should block the second request from the same client", func(t *testing.T) {
		rec := &countingRecorder{blocked: map[string]int{}}
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil, rec)

		require.Equal(t, 200, doReq(r, "/contact", "1.2.3.4").Code)
		res := doReq(r, "/contact", "1.2.3.4")

		require.Equal(t, http.StatusTooManyRequests, res.Code)
		assert.Contains(t, res.Body.String(), LimitReachedMessage)
		assert.Equal(t, 1, rec.blocked[RouteContact])
		assert.Equal(t, 200, doReq(r, "/contact", "5.6.7.8").Code)
	})

	t.Run("Should keep routes independent", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, time.Minute), nil, NoopRecorder)

		require.Equal(t, 200, doReq(r, "/contact", "1.1.1.1").Code)

		assert.Equal(t, 200, doReq(r, "/login", "1.1.1.1").Code)
	})

	t.Run("Should refill after the period", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(1, 100*time.Millisecond), nil, NoopRecorder)

		require.Equal(t, 200, doReq(r, "/contact", "5.6.7.8").Code)
		require.Equal(t, 429, doReq(r, "/contact", "5.6.7.8").Code)
		time.Sleep(120 * time.Millisecond)

		assert.Equal(t, 200, doReq(r, "/contact", "5.6.7.8").Code)
	})

	t.Run("Should set rate limit headers", func(t *testing.T) {
		r := buildRouterForTest(t, testConfig(2, time.Minute), nil, NoopRecorder)

		res := doReq(r, "/contact", "9.9.9.9")

		require.Equal(t, 200, res.Code)
		assert.Equal(t, "2", res.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", res.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("Should pass through when disabled", func(t *testing.T) {
		cfg := testConfig(1, time.Minute)
		cfg.Enabled = false
		r := buildRouterForTest(t, cfg, nil, NoopRecorder)

		for range 3 {
			assert.Equal(t, 200, doReq(r, "/contact", "2.2.2.2").Code)
		}
	})
}

func TestRedisRateLimit(t *testing.T) {
	t.Run("Should share counters through redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		r := buildRouterForTest(t, testConfig(1, time.Minute), client, NoopRecorder)

		require.Equal(t, 200, doReq(r, "/contact", "3.3.3.3").Code)
		assert.Equal(t, 429, doReq(r, "/contact", "3.3.3.3").Code)
		assert.NotEmpty(t, mr.Keys())
	})
}

func TestFromAppConfig(t *testing.T) {
	t.Run("Should override configured rates only", func(t *testing.T) {
		cfg := FromAppConfig(&config.RateLimitConfig{
			Enabled: true,
			Contact: config.RateConfig{Limit: 2, Period: time.Hour},
		})

		assert.Equal(t, RateConfig{Limit: 2, Period: time.Hour}, cfg.Rates[RouteContact])
		assert.Equal(t, DefaultConfig().Rates[RouteLogin], cfg.Rates[RouteLogin])
		assert.Equal(t, "focitech:ratelimit:", cfg.Prefix)
	})

	t.Run("Should reject a limit without a period", func(t *testing.T) {
		_, err := NewManager(&Config{Rates: map[string]RateConfig{"x": {Limit: 1}}}, nil, NoopRecorder)
		assert.Error(t, err)
	})
}
