// Package cache keeps short-lived copies of public backend listings.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/focitech/focitech/pkg/config"
	"github.com/focitech/focitech/pkg/logger"
)

// Cache stores values per scope. Invalidate drops every key of a scope at
// once by bumping its generation.
type Cache struct {
	store *ristretto.Cache[string, any]
	ttl   time.Duration

	mu   sync.Mutex
	gens map[string]uint64

	peers *peers
}

// New returns nil when caching is disabled; a nil *Cache is valid and
// always calls through.
func New(cfg *config.CacheConfig) (*Cache, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	maxCost := max(cfg.MaxCost, 1)
	store, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
		// MaxCost counts entries; every entry is stored with cost 1.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	return &Cache{store: store, ttl: cfg.TTL, gens: make(map[string]uint64)}, nil
}

func (c *Cache) key(scope, key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%s#%d|%s", scope, c.gens[scope], key)
}

// Invalidate forgets everything cached under the given scopes, here and on
// every instance joined through Share.
func (c *Cache) Invalidate(scopes ...string) {
	if c == nil {
		return
	}
	c.bump(scopes...)
	c.peers.announce(scopes)
}

func (c *Cache) bump(scopes ...string) {
	c.mu.Lock()
	for _, s := range scopes {
		c.gens[s]++
	}
	c.mu.Unlock()
}

// Close releases the cache goroutines.
func (c *Cache) Close() {
	if c != nil {
		c.peers.close()
		c.store.Close()
	}
}

// Ratio is the hit ratio since start, or 0 when metrics are unavailable.
func (c *Cache) Ratio() float64 {
	if c == nil || c.store.Metrics == nil {
		return 0
	}
	return c.store.Metrics.Ratio()
}

// Remember returns the cached value for scope/key or stores the result of
// load. Errors are never cached.
func Remember[T any](ctx context.Context, c *Cache, scope, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	k := c.key(scope, key)
	if v, ok := c.store.Get(k); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if !c.store.SetWithTTL(k, v, 1, c.ttl) {
		logger.FromContext(ctx).Debug("Page cache dropped entry", "scope", scope, "key", key)
	}
	c.store.Wait()
	return v, nil
}
