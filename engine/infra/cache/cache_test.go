package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/focitech/focitech/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(calls *int, value []string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		*calls++
		return value, nil
	}
}

func TestNew(t *testing.T) {
	t.Run("Should return a pass-through cache when disabled", func(t *testing.T) {
		c, err := New(&config.CacheConfig{Enabled: false})
		require.NoError(t, err)
		assert.Nil(t, c)

		calls := 0
		for range 2 {
			_, err := Remember(context.Background(), c, "projects", "all", counter(&calls, []string{"a"}))
			require.NoError(t, err)
		}
		assert.Equal(t, 2, calls)
		c.Invalidate("projects")
		c.Close()
	})
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	newCache := func(t *testing.T) *Cache {
		c, err := New(&config.CacheConfig{Enabled: true, TTL: time.Minute, MaxCost: 100})
		require.NoError(t, err)
		t.Cleanup(c.Close)
		return c
	}

	t.Run("Should load once per key", func(t *testing.T) {
		c := newCache(t)
		calls := 0

		first, err := Remember(ctx, c, "projects", "tech=React", counter(&calls, []string{"crm"}))
		require.NoError(t, err)
		second, err := Remember(ctx, c, "projects", "tech=React", counter(&calls, []string{"other"}))
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
		assert.Equal(t, first, second)
	})

	t.Run("Should drop a whole scope on invalidate", func(t *testing.T) {
		c := newCache(t)
		calls := 0
		_, _ = Remember(ctx, c, "team", "all", counter(&calls, []string{"ada"}))
		_, _ = Remember(ctx, c, "projects", "all", counter(&calls, []string{"crm"}))

		c.Invalidate("team")
		_, _ = Remember(ctx, c, "team", "all", counter(&calls, []string{"ada"}))
		_, _ = Remember(ctx, c, "projects", "all", counter(&calls, []string{"crm"}))

		assert.Equal(t, 3, calls)
	})

	t.Run("Should count max cost in entries", func(t *testing.T) {
		c := newCache(t)
		calls := 0
		for range 2 {
			for i := range 10 {
				_, err := Remember(ctx, c, "projects", fmt.Sprintf("page=%d", i), counter(&calls, []string{"crm"}))
				require.NoError(t, err)
			}
		}

		assert.Equal(t, 10, calls)
	})

	t.Run("Should not cache errors", func(t *testing.T) {
		c := newCache(t)
		calls := 0
		failing := func(context.Context) (int, error) {
			calls++
			return 0, errors.New("backend down")
		}

		_, err := Remember(ctx, c, "openings", "all", failing)
		assert.Error(t, err)
		_, err = Remember(ctx, c, "openings", "all", failing)
		assert.Error(t, err)

		assert.Equal(t, 2, calls)
	})
}
