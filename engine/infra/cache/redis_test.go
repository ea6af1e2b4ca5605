package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/focitech/focitech/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	t.Run("Should connect and ping", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedis(context.Background(), &config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})

		require.NoError(t, err)
		defer client.Close()
		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		assert.True(t, mr.Exists("k"))
	})

	t.Run("Should require a url", func(t *testing.T) {
		_, err := NewRedis(context.Background(), &config.RedisConfig{})
		assert.ErrorIs(t, err, ErrRedisNotConfigured)
	})

	t.Run("Should fail when the server is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedis(context.Background(), &config.RedisConfig{URL: "redis://" + addr})

		assert.ErrorContains(t, err, "pinging redis")
	})
}
