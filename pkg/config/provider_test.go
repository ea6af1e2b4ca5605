package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	t.Run("Should return empty map as loading is handled by koanf", func(t *testing.T) {
		provider := NewEnvProvider()
		data, err := provider.Load()
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Empty(t, data)
		assert.Equal(t, SourceEnv, provider.Type())
	})
}

func TestCLIProvider_Load(t *testing.T) {
	t.Run("Should map CLI flags to configuration structure", func(t *testing.T) {
		// Arrange
		flags := map[string]any{
			"host":          "cli.example.com",
			"port":          6001,
			"api-url":       "https://api.example.com/api/v1",
			"session-store": "redis",
			"unknown-flag":  "ignored",
		}
		provider := NewCLIProvider(flags)

		// Act
		data, err := provider.Load()

		// Assert
		require.NoError(t, err)
		server, ok := data["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "cli.example.com", server["host"])
		assert.Equal(t, 6001, server["port"])

		api, ok := data["api"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "https://api.example.com/api/v1", api["base_url"])

		session, ok := data["session"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "redis", session["store"])
		assert.NotContains(t, data, "unknown-flag")
	})

	t.Run("Should handle nil flags gracefully", func(t *testing.T) {
		provider := NewCLIProvider(nil)
		data, err := provider.Load()
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Empty(t, data)
		assert.Equal(t, SourceCLI, provider.Type())
	})
}

func TestSetNested(t *testing.T) {
	t.Run("Should set value in nested map structure", func(t *testing.T) {
		m := make(map[string]any)

		require.NoError(t, setNested(m, "server.host", "test.example.com"))
		require.NoError(t, setNested(m, "server.port", 5001))
		require.NoError(t, setNested(m, "ratelimit.contact.limit", 3))

		server, ok := m["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "test.example.com", server["host"])
		assert.Equal(t, 5001, server["port"])

		rl, ok := m["ratelimit"].(map[string]any)
		require.True(t, ok)
		contact, ok := rl["contact"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 3, contact["limit"])
	})

	t.Run("Should return error on structure conflicts", func(t *testing.T) {
		m := map[string]any{"server": "not-a-map"}

		err := setNested(m, "server.host", "should-not-be-set")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration conflict: key \"server\" is not a map")
		assert.Equal(t, "not-a-map", m["server"])
	})

	t.Run("Should handle empty path", func(t *testing.T) {
		m := make(map[string]any)
		assert.NoError(t, setNested(m, "", "value"))
		assert.Empty(t, m)
	})
}

func TestYAMLProvider_Load(t *testing.T) {
	t.Run("Should load configuration from YAML file", func(t *testing.T) {
		yamlPath := filepath.Join(t.TempDir(), "focitech.yaml")
		yamlContent := `
server:
  host: yaml.example.com
  port: 9090
  cors_enabled: true
session:
  store:
identity:
  url: https://demo.supabase.co
`
		require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0o644))

		provider := NewYAMLProvider(yamlPath)
		data, err := provider.Load()

		require.NoError(t, err)
		server, ok := data["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "yaml.example.com", server["host"])
		assert.Equal(t, 9090, server["port"])
		assert.Equal(t, true, server["cors_enabled"])

		session, ok := data["session"].(map[string]any)
		require.True(t, ok)
		assert.NotContains(t, session, "store")
		assert.Equal(t, SourceYAML, provider.Type())
	})

	t.Run("Should return empty config for non-existent file", func(t *testing.T) {
		data, err := NewYAMLProvider("/non/existent/path.yaml").Load()
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Empty(t, data)
	})

	t.Run("Should return error for invalid YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("invalid: yaml: content: ["), 0o644))

		data, err := NewYAMLProvider(path).Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse YAML config")
		assert.Nil(t, data)
	})
}

func TestDefaultProvider(t *testing.T) {
	t.Run("Should expose defaults as a nested map", func(t *testing.T) {
		provider := NewDefaultProvider()
		data, err := provider.Load()

		require.NoError(t, err)
		server, ok := data["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "0.0.0.0", server["host"])
		assert.Equal(t, 8080, server["port"])

		api, ok := data["api"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, DefaultAPIBaseURL, api["base_url"])
		assert.Equal(t, SourceDefault, provider.Type())
	})
}
