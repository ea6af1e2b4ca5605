package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	data       map[string]any
	sourceType SourceType
}

func (m *mockSource) Load() (map[string]any, error) { return m.data, nil }
func (m *mockSource) Type() SourceType             { return m.sourceType }

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		cfg, err := NewService().Load(t.Context())

		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
		assert.Equal(t, 10*time.Second, cfg.API.Timeout)
		assert.True(t, cfg.API.TrailingSlash)
		assert.Equal(t, "memory", cfg.Session.Store)
		assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxResumeBytes)
	})

	t.Run("Should apply sources in precedence order", func(t *testing.T) {
		yamlSource := &mockSource{
			data: map[string]any{
				"server": map[string]any{"host": "yaml.example.com", "port": 9001},
			},
			sourceType: SourceYAML,
		}
		cliSource := &mockSource{
			data:       map[string]any{"server": map[string]any{"host": "cli.example.com"}},
			sourceType: SourceCLI,
		}

		svc := NewService()
		cfg, err := svc.Load(t.Context(), yamlSource, cliSource)

		require.NoError(t, err)
		assert.Equal(t, "cli.example.com", cfg.Server.Host)
		assert.Equal(t, 9001, cfg.Server.Port)
		assert.Equal(t, SourceCLI, svc.GetSource("server.host"))
		assert.Equal(t, SourceYAML, svc.GetSource("server.port"))
		assert.Equal(t, SourceDefault, svc.GetSource("api.base_url"))
	})

	t.Run("Should reject an out of range port", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"server": map[string]any{"port": 99999}},
			sourceType: SourceYAML,
		}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("Should require a redis url for the redis session store", func(t *testing.T) {
		source := &mockSource{
			data:       map[string]any{"session": map[string]any{"store": "redis"}},
			sourceType: SourceYAML,
		}

		_, err := NewService().Load(t.Context(), source)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.url")
	})
}

func TestLoader_Environment(t *testing.T) {
	t.Run("Should map tagged environment variables onto config paths", func(t *testing.T) {
		t.Setenv("API_BASE_URL", "http://localhost:8000/api/v1")
		t.Setenv("API_TIMEOUT", "3s")
		t.Setenv("SUPABASE_ANON_KEY", "anon-key")
		t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

		svc := NewService()
		cfg, err := svc.Load(t.Context(), NewDefaultProvider(), NewEnvProvider())

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
		assert.Equal(t, 3*time.Second, cfg.API.Timeout)
		assert.Equal(t, "anon-key", cfg.Identity.AnonKey.Value())
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORS.AllowedOrigins)
		assert.Equal(t, SourceEnv, svc.GetSource("api.base_url"))
	})

	t.Run("Should accept VITE_API_URL as an alias for the backend url", func(t *testing.T) {
		t.Setenv("VITE_API_URL", "http://legacy.test/api/v1")

		cfg, err := NewService().Load(t.Context())

		require.NoError(t, err)
		assert.Equal(t, "http://legacy.test/api/v1", cfg.API.BaseURL)
	})

	t.Run("Should prefer API_BASE_URL over the alias", func(t *testing.T) {
		t.Setenv("VITE_API_URL", "http://legacy.test/api/v1")
		t.Setenv("API_BASE_URL", "http://canonical.test/api/v1")

		cfg, err := NewService().Load(t.Context())

		require.NoError(t, err)
		assert.Equal(t, "http://canonical.test/api/v1", cfg.API.BaseURL)
	})

	t.Run("Should let CLI flags override environment", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7000")

		cfg, err := NewService().Load(t.Context(), NewCLIProvider(map[string]any{"port": 7100}))

		require.NoError(t, err)
		assert.Equal(t, 7100, cfg.Server.Port)
	})
}

func TestYAMLProvider(t *testing.T) {
	t.Run("Should read nested YAML values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "focitech.yaml")
		content := "server:\n  port: 9100\napi:\n  timeout: 4s\nsession:\n  ttl:\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := NewService().Load(t.Context(), NewYAMLProvider(path))

		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, 4*time.Second, cfg.API.Timeout)
		assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	})

	t.Run("Should treat a missing file as empty", func(t *testing.T) {
		data, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).Load()

		require.NoError(t, err)
		assert.Empty(t, data)
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("Should populate the environment from a dotenv file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("FOCITECH_TEST_VALUE=loaded\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("FOCITECH_TEST_VALUE") })

		require.NoError(t, LoadEnvFile(path))

		assert.Equal(t, "loaded", os.Getenv("FOCITECH_TEST_VALUE"))
	})

	t.Run("Should ignore a missing dotenv file", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})
}

func TestEnvMappings(t *testing.T) {
	t.Run("Should expose tag-derived mappings", func(t *testing.T) {
		mappings := GenerateEnvToConfigMap()

		assert.Equal(t, "api.base_url", mappings["API_BASE_URL"])
		assert.Equal(t, "identity.anon_key", mappings["SUPABASE_ANON_KEY"])
		assert.Equal(t, "server.cors.allowed_origins", mappings["SERVER_CORS_ALLOWED_ORIGINS"])
	})

	t.Run("Should flag secrets as sensitive", func(t *testing.T) {
		assert.True(t, IsSensitiveConfigPath("identity.jwt_secret"))
		assert.True(t, IsSensitiveConfigPath("database.conn_string"))
		assert.False(t, IsSensitiveConfigPath("api.base_url"))
	})
}
