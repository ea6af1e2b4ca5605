package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		log := FromContext(t.Context())

		require.NotNil(t, log)
		log.Info("message from default logger")
	})

	t.Run("Should return default logger when wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")

		log := FromContext(ctx)

		require.NotNil(t, log)
	})

	t.Run("Should tolerate a nil context", func(t *testing.T) {
		//nolint:staticcheck // nil context is part of the contract
		log := FromContext(nil)
		require.NotNil(t, log)
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("unknown"), 0},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text records to the configured output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})

		log.Info("contact form submitted", "subject", "New Project Inquiry")

		assert.Contains(t, buf.String(), "contact form submitted")
		assert.Contains(t, buf.String(), "New Project Inquiry")
	})

	t.Run("Should write JSON records when enabled", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true, TimeFormat: "15:04:05"})

		log.Info("session refreshed")

		assert.Contains(t, buf.String(), `"msg":"session refreshed"`)
	})

	t.Run("Should carry fields added through With", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})

		base.With("component", "listview").Info("page rendered")

		assert.Contains(t, buf.String(), "component")
		assert.Contains(t, buf.String(), "listview")
	})
}

func TestLoggerLevels(t *testing.T) {
	t.Run("Should respect log level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf, TimeFormat: "15:04:05"})

		log.Debug("debug message")
		log.Info("info message")
		log.Warn("warn message")
		log.Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("Should drop everything at DisabledLevel", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DisabledLevel, Output: &buf, TimeFormat: "15:04:05"})

		log.Error("error message")

		assert.Empty(t, buf.String())
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should provide default and test configurations", func(t *testing.T) {
		def := DefaultConfig()
		assert.Equal(t, InfoLevel, def.Level)
		assert.Equal(t, os.Stdout, def.Output)

		tc := TestConfig()
		assert.Equal(t, DisabledLevel, tc.Level)
		assert.Equal(t, io.Discard, tc.Output)
		assert.True(t, IsTestEnvironment())
	})
}

func TestGetLoggerConfig(t *testing.T) {
	t.Run("Should read the persistent logging flags", func(t *testing.T) {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("log-level", "info", "")
		cmd.Flags().Bool("log-json", false, "")
		cmd.Flags().Bool("log-source", false, "")
		require.NoError(t, cmd.Flags().Set("log-level", "debug"))
		require.NoError(t, cmd.Flags().Set("log-json", "true"))

		level, asJSON, source, err := GetLoggerConfig(cmd)

		require.NoError(t, err)
		assert.Equal(t, "debug", level)
		assert.True(t, asJSON)
		assert.False(t, source)
	})

	t.Run("Should fail when flags are not registered", func(t *testing.T) {
		_, _, _, err := GetLoggerConfig(&cobra.Command{Use: "bare"})
		assert.ErrorContains(t, err, "log-level")
	})
}
