package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"staybook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	appCfg := config.AppConfig{
		Name:        "staybook-test",
		Environment: "test",
		Version:     "1.0.0",
	}

	t.Run("DefaultStderr", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{}, appCfg)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})

	t.Run("Stdout", func(t *testing.T) {
		cfg := config.LoggingConfig{Level: "debug", Output: "stdout"}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
		assert.Nil(t, closer)
	})

	t.Run("ConsoleAndAuto", func(t *testing.T) {
		for _, format := range []string{"console", "auto"} {
			cfg := config.LoggingConfig{Level: "warn", Format: format}
			logger, _, err := New(cfg, appCfg)
			require.NoError(t, err)
			assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
		}
	})

	t.Run("File", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "staybook.log")
		cfg := config.LoggingConfig{Level: "error", Output: "file", FilePath: logPath}
		logger, closer, err := New(cfg, appCfg)
		require.NoError(t, err)
		require.NotNil(t, closer)

		logger.Error().Msg("payment failed")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"app":"staybook-test"`)
		assert.Contains(t, string(data), "payment failed")
	})

	t.Run("FileMissingPath", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "file"}, appCfg)
		assert.Error(t, err)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		logger, _, err := New(config.LoggingConfig{Level: "loud"}, appCfg)
		require.NoError(t, err)
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	Component(&base, "funnel").Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"funnel"`)

	assert.NotPanics(t, func() {
		Component(nil, "x").Info().Msg("dropped")
	})
}
