package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill missing keys", func(t *testing.T) {
		// Given: a config file with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: every other field gets its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "8080", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 24*time.Hour, conf.GameTTL)
		assert.Equal(t, 30*24*time.Hour, conf.PlayerTTL)
		assert.False(t, conf.Search.Parallel)
		assert.Equal(t, 2*time.Second, conf.Search.Timeout)
	})

	t.Run("File values", func(t *testing.T) {
		path := writeConfig(t, `
http-port: "7000"
redis:
  host: redis
  port: "6380"
  db: 2
search:
  parallel: true
  node-budget: 5000
  timeout: 500ms
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "7000", conf.HTTPPort)
		assert.Equal(t, "redis:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 2, conf.Redis.DB)
		assert.True(t, conf.Search.Parallel)
		assert.Equal(t, int64(5000), conf.Search.NodeBudget)
		assert.Equal(t, 500*time.Millisecond, conf.Search.Timeout)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "http-port: \"7000\"\n")
		t.Setenv("HTTP_PORT", "7100")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "7100", conf.HTTPPort)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yml")) })
	})
}
