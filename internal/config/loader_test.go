package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	assert.Equal(t, "localhost", v.GetString("server.host"))
	assert.Equal(t, 8080, v.GetInt("server.port"))
	assert.Equal(t, "30s", v.GetString("server.read_timeout"))
	assert.Equal(t, "30s", v.GetString("server.write_timeout"))
	assert.Equal(t, "120s", v.GetString("server.idle_timeout"))
	assert.Equal(t, "10s", v.GetString("server.shutdown_timeout"))

	assert.Equal(t, "info", v.GetString("logging.level"))
	assert.Equal(t, "structured", v.GetString("logging.profile"))

	assert.Equal(t, "sandbox", v.GetString("sandbox.root"))

	assert.Equal(t, "http", v.GetString("worker.kind"))
	assert.Equal(t, "120s", v.GetString("worker.timeout"))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		cfg, err := Load(ctx, "")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "structured", cfg.Logging.Profile)

		assert.Equal(t, "sandbox", cfg.Sandbox.Root)

		assert.Equal(t, "http", cfg.Worker.Kind)
		assert.Equal(t, 120*time.Second, cfg.Worker.Timeout)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "0.0.0.0",
			},
			"logging": map[string]any{
				"level": "debug",
			},
		}

		cfg, err := Load(ctx, "", overrides)
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rta.yaml")
		content := `
server:
  port: 7070
worker:
  kind: command
  command: ./worker.sh
  timeout: 45s
sandbox:
  root: /tmp/rta-box
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := Load(ctx, path)
		require.NoError(t, err)

		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "command", cfg.Worker.Kind)
		assert.Equal(t, "./worker.sh", cfg.Worker.Command)
		assert.Equal(t, 45*time.Second, cfg.Worker.Timeout)
		assert.Equal(t, "/tmp/rta-box", cfg.Sandbox.Root)
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("InvalidWorkerKind", func(t *testing.T) {
		_, err := Load(ctx, "", map[string]any{
			"worker": map[string]any{"kind": "carrier-pigeon"},
		})
		assert.Error(t, err)
	})

	t.Run("HTTPWorkerNeedsEndpoint", func(t *testing.T) {
		_, err := Load(ctx, "", map[string]any{
			"worker": map[string]any{"kind": "http", "endpoint": ""},
		})
		assert.Error(t, err)
	})
}
