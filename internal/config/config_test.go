package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualisoftsn/workflow-api/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 48, cfg.Workflow.LateAfterHours)
	assert.Equal(t, 5, cfg.Events.Workers)
	assert.Equal(t, 3, cfg.Events.MaxRetries)
	assert.InDelta(t, 100, cfg.RateLimit.RPS, 0.001)
	assert.False(t, cfg.Tracing.Enabled)
	assert.False(t, config.IsProduction(cfg))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
env: production
server:
  port: 9090
workflow:
  late_after_hours: 72
auth:
  jwt_secret: file-secret
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, config.IsProduction(cfg))
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 72, cfg.Workflow.LateAfterHours)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)

	// untouched keys keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5, cfg.Events.Workers)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestIsProductionNil(t *testing.T) {
	assert.False(t, config.IsProduction(nil))
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: info\n"), 0644))

	cfg := config.Default()
	watcher := config.NewWatcher(cfg, path)

	reloaded := make(chan *config.Config, 1)
	watcher.OnChange(func(newCfg *config.Config) {
		select {
		case reloaded <- newCfg:
		default:
		}
	})

	require.NoError(t, watcher.Start())
	defer watcher.Stop()
	assert.Same(t, cfg, watcher.Current())

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644))

	select {
	case newCfg := <-reloaded:
		assert.Equal(t, "debug", newCfg.Log.Level)
	case <-time.After(3 * time.Second):
		t.Fatal("config change was not observed")
	}
}

func TestWatcherStartMissingFile(t *testing.T) {
	watcher := config.NewWatcher(config.Default(), "/nonexistent/config.yaml")
	assert.Error(t, watcher.Start())
}
