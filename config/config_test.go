package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Address)
	require.Equal(t, 10, cfg.Generation.MaxPicks)
	require.Equal(t, "memory", cfg.Tokens.Backend)
	require.Equal(t, 15*time.Minute, cfg.Tokens.Expiration)
	require.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	require.Equal(t, 5*time.Minute, cfg.Worker.AvailabilityInterval)
	require.Equal(t, 30*time.Second, cfg.Server.HealthInterval)
	require.Equal(t, "0.0.0.0:9091", cfg.Worker.MetricsAddress)
	require.True(t, cfg.MetricsEnabled)
}

func TestLoadConfigFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(file, []byte(`
environment: production
generation:
  max_picks: 4
tokens:
  expiration: 30s
`), 0o600)
	require.NoError(t, err)

	t.Setenv("PICKING_SERVER_ADDRESS", "127.0.0.1:9090")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, 4, cfg.Generation.MaxPicks)
	require.Equal(t, 30*time.Second, cfg.Tokens.Expiration)
	require.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
}

func TestFormatIndex(t *testing.T) {
	require.Equal(t, "picking-picklists", FormatIndex(ElasticConfig{Prefix: "picking"}, "picklists"))
	require.Equal(t, "picklists", FormatIndex(ElasticConfig{}, "picklists"))
}
