package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWithEnv(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	viper.Reset()
	for key, value := range env {
		t.Setenv(key, value)
	}
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"TDSHUB_DATABASE__HOST": "localhost",
	})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.False(t, cfg.Server.EnableMock)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Ingest.SessionSize)
	assert.Equal(t, 10, cfg.Ingest.RollingWindow)
	assert.Equal(t, 30*time.Second, cfg.Ingest.OfflineAfter)
	assert.Equal(t, 20*time.Second, cfg.Enrichment.Timeout)
	assert.Empty(t, cfg.Redis.Host)
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := loadWithEnv(t, map[string]string{
		"TDSHUB_DATABASE__HOST":       "db.internal",
		"TDSHUB_INGEST__SESSION_SIZE": "25",
		"TDSHUB_INGEST__API_KEY":      "super-secret",
		"TDSHUB_SERVER__PORT":         "9000",
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Ingest.SessionSize)
	assert.Equal(t, "super-secret", cfg.Ingest.APIKey)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_RequiresDatabaseHost(t *testing.T) {
	_, err := loadWithEnv(t, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database host")
}

func TestLoad_RejectsNonPositiveSessionSize(t *testing.T) {
	_, err := loadWithEnv(t, map[string]string{
		"TDSHUB_DATABASE__HOST":       "localhost",
		"TDSHUB_INGEST__SESSION_SIZE": "0",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_size")
}
