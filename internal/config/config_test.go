package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/platform.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, 10, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, "United Kingdom", cfg.Provider.Country)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "0 3 * * *", cfg.Sync.Schedule)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	yaml := `
database:
  type: postgres
  postgres:
    host: db.internal
    port: 5432
provider:
  api_key: secret-key
  timeout_seconds: 5
  rate_limit:
    enabled: true
    per_minute: 30
sync:
  enabled: true
  postcodes:
    - SW1A
    - OX1
`
	path := filepath.Join(t.TempDir(), "platform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "secret-key", cfg.Provider.APIKey)
	assert.Equal(t, 5, cfg.Provider.TimeoutSeconds)
	assert.True(t, cfg.Provider.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.Provider.RateLimit.PerMinute)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, []string{"SW1A", "OX1"}, cfg.Sync.Postcodes)

	// Unspecified sections keep their defaults.
	assert.Equal(t, "United Kingdom", cfg.Provider.Country)
	assert.Equal(t, "0 3 * * *", cfg.Sync.Schedule)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestProviderGetTimeout(t *testing.T) {
	p := Provider{TimeoutSeconds: 5}
	assert.Equal(t, 5*time.Second, p.GetTimeout())

	p = Provider{}
	assert.Equal(t, 10*time.Second, p.GetTimeout())

	p = Provider{TimeoutSeconds: -1}
	assert.Equal(t, 10*time.Second, p.GetTimeout())
}

func TestProviderHasCredential(t *testing.T) {
	assert.False(t, (&Provider{}).HasCredential())
	assert.True(t, (&Provider{APIKey: "k"}).HasCredential())
}
