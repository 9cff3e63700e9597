package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 12, cfg.Discovery.PageSize)
	assert.Equal(t, 5, cfg.Discovery.FirstLoadScan)
	assert.Equal(t, 3, cfg.Discovery.ScrollScan)
	assert.Equal(t, 8*time.Second, cfg.Discovery.FetchTimeout)
	assert.Equal(t, 180*24*time.Hour, cfg.Discovery.BookingLookback)
	assert.Equal(t, "Europe/Athens", cfg.Discovery.TimeZone)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("STORE_BACKEND", "MONGO")
	t.Setenv("DISCOVERY_PAGE_SIZE", "20")
	t.Setenv("DISCOVERY_FETCH_TIMEOUT", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, 20, cfg.Discovery.PageSize)
	assert.Equal(t, 8*time.Second, cfg.Discovery.FetchTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
