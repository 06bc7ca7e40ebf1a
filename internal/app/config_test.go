package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, int32(10), cfg.PGMaxConns)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 10*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, 30, cfg.InvoiceDueDays)
	assert.Equal(t, "@daily", cfg.OverdueSweepCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("INVOICE_DUE_DAYS", "14")
	t.Setenv("SUMMARY_CACHE_TTL", "90s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 14, cfg.InvoiceDueDays)
	assert.Equal(t, 90*time.Second, cfg.SummaryCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"negative due days": {"INVOICE_DUE_DAYS": "-1"},
		"zero rate limit":   {"RATE_LIMIT_PER_MINUTE": "0"},
		"malformed ttl":     {"IDEMPOTENCY_TTL": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestTestModeFlag(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	assert.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	assert.False(t, InTestMode())
}
