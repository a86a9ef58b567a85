package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://data.seattle.gov/resource", cfg.SodaBaseURL)
	assert.Empty(t, cfg.SodaAppToken)
	assert.Equal(t, 1000, cfg.SodaPageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.SodaRateLimitDelay)
	assert.Equal(t, 1000, cfg.KCGISPageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.KCGISRequestDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.KCDownloadCacheAge)
	assert.Equal(t, 5000, cfg.ForeclosureListLimit)
	assert.Equal(t, 2*time.Second, cfg.CSVExportRequestDelay)
	assert.Equal(t, "data/distressed.db", cfg.DBPath)
	assert.Equal(t, "data/downloads", cfg.DownloadsDir)
	assert.Equal(t, "scoring_config.yaml", cfg.ScoringConfig)
	assert.Equal(t, 0.0001, cfg.ProximityDegrees)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SODA_APP_TOKEN", "token-123")
	t.Setenv("SODA_PAGE_SIZE", "500")
	t.Setenv("SODA_RATE_LIMIT_DELAY", "1s")
	t.Setenv("KC_GIS_PAGE_SIZE", "2000")
	t.Setenv("KC_DOWNLOAD_CACHE_AGE", "48h")
	t.Setenv("DB_PATH", "/tmp/custom.db")
	t.Setenv("SCORING_CONFIG_PATH", "/tmp/scoring.yaml")
	t.Setenv("PROXIMITY_DEGREES", "0.0005")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token-123", cfg.SodaAppToken)
	assert.Equal(t, 500, cfg.SodaPageSize)
	assert.Equal(t, 1*time.Second, cfg.SodaRateLimitDelay)
	assert.Equal(t, 2000, cfg.KCGISPageSize)
	assert.Equal(t, 48*time.Hour, cfg.KCDownloadCacheAge)
	assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
	assert.Equal(t, "/tmp/scoring.yaml", cfg.ScoringConfig)
	assert.Equal(t, 0.0005, cfg.ProximityDegrees)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidRateLimitDelay(t *testing.T) {
	t.Setenv("SODA_RATE_LIMIT_DELAY", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SODA_RATE_LIMIT_DELAY")
}

func TestLoad_NegativeCacheAge(t *testing.T) {
	t.Setenv("KC_DOWNLOAD_CACHE_AGE", "-1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KC_DOWNLOAD_CACHE_AGE")
}

func TestLoad_InvalidSodaPageSize(t *testing.T) {
	t.Setenv("SODA_PAGE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SODA_PAGE_SIZE")
}

func TestLoad_InvalidProximityDegrees(t *testing.T) {
	t.Setenv("PROXIMITY_DEGREES", "-0.1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXIMITY_DEGREES")
}
