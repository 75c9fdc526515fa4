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

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "development", cfg.Env)

	assert.Equal(t, 15, cfg.Features.LongWindow)
	assert.Equal(t, 5, cfg.Features.ShortWindow)
	assert.Equal(t, 10, cfg.Features.MinHistory)
	assert.Equal(t, 10.0, cfg.Features.GoodGameCutoff)
	assert.Equal(t, 0.0, cfg.Features.ColdStartBlend)

	assert.Equal(t, 0.8, cfg.Dataset.TrainFraction)
	assert.Equal(t, 5, cfg.Dataset.CVFolds)
	assert.Equal(t, 1, cfg.Dataset.CVGap)
	assert.Equal(t, 20, cfg.Dataset.EligibilityThreshold)
	assert.Equal(t, "OF", cfg.Dataset.DefaultPosition)

	assert.Equal(t, "https://statsapi.mlb.com", cfg.StatsAPI.BaseURL,
		"base URL carries no path, the client owns the /api/v1 prefix")

	assert.Equal(t, 6*time.Hour, cfg.Ingest.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.Ingest.RateLimitInterval)
	assert.Equal(t, 3, cfg.Ingest.RetryMaxAttempts)
	assert.False(t, cfg.Serving.AllEligible)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LONG_WINDOW", "20")
	t.Setenv("SHORT_WINDOW", "7")
	t.Setenv("TRAIN_FRACTION", "0.75")
	t.Setenv("SERVE_ALL_ELIGIBLE", "true")
	t.Setenv("RATE_LIMIT_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Features.LongWindow)
	assert.Equal(t, 7, cfg.Features.ShortWindow)
	assert.Equal(t, 0.75, cfg.Dataset.TrainFraction)
	assert.True(t, cfg.Serving.AllEligible)
	assert.Equal(t, 500*time.Millisecond, cfg.Ingest.RateLimitInterval)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "short window above long", key: "SHORT_WINDOW", value: "30"},
		{name: "zero min history", key: "MIN_HISTORY", value: "0"},
		{name: "train fraction of one", key: "TRAIN_FRACTION", value: "1.0"},
		{name: "negative cv gap", key: "CV_GAP", value: "-1"},
		{name: "blend above one", key: "COLDSTART_BLEND", value: "1.5"},
		{name: "zero retry attempts", key: "RETRY_MAX_ATTEMPTS", value: "0"},
		{name: "bad environment", key: "ENV", value: "qa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadNumberFallsBackToDefault(t *testing.T) {
	t.Setenv("LONG_WINDOW", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Features.LongWindow)
}
