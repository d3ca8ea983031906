package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bio-photo/internal/apperr"
)

var allKeys = []string{
	"OPENWEATHER_API_KEY", "WEATHERAPI_KEY", "EXCHANGERATE_API_KEY", "GEOCODER_API_KEY",
	"USE_MOCK_DATA", "PORT", "HTTP_TIMEOUT", "PROVIDER_MAX_RETRIES", "CACHE_TTL", "RATE_CACHE_TTL",
	"CACHE_SWEEP_INTERVAL", "WARM_CITIES", "WARM_INTERVAL", "BASE_CURRENCY", "CATALOG_PATH",
	"SCORING_WEIGHTS_FILE", "LOG_LEVEL", "LOG_PRETTY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestDefaultsWithoutKeys(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.UseMock, "unset USE_MOCK_DATA means mock")
	assert.False(t, cfg.HasLiveKeys())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.RateCacheTTL)
	assert.Equal(t, 0, cfg.ProviderMaxRetries)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Empty(t, cfg.WarmCities)
}

func TestUseMockDataSpellings(t *testing.T) {
	for v, want := range map[string]bool{
		"0": false, "false": false, "no": false, "FALSE": false,
		"1": true, "true": true, "yes": true,
	} {
		clearEnv(t)
		t.Setenv("USE_MOCK_DATA", v)
		cfg, err := FromEnv()
		require.NoError(t, err, v)
		assert.Equal(t, want, cfg.UseMock, v)
	}
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENWEATHER_API_KEY", " abc ")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WARM_CITIES", "London,GB; Miami ;;Tokyo")
	t.Setenv("BASE_CURRENCY", "eur")
	t.Setenv("LOG_PRETTY", "yes")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.OpenWeatherAPIKey)
	assert.True(t, cfg.HasLiveKeys())
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, []string{"London,GB", "Miami", "Tokyo"}, cfg.WarmCities)
	assert.Equal(t, "EUR", cfg.BaseCurrency)
	assert.True(t, cfg.LogPretty)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"HTTP_TIMEOUT":         "soon",
		"CACHE_TTL":            "-1m",
		"USE_MOCK_DATA":        "maybe",
		"PROVIDER_MAX_RETRIES": "-2",
		"BASE_CURRENCY":        "EURO",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)

			_, err := FromEnv()
			require.Error(t, err)

			var ce *apperr.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, key, ce.Field)
		})
	}
}
