package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
)

type AppConfig struct {
	OpenWeatherAPIKey  string
	WeatherAPIKey      string
	ExchangeRateAPIKey string
	GeocoderAPIKey     string

	// UseMock is the default weather mode; requests and sessions may override it.
	UseMock bool

	Port string

	// Outbound calls.
	HTTPTimeout        time.Duration
	ProviderMaxRetries int

	// Caches.
	CacheTTL           time.Duration
	RateCacheTTL       time.Duration
	CacheSweepInterval time.Duration

	// Cities pre-fetched on a schedule when live mode is the default.
	WarmCities   []string
	WarmInterval time.Duration

	BaseCurrency string

	// Optional data overrides.
	CatalogPath        string
	ScoringWeightsFile string

	LogLevel  string
	LogPretty bool
}

// Load reads an optional .env file, then the environment. Missing API keys
// are not an error; malformed values are.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.WeatherAPIKey = strings.TrimSpace(os.Getenv("WEATHERAPI_KEY"))
	cfg.ExchangeRateAPIKey = strings.TrimSpace(os.Getenv("EXCHANGERATE_API_KEY"))
	cfg.GeocoderAPIKey = strings.TrimSpace(os.Getenv("GEOCODER_API_KEY"))

	var err error
	if cfg.UseMock, err = getenvBool("USE_MOCK_DATA", true); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProviderMaxRetries, err = getenvInt("PROVIDER_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateCacheTTL, err = getenvDuration("RATE_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	cfg.WarmCities = splitList(os.Getenv("WARM_CITIES"))

	cfg.BaseCurrency = strings.ToUpper(getenvDefault("BASE_CURRENCY", "USD"))
	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	cfg.ScoringWeightsFile = os.Getenv("SCORING_WEIGHTS_FILE")

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	if cfg.LogPretty, err = getenvBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}

	if cfg.ProviderMaxRetries < 0 {
		return nil, configError("PROVIDER_MAX_RETRIES", fmt.Errorf("must be >= 0"))
	}
	if len(cfg.BaseCurrency) != 3 {
		return nil, configError("BASE_CURRENCY", fmt.Errorf("must be a 3-letter currency code"))
	}

	return cfg, nil
}

// HasLiveKeys reports whether any weather backend key is configured.
func (c *AppConfig) HasLiveKeys() bool {
	return c.OpenWeatherAPIKey != "" || c.WeatherAPIKey != "" || c.GeocoderAPIKey != ""
}

func configError(key string, err error) error {
	return &apperr.ConfigError{Source: "env", Field: key, Err: err}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, configError(key, err)
	}
	return n, nil
}

// getenvBool accepts 1/true/yes/on and 0/false/no/off; unset yields def.
func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, ok := common.ParseBool(v)
	if !ok {
		return false, configError(key, fmt.Errorf("invalid boolean %q", v))
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, configError(key, err)
	}
	if d <= 0 {
		return 0, configError(key, fmt.Errorf("must be positive"))
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
