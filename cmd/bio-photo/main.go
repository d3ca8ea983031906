package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/bio-photo/internal/advisor"
	httpapi "github.com/i474232898/bio-photo/internal/api/http"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/config"
	"github.com/i474232898/bio-photo/internal/currency"
	"github.com/i474232898/bio-photo/internal/energy"
	"github.com/i474232898/bio-photo/internal/scheduler"
	"github.com/i474232898/bio-photo/internal/scoring"
	"github.com/i474232898/bio-photo/internal/store"
	"github.com/i474232898/bio-photo/internal/weather"
	"github.com/i474232898/bio-photo/internal/weather/providers"
	"github.com/i474232898/bio-photo/pkg/logger"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	if !cfg.UseMock && !cfg.HasLiveKeys() {
		log.Warn().Msg("live mode is the default but no weather API keys are configured; live requests will fail")
	}

	// Static data is validated once; a bad catalog is fatal.
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fruit catalog")
	}

	weights := scoring.DefaultWeights()
	if cfg.ScoringWeightsFile != "" {
		if weights, err = scoring.LoadWeightsFromFile(cfg.ScoringWeightsFile); err != nil {
			log.Fatal().Err(err).Msg("failed to load scoring weights")
		}
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	// The geocoder library uses http.DefaultTransport with no client timeout.
	providers.BoundDefaultTransport(cfg.HTTPTimeout)
	httpCfg := providers.DefaultHTTPConfig(httpClient)
	httpCfg.Backoff.MaxRetries = cfg.ProviderMaxRetries

	// Providers with resilience (backoff + circuit breaker), in fallback order.
	// Backends without a key stay in the chain and report InvalidApiKey.
	provs := []weather.Provider{
		providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey),
		providers.NewWeatherAPIProvider(httpCfg, cfg.WeatherAPIKey),
		providers.NewOpenMeteoProvider(httpCfg, cfg.GeocoderAPIKey),
	}

	weatherCache := store.NewMemoryStore[weather.WeatherSnapshot](cfg.CacheTTL)
	service := weather.NewService(weatherCache, provs, weather.Options{
		UseMock:      cfg.UseMock,
		FetchTimeout: cfg.HTTPTimeout,
		Logger:       log,
	})

	rateProvider := providers.NewExchangeRateProvider(httpCfg, cfg.ExchangeRateAPIKey)
	rateCache := store.NewMemoryStore[providers.Rate](cfg.RateCacheTTL)
	converter := currency.NewConverter(rateProvider, rateCache, log)

	adv := advisor.New(advisor.Config{
		Weather:      service,
		Catalog:      cat,
		Engine:       scoring.NewEngine(weights, log),
		Estimator:    energy.NewEstimator(cat, energy.DefaultParams(), log),
		Converter:    converter,
		BaseCurrency: cfg.BaseCurrency,
		Logger:       log,
	})

	// Scheduler that sweeps expired cache entries and warms live weather.
	var warmCities []string
	if !cfg.UseMock {
		warmCities = cfg.WarmCities
	}
	sched := scheduler.New(scheduler.Config{
		SweepInterval: cfg.CacheSweepInterval,
		WarmInterval:  cfg.WarmInterval,
		WarmCities:    warmCities,
	}, cacheSweeper{service, converter}, service, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Advisor:  adv,
		Weather:  service,
		Rates:    converter,
		RateKey:  rateProvider,
		Geocoder: providers.NewGeocoder(cfg.GeocoderAPIKey),
		Logger:   log,
	})

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Bool("use_mock", cfg.UseMock).
			Strs("providers", service.ProviderNames()).
			Msg("http server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.LoadDefault()
	}
	return catalog.LoadFile(path)
}

// cacheSweeper purges both the weather and the exchange-rate caches.
// The converter keeps its last known rates through a sweep.
type cacheSweeper struct {
	weather *weather.Service
	rates   *currency.Converter
}

func (s cacheSweeper) PurgeExpired() int {
	return s.weather.PurgeExpired() + s.rates.PurgeExpired()
}

var _ scheduler.Sweeper = cacheSweeper{}
