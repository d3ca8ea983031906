package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/store"
)

// Options configures a Service.
type Options struct {
	// UseMock is the default applied to ModeAuto requests.
	UseMock bool
	// FetchTimeout bounds a single provider attempt (0 = rely on the HTTP client timeout).
	FetchTimeout time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// Service resolves weather snapshots from the mock source or an ordered
// chain of live providers, caching live results.
type Service struct {
	cache     SnapshotCache
	providers []Provider
	useMock   bool
	timeout   time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates a new Service. Providers are tried in the given order.
func NewService(cache SnapshotCache, providers []Provider, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if cache == nil {
		cache = store.NewMemoryStore[WeatherSnapshot](10 * time.Minute)
	}
	return &Service{
		cache:     cache,
		providers: providers,
		useMock:   opts.UseMock,
		timeout:   opts.FetchTimeout,
		log:       opts.Logger.With().Str("component", "weather").Logger(),
		now:       now,
	}
}

// UseMock reports the default mock flag applied to ModeAuto.
func (s *Service) UseMock() bool {
	return s.useMock
}

// ResolveMode turns ModeAuto into the configured default.
func (s *Service) ResolveMode(m Mode) Mode {
	if m == ModeAuto || m == "" {
		return ModeFromMock(s.useMock)
	}
	return m
}

// ProviderNames lists configured live providers in fallback order.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// GetWeather returns the weather for city using the requested mode.
// Live mode never substitutes mock data on failure.
func (s *Service) GetWeather(ctx context.Context, city string, mode Mode) (WeatherSnapshot, error) {
	loc := ParseLocation(city)
	if loc.City == "" {
		return WeatherSnapshot{}, apperr.InvalidArgument("city is required")
	}

	switch s.ResolveMode(mode) {
	case ModeMock:
		return MockSnapshot(loc, s.now()), nil
	case ModeLive:
		return s.getLive(ctx, loc)
	default:
		return WeatherSnapshot{}, apperr.InvalidArgument("unknown weather mode %q", mode)
	}
}

func cacheKey(loc Location, mode Mode) string {
	return loc.Key() + ":" + string(mode)
}

func (s *Service) getLive(ctx context.Context, loc Location) (WeatherSnapshot, error) {
	key := cacheKey(loc, ModeLive)
	if snap, err := s.cache.Get(key); err == nil {
		s.log.Debug().Str("city", loc.City).Str("source", snap.Source).Msg("weather cache hit")
		return snap, nil
	}

	snap, err := s.fetchLive(ctx, loc)
	if err != nil {
		return WeatherSnapshot{}, err
	}

	// Keep timestamps non-decreasing for a key across cache generations.
	if prev, ok := s.cache.Peek(key); ok && prev.Value.Timestamp.After(snap.Timestamp) {
		snap.Timestamp = prev.Value.Timestamp
	}
	s.cache.Set(key, snap)
	return snap, nil
}

// fetchLive walks the provider chain and returns the first success.
func (s *Service) fetchLive(ctx context.Context, loc Location) (WeatherSnapshot, error) {
	if len(s.providers) == 0 {
		return WeatherSnapshot{}, fmt.Errorf("%w: no live weather backends configured", apperr.ErrProviderUnavailable)
	}

	var errs []error
	for _, p := range s.providers {
		if ctx.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), ctx.Err()))
			break
		}

		r, err := s.fetchOne(ctx, p, loc)
		if err == nil {
			snap := SnapshotFromReading(loc, r)
			s.log.Info().
				Str("city", loc.City).
				Str("provider", p.Name()).
				Float64("temperature_c", snap.TemperatureC).
				Msg("live weather fetched")
			return snap, nil
		}

		s.log.Warn().Err(err).Str("city", loc.City).Str("provider", p.Name()).Msg("provider fetch failed")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return WeatherSnapshot{}, classifyFailures(errs)
}

func (s *Service) fetchOne(ctx context.Context, p Provider, loc Location) (ProviderReading, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return p.Fetch(ctx, loc)
}

// classifyFailures reduces per-provider errors to one taxonomy error:
// LocationNotFound if any backend could not resolve the city, InvalidApiKey
// if every failure was key-related, ProviderUnavailable otherwise.
func classifyFailures(errs []error) error {
	var (
		notFound = false
		allKeys  = len(errs) > 0
		details  = make([]string, 0, len(errs))
	)
	for _, err := range errs {
		details = append(details, err.Error())
		if errors.Is(err, apperr.ErrLocationNotFound) {
			notFound = true
		}
		if !errors.Is(err, apperr.ErrInvalidAPIKey) {
			allKeys = false
		}
	}
	detail := strings.Join(details, "; ")

	switch {
	case notFound:
		return fmt.Errorf("%w: %s", apperr.ErrLocationNotFound, detail)
	case allKeys:
		return fmt.Errorf("%w: %s", apperr.ErrInvalidAPIKey, detail)
	default:
		return fmt.Errorf("%w: all live weather backends failed: %s", apperr.ErrProviderUnavailable, detail)
	}
}

// ClearCache empties the weather cache and returns how many entries were dropped.
func (s *Service) ClearCache() int {
	n := s.cache.Clear()
	s.log.Info().Int("entries", n).Msg("weather cache cleared")
	return n
}

// PurgeExpired drops cache entries past their TTL.
func (s *Service) PurgeExpired() int {
	return s.cache.PurgeExpired()
}

// CacheStats reports cache usage counters.
func (s *Service) CacheStats() store.Stats {
	return s.cache.Stats()
}

// Warm fetches live weather for each city concurrently so that later
// requests hit the cache. Failures are logged and counted, not returned.
func (s *Service) Warm(ctx context.Context, cities []string) (ok int, failed int) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, city := range cities {
		city := strings.TrimSpace(city)
		if city == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.GetWeather(ctx, city, ModeLive)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.log.Warn().Err(err).Str("city", city).Msg("cache warm failed")
				return
			}
			ok++
		}()
	}
	wg.Wait()
	return ok, failed
}
