package currency

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/store"
	"github.com/i474232898/bio-photo/internal/weather/providers"
)

// RateSource quotes a currency pair.
type RateSource interface {
	Rate(ctx context.Context, from, to string) (providers.Rate, error)
}

// Conversion is the result of converting one amount.
type Conversion struct {
	Original  float64   `json:"original"`
	Amount    float64   `json:"amount"`
	Rate      float64   `json:"rate"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Stale     bool      `json:"stale"`
	FetchedAt time.Time `json:"fetched_at"`
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Converter converts amounts using cached pair rates. When the source fails
// it serves the last known rate, flagged stale.
type Converter struct {
	source RateSource
	cache  *store.MemoryStore[providers.Rate]
	// lastKnown never expires and is not swept, so a stale rate outlives
	// the cache TTL until ClearCache.
	lastKnown *store.MemoryStore[providers.Rate]
	log       zerolog.Logger
	now       func() time.Time
}

// NewConverter creates a Converter. source may be nil, in which case only
// same-currency and already-cached conversions succeed.
func NewConverter(source RateSource, cache *store.MemoryStore[providers.Rate], log zerolog.Logger) *Converter {
	if cache == nil {
		cache = store.NewMemoryStore[providers.Rate](time.Hour)
	}
	return &Converter{
		source:    source,
		cache:     cache,
		lastKnown: store.NewMemoryStore[providers.Rate](0),
		log:       log.With().Str("component", "currency").Logger(),
		now:       time.Now,
	}
}

// NormalizeCode upper-cases and validates an ISO 4217 code.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyCode.MatchString(c) {
		return "", apperr.InvalidArgument("invalid currency code %q", code)
	}
	return c, nil
}

// Convert converts amount from one currency to another.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (Conversion, error) {
	rate, stale, err := c.Rate(ctx, from, to)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		Original:  amount,
		Amount:    common.Round(amount*rate.Value, 2),
		Rate:      rate.Value,
		From:      rate.From,
		To:        rate.To,
		Stale:     stale,
		FetchedAt: rate.FetchedAt,
	}, nil
}

// Rate returns the from→to rate and whether it came from an expired cache entry.
func (c *Converter) Rate(ctx context.Context, from, to string) (providers.Rate, bool, error) {
	from, err := NormalizeCode(from)
	if err != nil {
		return providers.Rate{}, false, err
	}
	to, err = NormalizeCode(to)
	if err != nil {
		return providers.Rate{}, false, err
	}

	if from == to {
		return providers.Rate{From: from, To: to, Value: 1, FetchedAt: c.now().UTC()}, false, nil
	}

	key := from + ":" + to
	if r, err := c.cache.Get(key); err == nil {
		return r, false, nil
	}

	fetchErr := errors.New("no exchange-rate source configured")
	if c.source != nil {
		r, err := c.source.Rate(ctx, from, to)
		if err == nil {
			c.cache.Set(key, r)
			c.lastKnown.Set(key, r)
			c.log.Debug().Str("pair", key).Float64("rate", r.Value).Msg("exchange rate fetched")
			return r, false, nil
		}
		if errors.Is(err, apperr.ErrInvalidArgument) {
			return providers.Rate{}, false, err
		}
		fetchErr = err
	}

	if prev, ok := c.lastKnown.Peek(key); ok {
		c.log.Warn().Err(fetchErr).Str("pair", key).Time("stored_at", prev.StoredAt).Msg("serving stale exchange rate")
		return prev.Value, true, nil
	}

	return providers.Rate{}, false, fmt.Errorf("%w: exchange rate %s: %v", apperr.ErrProviderUnavailable, key, fetchErr)
}

// ClearCache drops every cached rate, including the last known ones.
func (c *Converter) ClearCache() int {
	c.lastKnown.Clear()
	return c.cache.Clear()
}

// PurgeExpired drops rates past their TTL. Last known rates are kept for
// the stale fallback.
func (c *Converter) PurgeExpired() int {
	return c.cache.PurgeExpired()
}

// CacheStats reports rate cache usage.
func (c *Converter) CacheStats() store.Stats {
	return c.cache.Stats()
}
