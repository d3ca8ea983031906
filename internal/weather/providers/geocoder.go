package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/weather"
)

// GeocodeFunc resolves a city to coordinates.
type GeocodeFunc func(ctx context.Context, loc weather.Location) (lat, lon float64, err error)

// Place is the result of a reverse lookup.
type Place struct {
	City    string
	Country string
}

// Geocoder wraps kelvins/geocoder. The library keeps its key in a package
// variable and builds a client without a timeout, so calls run in a
// goroutine the caller's context can abandon, and the library's transport
// is bounded with BoundDefaultTransport.
type Geocoder struct {
	apiKey string
}

// NewGeocoder sets the library key once. The process uses a single
// geocoder key.
func NewGeocoder(apiKey string) *Geocoder {
	if apiKey != "" {
		geocoder.ApiKey = apiKey
	}
	return &Geocoder{apiKey: apiKey}
}

// BoundDefaultTransport caps how long http.DefaultTransport waits for
// response headers. The geocoder library's client uses that transport.
// Call it once at startup.
func BoundDefaultTransport(timeout time.Duration) {
	if t, ok := http.DefaultTransport.(*http.Transport); ok && timeout > 0 {
		t.ResponseHeaderTimeout = timeout
	}
}

func (g *Geocoder) HasKey() bool {
	return g.apiKey != ""
}

// Lookup resolves a city to latitude and longitude.
func (g *Geocoder) Lookup(ctx context.Context, loc weather.Location) (float64, float64, error) {
	if !g.HasKey() {
		return 0, 0, errKeyNotConfigured("geocoder")
	}
	l, err := runGeocoder(ctx, func() (geocoder.Location, error) {
		return geocoder.Geocoding(geocoder.Address{City: loc.City, Country: loc.Country})
	})
	if err != nil {
		return 0, 0, err
	}
	return l.Latitude, l.Longitude, nil
}

// Reverse resolves coordinates to the nearest city and country.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	if !g.HasKey() {
		return Place{}, errKeyNotConfigured("geocoder")
	}
	addrs, err := runGeocoder(ctx, func() ([]geocoder.Address, error) {
		return geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	})
	if err != nil {
		return Place{}, err
	}
	for _, a := range addrs {
		if a.City != "" {
			return Place{City: a.City, Country: a.Country}, nil
		}
	}
	if len(addrs) > 0 {
		return Place{Country: addrs[0].Country}, nil
	}
	return Place{}, fmt.Errorf("%w: no address at %.4f,%.4f", apperr.ErrLocationNotFound, lat, lon)
}

// runGeocoder runs a blocking library call without holding any lock, so an
// abandoned call cannot stall later ones.
func runGeocoder[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		// The library indexes into empty result lists on unexpected statuses.
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("geocoder: %v", r)}
			}
		}()
		v, err := call()
		done <- result{v: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: geocoding: %v", apperr.ErrProviderUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			var zero T
			return zero, classifyGeocodeError(r.err)
		}
		return r.v, nil
	}
}

func classifyGeocodeError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ZERO_RESULTS"), common.HasAny(msg, "not found", "no result"):
		return fmt.Errorf("%w: %v", apperr.ErrLocationNotFound, err)
	case strings.Contains(msg, "REQUEST_DENIED"), common.HasAny(msg, "api key"):
		return fmt.Errorf("%w: %v", apperr.ErrInvalidAPIKey, err)
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), common.HasAny(msg, "over your quota"):
		return fmt.Errorf("%w: %v", apperr.ErrRateLimited, err)
	default:
		return fmt.Errorf("%w: geocoding: %v", apperr.ErrProviderUnavailable, err)
	}
}
