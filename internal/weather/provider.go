package weather

import (
	"context"
	"time"

	"github.com/i474232898/bio-photo/internal/store"
)

// ProviderReading represents a single provider's raw-but-typed reading
// that is normalized into a WeatherSnapshot.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	ResolvedCity string
	Country      string
	Lat          *float64

	TemperatureC  float64
	HumidityPct   float64
	CloudCoverPct float64
	UVIndex       *float64 // nil when the backend does not report UV
	Condition     Condition
}

// Provider abstracts a live weather backend (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// KeyProber is implemented by backends that need an API key.
type KeyProber interface {
	Name() string
	HasKey() bool
	FormatOK() bool
	// ProbeKey issues a lightweight live request to check the key is accepted.
	ProbeKey(ctx context.Context) error
}

// SnapshotCache is the contract the TTL cache must satisfy.
type SnapshotCache interface {
	Get(key string) (WeatherSnapshot, error)
	Peek(key string) (store.Entry[WeatherSnapshot], bool)
	Set(key string, snapshot WeatherSnapshot) store.Entry[WeatherSnapshot]
	Clear() int
	PurgeExpired() int
	Stats() store.Stats
}
