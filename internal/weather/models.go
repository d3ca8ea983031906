package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Snapshot sources.
const (
	SourceMock           = "mock"
	SourceOpenWeatherMap = "openweathermap"
	SourceWeatherAPI     = "weatherapi"
	SourceOpenMeteo      = "openmeteo"
)

// Mode selects where weather data comes from.
type Mode string

const (
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
	// ModeAuto defers to the service's configured default.
	ModeAuto Mode = "auto"
)

// ModeFromMock maps an explicit mock flag to a Mode.
func ModeFromMock(mock bool) Mode {
	if mock {
		return ModeMock
	}
	return ModeLive
}

// ParseMode accepts mock/live/auto as well as boolean spellings of the mock flag.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeAuto):
		return ModeAuto, nil
	case string(ModeMock):
		return ModeMock, nil
	case string(ModeLive):
		return ModeLive, nil
	}
	if b, ok := common.ParseBool(s); ok {
		return ModeFromMock(b), nil
	}
	return "", apperr.InvalidArgument("unknown weather mode %q", s)
}

// Location represents a place we resolve weather for.
// City is required; Country is an optional ISO code hint.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// ParseLocation splits "City,CC" into a Location.
func ParseLocation(s string) Location {
	city, country, _ := strings.Cut(s, ",")
	return Location{
		City:    strings.TrimSpace(city),
		Country: strings.ToUpper(strings.TrimSpace(country)),
	}
}

// Query returns the provider search string ("City" or "City,CC").
func (l Location) Query() string {
	if l.Country != "" {
		return fmt.Sprintf("%s,%s", l.City, l.Country)
	}
	return l.City
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	k := common.NormalizeCity(l.City)
	if l.Country != "" {
		k += "," + strings.ToLower(l.Country)
	}
	return k
}

// WeatherSnapshot is the normalized weather view used by scoring and estimation.
type WeatherSnapshot struct {
	City          string    `json:"city"`
	Country       string    `json:"country,omitempty"`
	TemperatureC  float64   `json:"temperature_c"`
	HumidityPct   float64   `json:"humidity_pct"`
	CloudCoverPct float64   `json:"cloud_cover_pct"`
	UVIndex       float64   `json:"uv_index"`
	UVEstimated   bool      `json:"uv_estimated,omitempty"`
	LightLux      float64   `json:"light_lux"`
	ClimateZone   string    `json:"climate_zone"`
	Condition     Condition `json:"condition"`
	Timestamp     time.Time `json:"timestamp"` // always UTC
	Source        string    `json:"source"`
}
