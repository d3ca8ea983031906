package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/bio-photo/internal/weather"
)

const openMeteoBaseURL = "https://api.open-meteo.com"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// Open-Meteo is keyless but needs coordinates, so the geocoder key gates it.
type OpenMeteoProvider struct {
	name        string
	geocoderKey string
	geocode     GeocodeFunc
	baseURL     string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, geocoderKey string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:        weather.SourceOpenMeteo,
		geocoderKey: geocoderKey,
		geocode:     NewGeocoder(geocoderKey).Lookup,
		baseURL:     openMeteoBaseURL,
		httpCfg:     cfg,
		circuit:     newBreaker("openmeteo"),
	}
}

// WithBaseURL points the provider at another host (tests).
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

// WithGeocoder replaces the coordinate lookup.
func (p *OpenMeteoProvider) WithGeocoder(fn GeocodeFunc) *OpenMeteoProvider {
	p.geocode = fn
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) HasKey() bool {
	return p.geocoderKey != ""
}

func (p *OpenMeteoProvider) FormatOK() bool {
	return strings.HasPrefix(p.geocoderKey, "AIza") && len(p.geocoderKey) == 39
}

func (p *OpenMeteoProvider) ProbeKey(ctx context.Context) error {
	if !p.HasKey() {
		return errKeyNotConfigured("geocoder")
	}
	_, _, err := p.geocode(ctx, weather.Location{City: "London", Country: "GB"})
	return err
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if !p.HasKey() {
		return weather.ProviderReading{}, errKeyNotConfigured("geocoder")
	}

	lat, lon, err := p.geocode(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
		values.Set("current", "temperature_2m,relative_humidity_2m,cloud_cover,uv_index,weather_code")
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/forecast?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, classifyStatus(err)
	}

	var payload struct {
		Current struct {
			Time        string   `json:"time"`
			Temperature float64  `json:"temperature_2m"`
			Humidity    float64  `json:"relative_humidity_2m"`
			CloudCover  float64  `json:"cloud_cover"`
			UVIndex     *float64 `json:"uv_index"`
			WeatherCode int      `json:"weather_code"`
		} `json:"current"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	// Open-Meteo returns ISO8601 without seconds or zone.
	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return weather.ProviderReading{
		ProviderName:  p.name,
		Timestamp:     ts.UTC(),
		Country:       loc.Country,
		Lat:           &lat,
		TemperatureC:  payload.Current.Temperature,
		HumidityPct:   payload.Current.Humidity,
		CloudCoverPct: payload.Current.CloudCover,
		UVIndex:       payload.Current.UVIndex,
		Condition:     mapOpenMeteoCondition(payload.Current.WeatherCode),
	}, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on Open-Meteo weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
