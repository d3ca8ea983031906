package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap. Cities
// are resolved through the geocoding API first, then current weather is
// requested by coordinates.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    weather.SourceOpenWeatherMap,
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		httpCfg: cfg,
		circuit: newBreaker("openweather"),
	}
}

// WithBaseURL points the provider at another host (tests).
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) HasKey() bool {
	return p.apiKey != ""
}

func (p *OpenWeatherProvider) FormatOK() bool {
	return hex32Key.MatchString(p.apiKey)
}

// ProbeKey geocodes a well-known city to check the key is accepted.
func (p *OpenWeatherProvider) ProbeKey(ctx context.Context) error {
	if !p.HasKey() {
		return errKeyNotConfigured(p.name)
	}
	_, err := p.geocode(ctx, weather.Location{City: "London", Country: "GB"})
	return err
}

type owmPlace struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

func (p *OpenWeatherProvider) geocode(ctx context.Context, loc weather.Location) (owmPlace, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", loc.Query())
		values.Set("limit", "1")
		values.Set("appid", p.apiKey)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/geo/1.0/direct?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return owmPlace{}, classifyStatus(err)
	}

	var places []owmPlace
	if err := decodeJSON(resp, &places); err != nil {
		return owmPlace{}, err
	}
	if len(places) == 0 {
		return owmPlace{}, fmt.Errorf("%w: %q", apperr.ErrLocationNotFound, loc.Query())
	}
	return places[0], nil
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if !p.HasKey() {
		return weather.ProviderReading{}, errKeyNotConfigured(p.name)
	}

	place, err := p.geocode(ctx, loc)
	if err != nil {
		return weather.ProviderReading{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(place.Lat, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(place.Lon, 'f', 4, 64))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/data/2.5/weather?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, classifyStatus(err)
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Clouds struct {
			All float64 `json:"all"`
		} `json:"clouds"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	cond := weather.ConditionUnknown
	if len(payload.Weather) > 0 {
		cond = mapOpenWeatherCondition(payload.Weather[0].Main)
	}

	lat := place.Lat
	return weather.ProviderReading{
		ProviderName:  p.name,
		Timestamp:     ts,
		ResolvedCity:  place.Name,
		Country:       place.Country,
		Lat:           &lat,
		TemperatureC:  payload.Main.Temp,
		HumidityPct:   payload.Main.Humidity,
		CloudCoverPct: payload.Clouds.All,
		Condition:     cond,
	}, nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
