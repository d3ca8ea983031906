package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/weather"
)

const weatherAPIBaseURL = "https://api.weatherapi.com"

// WeatherAPI error codes worth distinguishing.
const (
	weatherAPINoLocation   = 1006
	weatherAPIKeyInvalid   = 2006
	weatherAPIKeyDisabled  = 2008
	weatherAPIQuotaReached = 2007
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    weather.SourceWeatherAPI,
		apiKey:  apiKey,
		baseURL: weatherAPIBaseURL,
		httpCfg: cfg,
		circuit: newBreaker("weatherapi"),
	}
}

// WithBaseURL points the provider at another host (tests).
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = u
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) HasKey() bool {
	return p.apiKey != ""
}

func (p *WeatherAPIProvider) FormatOK() bool {
	return weatherAPIKey.MatchString(p.apiKey)
}

func (p *WeatherAPIProvider) ProbeKey(ctx context.Context) error {
	if !p.HasKey() {
		return errKeyNotConfigured(p.name)
	}
	_, err := p.Fetch(ctx, weather.Location{City: "London"})
	return err
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if !p.HasKey() {
		return weather.ProviderReading{}, errKeyNotConfigured(p.name)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", loc.Query())
		values.Set("aqi", "no")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/current.json?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ProviderReading{}, classifyWeatherAPIError(err)
	}

	var payload struct {
		Location struct {
			Name    string  `json:"name"`
			Country string  `json:"country"`
			Lat     float64 `json:"lat"`
		} `json:"location"`
		Current struct {
			LastUpdatedEpoch int64   `json:"last_updated_epoch"`
			TempC            float64 `json:"temp_c"`
			Humidity         float64 `json:"humidity"`
			Cloud            float64 `json:"cloud"`
			UV               float64 `json:"uv"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Current.LastUpdatedEpoch > 0 {
		ts = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	}

	lat := payload.Location.Lat
	uv := payload.Current.UV
	return weather.ProviderReading{
		ProviderName:  p.name,
		Timestamp:     ts,
		ResolvedCity:  payload.Location.Name,
		Country:       loc.Country, // WeatherAPI reports country names, not codes
		Lat:           &lat,
		TemperatureC:  payload.Current.TempC,
		HumidityPct:   payload.Current.Humidity,
		CloudCoverPct: payload.Current.Cloud,
		UVIndex:       &uv,
		Condition:     mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

// classifyWeatherAPIError reads the error code WeatherAPI puts in 4xx bodies.
func classifyWeatherAPIError(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}

	var body struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error.Code != 0 {
		switch body.Error.Code {
		case weatherAPINoLocation:
			return fmt.Errorf("%w: %s", apperr.ErrLocationNotFound, body.Error.Message)
		case weatherAPIKeyInvalid, weatherAPIKeyDisabled:
			return fmt.Errorf("%w: %s", apperr.ErrInvalidAPIKey, body.Error.Message)
		case weatherAPIQuotaReached:
			return fmt.Errorf("%w: %s", apperr.ErrRateLimited, body.Error.Message)
		}
	}
	return classifyStatus(err)
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard"):
		return weather.ConditionSnow
	case common.HasAny(text, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
