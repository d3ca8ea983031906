package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/weather"
)

const testOWMKey = "0123456789abcdef0123456789abcdef"

func testHTTPConfig(srv *httptest.Server) HTTPClientConfig {
	return DefaultHTTPConfig(srv.Client())
}

func TestOpenWeatherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testOWMKey, r.URL.Query().Get("appid"))
		switch r.URL.Path {
		case "/geo/1.0/direct":
			assert.Equal(t, "London,GB", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`[{"name":"London","lat":51.5073,"lon":-0.1276,"country":"GB"}]`))
		case "/data/2.5/weather":
			assert.Equal(t, "51.5073", r.URL.Query().Get("lat"))
			assert.Equal(t, "metric", r.URL.Query().Get("units"))
			_, _ = w.Write([]byte(`{"dt":1735732800,"main":{"temp":11.5,"humidity":81},"clouds":{"all":75},"weather":[{"main":"Clouds"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), testOWMKey).WithBaseURL(srv.URL)
	r, err := p.Fetch(context.Background(), weather.Location{City: "London", Country: "GB"})
	require.NoError(t, err)

	assert.Equal(t, weather.SourceOpenWeatherMap, r.ProviderName)
	assert.Equal(t, "London", r.ResolvedCity)
	assert.Equal(t, "GB", r.Country)
	require.NotNil(t, r.Lat)
	assert.InDelta(t, 51.5073, *r.Lat, 1e-9)
	assert.Equal(t, 11.5, r.TemperatureC)
	assert.Equal(t, 81.0, r.HumidityPct)
	assert.Equal(t, 75.0, r.CloudCoverPct)
	assert.Nil(t, r.UVIndex)
	assert.Equal(t, weather.ConditionCloudy, r.Condition)
	assert.Equal(t, int64(1735732800), r.Timestamp.Unix())
}

func TestOpenWeatherUnknownCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), testOWMKey).WithBaseURL(srv.URL)
	_, err := p.Fetch(context.Background(), weather.Location{City: "Atlantis"})
	assert.ErrorIs(t, err, apperr.ErrLocationNotFound)
}

func TestOpenWeatherRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(testHTTPConfig(srv), testOWMKey).WithBaseURL(srv.URL)
	_, err := p.Fetch(context.Background(), weather.Location{City: "London"})
	assert.ErrorIs(t, err, apperr.ErrInvalidAPIKey)

	err = p.ProbeKey(context.Background())
	assert.ErrorIs(t, err, apperr.ErrInvalidAPIKey)
}

func TestMissingKeyIsInvalidAPIKeyWithoutNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testHTTPConfig(srv)
	owm := NewOpenWeatherProvider(cfg, "").WithBaseURL(srv.URL)
	wapi := NewWeatherAPIProvider(cfg, "").WithBaseURL(srv.URL)
	om := NewOpenMeteoProvider(cfg, "").WithBaseURL(srv.URL)

	for _, p := range []weather.Provider{owm, wapi, om} {
		_, err := p.Fetch(context.Background(), weather.Location{City: "London"})
		assert.ErrorIs(t, err, apperr.ErrInvalidAPIKey, p.Name())
	}
	assert.Zero(t, hits.Load())
}

func TestRateLimitAndServerErrorsAreUnavailable(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		p := NewWeatherAPIProvider(testHTTPConfig(srv), "k").WithBaseURL(srv.URL)
		_, err := p.Fetch(context.Background(), weather.Location{City: "London"})
		require.Error(t, err)
		if code == http.StatusTooManyRequests {
			assert.ErrorIs(t, err, apperr.ErrRateLimited)
			assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
		} else {
			assert.ErrorIs(t, err, errServerError)
		}
		srv.Close()
	}
}

func TestWeatherAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/current.json", r.URL.Path)
		assert.Equal(t, "Miami,US", r.URL.Query().Get("q"))
		assert.Equal(t, "no", r.URL.Query().Get("aqi"))
		_, _ = w.Write([]byte(`{
			"location":{"name":"Miami","country":"United States of America","lat":25.77},
			"current":{"last_updated_epoch":1735732800,"temp_c":27.2,"humidity":74,"cloud":25,"uv":8,
			           "condition":{"text":"Partly cloudy"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(testHTTPConfig(srv), "k").WithBaseURL(srv.URL)
	r, err := p.Fetch(context.Background(), weather.Location{City: "Miami", Country: "US"})
	require.NoError(t, err)

	assert.Equal(t, "Miami", r.ResolvedCity)
	assert.Equal(t, "US", r.Country)
	require.NotNil(t, r.UVIndex)
	assert.Equal(t, 8.0, *r.UVIndex)
	assert.Equal(t, 25.0, r.CloudCoverPct)
	assert.Equal(t, weather.ConditionCloudy, r.Condition)
}

func TestWeatherAPIErrorCodes(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusBadRequest, `{"error":{"code":1006,"message":"No matching location found."}}`, apperr.ErrLocationNotFound},
		{http.StatusUnauthorized, `{"error":{"code":2006,"message":"API key is invalid."}}`, apperr.ErrInvalidAPIKey},
		{http.StatusForbidden, `{"error":{"code":2007,"message":"quota exceeded"}}`, apperr.ErrRateLimited},
		{http.StatusForbidden, `not json`, apperr.ErrInvalidAPIKey},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(tt.body))
		}))
		p := NewWeatherAPIProvider(testHTTPConfig(srv), "k").WithBaseURL(srv.URL)
		_, err := p.Fetch(context.Background(), weather.Location{City: "Nowhere"})
		assert.ErrorIs(t, err, tt.want, tt.body)
		srv.Close()
	}
}

func TestOpenMeteoFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "35.6762", r.URL.Query().Get("latitude"))
		_, _ = w.Write([]byte(`{"current":{"time":"2025-01-01T12:00","temperature_2m":9.4,"relative_humidity_2m":55,
			"cloud_cover":10,"uv_index":2.5,"weather_code":0}}`))
	}))
	defer srv.Close()

	geocode := func(_ context.Context, loc weather.Location) (float64, float64, error) {
		assert.Equal(t, "Tokyo", loc.City)
		return 35.6762, 139.6503, nil
	}
	p := NewOpenMeteoProvider(testHTTPConfig(srv), "AIza-test").WithBaseURL(srv.URL).WithGeocoder(geocode)

	r, err := p.Fetch(context.Background(), weather.Location{City: "Tokyo", Country: "JP"})
	require.NoError(t, err)
	assert.Equal(t, weather.SourceOpenMeteo, r.ProviderName)
	assert.Equal(t, 9.4, r.TemperatureC)
	require.NotNil(t, r.UVIndex)
	assert.Equal(t, 2.5, *r.UVIndex)
	assert.Equal(t, weather.ConditionClear, r.Condition)
	assert.Equal(t, 12, r.Timestamp.Hour())
}

func TestOpenMeteoGeocodeFailure(t *testing.T) {
	p := NewOpenMeteoProvider(DefaultHTTPConfig(http.DefaultClient), "AIza-test").
		WithGeocoder(func(context.Context, weather.Location) (float64, float64, error) {
			return 0, 0, classifyGeocodeError(errors.New("geocoding failed: ZERO_RESULTS"))
		})

	_, err := p.Fetch(context.Background(), weather.Location{City: "Atlantis"})
	assert.ErrorIs(t, err, apperr.ErrLocationNotFound)
}

func TestMapWeatherAPICondition(t *testing.T) {
	cases := map[string]weather.Condition{
		"":                         weather.ConditionUnknown,
		"Thundery outbreaks":       weather.ConditionStorm,
		"Patchy light drizzle":     weather.ConditionRain,
		"Moderate or heavy sleet":  weather.ConditionSnow,
		"Freezing fog":             weather.ConditionMist,
		"Overcast":                 weather.ConditionCloudy,
		"Sunny":                    weather.ConditionClear,
		"Volcanic ash in vicinity": weather.ConditionUnknown,
	}
	for text, want := range cases {
		assert.Equal(t, want, mapWeatherAPICondition(text), text)
	}
}

func TestClassifyGeocodeError(t *testing.T) {
	assert.ErrorIs(t, classifyGeocodeError(errors.New("REQUEST_DENIED")), apperr.ErrInvalidAPIKey)
	assert.ErrorIs(t, classifyGeocodeError(errors.New("OVER_QUERY_LIMIT")), apperr.ErrRateLimited)
	assert.ErrorIs(t, classifyGeocodeError(errors.New("ZERO_RESULTS")), apperr.ErrLocationNotFound)
	assert.ErrorIs(t, classifyGeocodeError(errors.New("You have exceeded your daily request quota, you are over your quota")), apperr.ErrRateLimited)
	assert.ErrorIs(t, classifyGeocodeError(errors.New("EOF")), apperr.ErrProviderUnavailable)
}

func TestExchangeRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v6/0123456789abcdef01234567/pair/USD/EUR":
			_, _ = w.Write([]byte(`{"result":"success","conversion_rate":0.92,"time_last_update_unix":1735689601}`))
		default:
			_, _ = w.Write([]byte(`{"result":"error","error-type":"invalid-key"}`))
		}
	}))
	defer srv.Close()

	p := NewExchangeRateProvider(testHTTPConfig(srv), "0123456789abcdef01234567").WithBaseURL(srv.URL)
	assert.True(t, p.FormatOK())

	rate, err := p.Rate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.92, rate.Value)
	assert.Equal(t, "EUR", rate.To)

	_, err = p.Rate(context.Background(), "USD", "GBP")
	assert.ErrorIs(t, err, apperr.ErrInvalidAPIKey)
}

func TestKeyFormats(t *testing.T) {
	assert.True(t, NewOpenWeatherProvider(HTTPClientConfig{}, testOWMKey).FormatOK())
	assert.False(t, NewOpenWeatherProvider(HTTPClientConfig{}, "short").FormatOK())
	assert.True(t, NewWeatherAPIProvider(HTTPClientConfig{}, "0123456789abcdef0123456789abcd").FormatOK())
	assert.False(t, NewExchangeRateProvider(HTTPClientConfig{}, testOWMKey).FormatOK())
}

func TestCircuitOpensAfterServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(testHTTPConfig(srv), "k").WithBaseURL(srv.URL)
	for i := 0; i < 10; i++ {
		_, _ = p.Fetch(context.Background(), weather.Location{City: "London"})
	}

	_, err := p.Fetch(context.Background(), weather.Location{City: "London"})
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
	assert.Less(t, hits.Load(), int32(11))
}
