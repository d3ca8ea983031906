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
)

const exchangeRateBaseURL = "https://v6.exchangerate-api.com"

// Rate is a single currency pair quote.
type Rate struct {
	From      string
	To        string
	Value     float64
	FetchedAt time.Time
}

// ExchangeRateProvider fetches pair rates from ExchangeRate-API v6.
type ExchangeRateProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewExchangeRateProvider(cfg HTTPClientConfig, apiKey string) *ExchangeRateProvider {
	return &ExchangeRateProvider{
		name:    "exchangerate",
		apiKey:  apiKey,
		baseURL: exchangeRateBaseURL,
		httpCfg: cfg,
		circuit: newBreaker("exchangerate"),
	}
}

// WithBaseURL points the provider at another host (tests).
func (p *ExchangeRateProvider) WithBaseURL(u string) *ExchangeRateProvider {
	p.baseURL = u
	return p
}

func (p *ExchangeRateProvider) Name() string {
	return p.name
}

func (p *ExchangeRateProvider) HasKey() bool {
	return p.apiKey != ""
}

func (p *ExchangeRateProvider) FormatOK() bool {
	return hex24Key.MatchString(p.apiKey)
}

func (p *ExchangeRateProvider) ProbeKey(ctx context.Context) error {
	_, err := p.Rate(ctx, "USD", "EUR")
	return err
}

type pairResponse struct {
	Result             string  `json:"result"`
	ErrorType          string  `json:"error-type"`
	ConversionRate     float64 `json:"conversion_rate"`
	TimeLastUpdateUnix int64   `json:"time_last_update_unix"`
}

// Rate returns how many units of to one unit of from buys.
func (p *ExchangeRateProvider) Rate(ctx context.Context, from, to string) (Rate, error) {
	if !p.HasKey() {
		return Rate{}, errKeyNotConfigured(p.name)
	}

	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/v6/%s/pair/%s/%s",
			p.baseURL, url.PathEscape(p.apiKey), url.PathEscape(from), url.PathEscape(to))
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			var body pairResponse
			if json.Unmarshal([]byte(se.Body), &body) == nil && body.ErrorType != "" {
				return Rate{}, exchangeRateError(body.ErrorType)
			}
		}
		return Rate{}, classifyStatus(err)
	}

	var body pairResponse
	if err := decodeJSON(resp, &body); err != nil {
		return Rate{}, err
	}
	if body.Result != "success" {
		return Rate{}, exchangeRateError(body.ErrorType)
	}
	if body.ConversionRate <= 0 {
		return Rate{}, fmt.Errorf("%w: exchangerate returned non-positive rate", apperr.ErrProviderUnavailable)
	}

	fetched := time.Now().UTC()
	if body.TimeLastUpdateUnix > 0 {
		fetched = time.Unix(body.TimeLastUpdateUnix, 0).UTC()
	}
	return Rate{From: from, To: to, Value: body.ConversionRate, FetchedAt: fetched}, nil
}

func exchangeRateError(kind string) error {
	switch kind {
	case "invalid-key", "inactive-account":
		return fmt.Errorf("%w: exchangerate: %s", apperr.ErrInvalidAPIKey, kind)
	case "quota-reached":
		return fmt.Errorf("%w: exchangerate: %s", apperr.ErrRateLimited, kind)
	case "unsupported-code", "malformed-request":
		return apperr.InvalidArgument("exchangerate: %s", kind)
	default:
		return fmt.Errorf("%w: exchangerate: %s", apperr.ErrProviderUnavailable, kind)
	}
}
