package advisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/currency"
	"github.com/i474232898/bio-photo/internal/energy"
	"github.com/i474232898/bio-photo/internal/scoring"
	"github.com/i474232898/bio-photo/internal/store"
	"github.com/i474232898/bio-photo/internal/weather"
)

type fakeConverter struct {
	rate  float64
	stale bool
	err   error
}

func (c *fakeConverter) Convert(_ context.Context, amount float64, from, to string) (currency.Conversion, error) {
	if c.err != nil {
		return currency.Conversion{}, c.err
	}
	return currency.Conversion{
		Original: amount,
		Amount:   amount * c.rate,
		Rate:     c.rate,
		From:     from,
		To:       to,
		Stale:    c.stale,
	}, nil
}

func newTestAdvisor(t *testing.T, useMock bool, conv CurrencyConverter) *Advisor {
	t.Helper()
	cat, err := catalog.LoadDefault()
	require.NoError(t, err)

	log := zerolog.Nop()
	svc := weather.NewService(store.NewMemoryStore[weather.WeatherSnapshot](time.Minute), nil,
		weather.Options{UseMock: useMock, Logger: log})

	return New(Config{
		Weather:   svc,
		Catalog:   cat,
		Engine:    scoring.NewEngine(scoring.DefaultWeights(), log),
		Estimator: energy.NewEstimator(cat, energy.DefaultParams(), log),
		Converter: conv,
		Logger:    log,
	})
}

func TestRecommendLondonMock(t *testing.T) {
	a := newTestAdvisor(t, false, nil)

	res, err := a.Recommend(context.Background(), RecommendRequest{City: "London", Mode: weather.ModeMock, TopN: 3})
	require.NoError(t, err)

	assert.Equal(t, weather.ModeMock, res.Mode)
	assert.Equal(t, weather.SourceMock, res.Weather.Source)
	require.Len(t, res.Recommendations, 3)
	assert.Equal(t, "Beetroot", res.Recommendations[0].Name)
	assert.Equal(t, "USD", res.Currency)
	assert.Empty(t, res.CurrencyNote)
	assert.Nil(t, res.Recommendations[0].LocalCostPerKg)
}

func TestRecommendConvertsCosts(t *testing.T) {
	a := newTestAdvisor(t, true, &fakeConverter{rate: 2})

	res, err := a.Recommend(context.Background(), RecommendRequest{City: "Tokyo", TopN: 2, Currency: "jpy"})
	require.NoError(t, err)
	assert.Equal(t, "JPY", res.Currency)
	for _, r := range res.Recommendations {
		require.NotNil(t, r.LocalCostPerKg)
		assert.Equal(t, r.CostPerKg*2, r.LocalCostPerKg.Amount)
	}
}

func TestRecommendDegradesWhenRatesUnavailable(t *testing.T) {
	a := newTestAdvisor(t, true, &fakeConverter{err: apperr.ErrProviderUnavailable})

	res, err := a.Recommend(context.Background(), RecommendRequest{City: "Tokyo", TopN: 2, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "USD", res.Currency)
	assert.Contains(t, res.CurrencyNote, "unavailable")
	for _, r := range res.Recommendations {
		assert.Nil(t, r.LocalCostPerKg)
	}
}

func TestRecommendFlagsStaleRates(t *testing.T) {
	a := newTestAdvisor(t, true, &fakeConverter{rate: 0.9, stale: true})

	res, err := a.Recommend(context.Background(), RecommendRequest{City: "Paris", TopN: 1, Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", res.Currency)
	assert.Contains(t, res.CurrencyNote, "stale")
}

func TestRecommendErrors(t *testing.T) {
	a := newTestAdvisor(t, true, nil)

	_, err := a.Recommend(context.Background(), RecommendRequest{City: "London", TopN: 0})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = a.Recommend(context.Background(), RecommendRequest{City: "London", TopN: 3, Currency: "dollars"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	// Live mode with no backends never falls back to mock.
	_, err = a.Recommend(context.Background(), RecommendRequest{City: "London", Mode: weather.ModeLive, TopN: 3})
	assert.ErrorIs(t, err, apperr.ErrProviderUnavailable)
}

func TestCalculateNamedFruit(t *testing.T) {
	a := newTestAdvisor(t, true, nil)

	res, err := a.Calculate(context.Background(), CalculateRequest{City: "Jalgaon", Fruit: "lemon"})
	require.NoError(t, err)
	assert.Equal(t, "Lemon", res.FruitName)
	assert.False(t, res.FruitAutoSelected)
	assert.Greater(t, res.EstimatedPowerWatts, 0.0)
	assert.Nil(t, res.Panel)
	assert.NotEmpty(t, res.ID)
}

func TestCalculatePicksTopFruitWhenUnset(t *testing.T) {
	a := newTestAdvisor(t, true, nil)

	rec, err := a.Recommend(context.Background(), RecommendRequest{City: "London", TopN: 1})
	require.NoError(t, err)

	res, err := a.Calculate(context.Background(), CalculateRequest{City: "London", PanelSizeSqft: 10, DeviceCategory: "small"})
	require.NoError(t, err)
	assert.True(t, res.FruitAutoSelected)
	assert.Equal(t, rec.Recommendations[0].Name, res.FruitName)
	require.NotNil(t, res.Panel)
	assert.Equal(t, 10.0, res.Panel.PanelSizeSqft)
}

func TestCalculateConvertsMaterialCosts(t *testing.T) {
	a := newTestAdvisor(t, true, &fakeConverter{rate: 80})

	res, err := a.Calculate(context.Background(), CalculateRequest{City: "Mulshi", Fruit: "Banana", PanelSizeSqft: 4, Currency: "INR"})
	require.NoError(t, err)
	assert.Equal(t, "INR", res.Currency)
	require.NotNil(t, res.LocalMaterialCost)
	require.NotNil(t, res.LocalPanelCost)
	assert.Equal(t, res.Panel.Materials.MaterialCost*80, res.LocalPanelCost.Amount)
}

func TestCalculateErrors(t *testing.T) {
	a := newTestAdvisor(t, true, nil)

	_, err := a.Calculate(context.Background(), CalculateRequest{City: "London", Fruit: "Durian"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = a.Calculate(context.Background(), CalculateRequest{City: "London", Fruit: "Apple", PanelSizeSqft: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = a.Calculate(context.Background(), CalculateRequest{City: "London", Fruit: "Apple", PanelSizeSqft: 2, DeviceCategory: "giant"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = a.Calculate(context.Background(), CalculateRequest{City: "", Fruit: "Apple"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = a.Calculate(context.Background(), CalculateRequest{City: "London", Fruit: "Apple", Mode: weather.ModeLive})
	assert.True(t, errors.Is(err, apperr.ErrProviderUnavailable))
}

func TestCurrencyWithoutConverterDegrades(t *testing.T) {
	a := newTestAdvisor(t, true, nil)

	res, err := a.Calculate(context.Background(), CalculateRequest{City: "London", Fruit: "Apple", Currency: "GBP"})
	require.NoError(t, err)
	assert.Equal(t, "USD", res.Currency)
	assert.Nil(t, res.LocalMaterialCost)
	assert.NotEmpty(t, res.CurrencyNote)
}
