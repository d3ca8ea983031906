package advisor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/currency"
	"github.com/i474232898/bio-photo/internal/energy"
	"github.com/i474232898/bio-photo/internal/scoring"
	"github.com/i474232898/bio-photo/internal/weather"
)

// DefaultTopN is used when a request does not ask for a specific count.
const DefaultTopN = 3

// WeatherSource resolves weather for a city.
type WeatherSource interface {
	GetWeather(ctx context.Context, city string, mode weather.Mode) (weather.WeatherSnapshot, error)
	ResolveMode(m weather.Mode) weather.Mode
}

// CurrencyConverter converts base-currency costs for display.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (currency.Conversion, error)
}

// Advisor runs the weather → scoring → energy → currency pipeline.
type Advisor struct {
	weather      WeatherSource
	catalog      *catalog.Catalog
	engine       *scoring.Engine
	estimator    *energy.Estimator
	converter    CurrencyConverter
	baseCurrency string
	log          zerolog.Logger
}

// Config bundles the Advisor's collaborators.
type Config struct {
	Weather      WeatherSource
	Catalog      *catalog.Catalog
	Engine       *scoring.Engine
	Estimator    *energy.Estimator
	Converter    CurrencyConverter
	BaseCurrency string
	Logger       zerolog.Logger
}

func New(cfg Config) *Advisor {
	base := cfg.BaseCurrency
	if base == "" {
		base = "USD"
	}
	return &Advisor{
		weather:      cfg.Weather,
		catalog:      cfg.Catalog,
		engine:       cfg.Engine,
		estimator:    cfg.Estimator,
		converter:    cfg.Converter,
		baseCurrency: base,
		log:          cfg.Logger.With().Str("component", "advisor").Logger(),
	}
}

// BaseCurrency is the currency catalog costs are denominated in.
func (a *Advisor) BaseCurrency() string {
	return a.baseCurrency
}

// Catalog exposes the fruit catalog.
func (a *Advisor) Catalog() *catalog.Catalog {
	return a.catalog
}

// RecommendRequest asks for the best fruits for a city.
type RecommendRequest struct {
	City     string
	Mode     weather.Mode
	TopN     int
	Currency string
}

// Recommendation is a ranked fruit with its cost in the requested currency.
type Recommendation struct {
	scoring.ScoredFruit
	LocalCostPerKg *currency.Conversion `json:"local_cost_per_kg,omitempty"`
}

// RecommendResult is the response of Recommend.
type RecommendResult struct {
	City            string                  `json:"city"`
	Mode            weather.Mode            `json:"mode"`
	Weather         weather.WeatherSnapshot `json:"weather"`
	Recommendations []Recommendation        `json:"recommendations"`
	Currency        string                  `json:"currency"`
	CurrencyNote    string                  `json:"currency_note,omitempty"`
}

// Recommend resolves weather for the city and ranks the catalog against it.
func (a *Advisor) Recommend(ctx context.Context, req RecommendRequest) (RecommendResult, error) {
	target, err := a.targetCurrency(req.Currency)
	if err != nil {
		return RecommendResult{}, err
	}

	mode := a.weather.ResolveMode(req.Mode)
	snap, err := a.weather.GetWeather(ctx, req.City, mode)
	if err != nil {
		return RecommendResult{}, err
	}

	ranked, err := a.engine.ScoreAndRank(a.catalog.List(), snap, req.TopN)
	if err != nil {
		return RecommendResult{}, err
	}

	res := RecommendResult{
		City:            snap.City,
		Mode:            mode,
		Weather:         snap,
		Recommendations: make([]Recommendation, len(ranked)),
		Currency:        a.baseCurrency,
	}
	for i, sf := range ranked {
		res.Recommendations[i] = Recommendation{ScoredFruit: sf}
	}

	if target != a.baseCurrency {
		res.Currency = target
		conv := newCostConverter(a, target)
		for i := range res.Recommendations {
			res.Recommendations[i].LocalCostPerKg = conv.convert(ctx, res.Recommendations[i].CostPerKg)
		}
		res.CurrencyNote = conv.note()
		if conv.failed {
			res.Currency = a.baseCurrency
			for i := range res.Recommendations {
				res.Recommendations[i].LocalCostPerKg = nil
			}
		}
	}

	a.log.Info().
		Str("city", snap.City).
		Str("mode", string(mode)).
		Str("source", snap.Source).
		Int("count", len(res.Recommendations)).
		Msg("recommendations computed")
	return res, nil
}

// CalculateRequest asks for an energy estimate for one fruit in a city.
// An empty Fruit selects the top-ranked fruit for the city's weather.
type CalculateRequest struct {
	City           string
	Fruit          string
	Mode           weather.Mode
	PanelSizeSqft  float64
	DeviceCategory string
	Currency       string
}

// CalculateResult is the response of Calculate.
type CalculateResult struct {
	energy.EnergyEstimate
	Mode              weather.Mode         `json:"mode"`
	FruitAutoSelected bool                 `json:"fruit_auto_selected,omitempty"`
	Currency          string               `json:"currency"`
	LocalMaterialCost *currency.Conversion `json:"local_material_cost,omitempty"`
	LocalPanelCost    *currency.Conversion `json:"local_panel_cost,omitempty"`
	CurrencyNote      string               `json:"currency_note,omitempty"`
}

// Calculate estimates the output of a fruit cell (and optionally a panel)
// under the city's current weather.
func (a *Advisor) Calculate(ctx context.Context, req CalculateRequest) (CalculateResult, error) {
	target, err := a.targetCurrency(req.Currency)
	if err != nil {
		return CalculateResult{}, err
	}
	if req.PanelSizeSqft < 0 {
		return CalculateResult{}, apperr.InvalidArgument("panel_size must be >= 0, got %g", req.PanelSizeSqft)
	}

	var fruit catalog.Fruit
	auto := req.Fruit == ""
	if !auto {
		f, ok := a.catalog.Lookup(req.Fruit)
		if !ok {
			return CalculateResult{}, apperr.InvalidArgument("unknown fruit %q", req.Fruit)
		}
		fruit = f
	}

	mode := a.weather.ResolveMode(req.Mode)
	snap, err := a.weather.GetWeather(ctx, req.City, mode)
	if err != nil {
		return CalculateResult{}, err
	}

	if auto {
		top, err := a.engine.ScoreAndRank(a.catalog.List(), snap, 1)
		if err != nil {
			return CalculateResult{}, err
		}
		fruit = top[0].Fruit
	}

	est, err := a.estimator.Estimate(fruit, snap)
	if err != nil {
		return CalculateResult{}, err
	}
	if req.PanelSizeSqft > 0 {
		panel, err := a.estimator.EstimatePanel(fruit, snap, req.PanelSizeSqft, req.DeviceCategory)
		if err != nil {
			return CalculateResult{}, err
		}
		est.Panel = &panel
	}

	res := CalculateResult{
		EnergyEstimate:    est,
		Mode:              mode,
		FruitAutoSelected: auto,
		Currency:          a.baseCurrency,
	}

	if target != a.baseCurrency {
		res.Currency = target
		conv := newCostConverter(a, target)
		res.LocalMaterialCost = conv.convert(ctx, est.Installation.MaterialCost)
		if est.Panel != nil {
			res.LocalPanelCost = conv.convert(ctx, est.Panel.Materials.MaterialCost)
		}
		res.CurrencyNote = conv.note()
		if conv.failed {
			res.Currency = a.baseCurrency
			res.LocalMaterialCost, res.LocalPanelCost = nil, nil
		}
	}

	a.log.Info().
		Str("city", snap.City).
		Str("fruit", fruit.Name).
		Bool("auto", auto).
		Float64("power_watts", est.EstimatedPowerWatts).
		Msg("energy calculated")
	return res, nil
}

// targetCurrency validates the requested currency; empty means base.
func (a *Advisor) targetCurrency(code string) (string, error) {
	if code == "" {
		return a.baseCurrency, nil
	}
	return currency.NormalizeCode(code)
}

// costConverter converts several amounts for one response, degrading to
// base-currency figures on failure instead of failing the response.
type costConverter struct {
	a      *Advisor
	target string
	failed bool
	stale  bool
}

func newCostConverter(a *Advisor, target string) *costConverter {
	return &costConverter{a: a, target: target}
}

func (c *costConverter) convert(ctx context.Context, amount float64) *currency.Conversion {
	if c.failed {
		return nil
	}
	if c.a.converter == nil {
		c.failed = true
		return nil
	}
	conv, err := c.a.converter.Convert(ctx, amount, c.a.baseCurrency, c.target)
	if err != nil {
		c.failed = true
		c.a.log.Warn().Err(err).Str("currency", c.target).Msg("currency conversion unavailable, using base currency")
		return nil
	}
	if conv.Stale {
		c.stale = true
	}
	return &conv
}

func (c *costConverter) note() string {
	switch {
	case c.failed:
		return "exchange rate unavailable; costs shown in " + c.a.baseCurrency
	case c.stale:
		return "exchange rate is stale; last known rate used"
	default:
		return ""
	}
}
