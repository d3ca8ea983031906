package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/weather"
)

// Scoring features, in the order of Weights.vector.
const (
	FeatureTemperature = "temperature"
	FeatureAffinity    = "climate_affinity"
	FeatureLight       = "light"
	FeatureUV          = "uv"
	FeatureRegion      = "region"
	FeatureCost        = "cost"
)

// ScoreReason explains one component's contribution to a fruit's score.
type ScoreReason struct {
	Feature string  `json:"feature"`
	Message string  `json:"message"`
	Impact  float64 `json:"impact"`
}

// ScoredFruit is a catalog fruit with its score for a given weather snapshot.
type ScoredFruit struct {
	catalog.Fruit
	Score     float64       `json:"score"`
	Rationale []ScoreReason `json:"rationale"`
}

// Engine ranks fruits against weather. It holds no mutable state.
type Engine struct {
	weights Weights
	log     zerolog.Logger
}

// NewEngine creates an Engine. Invalid weights are replaced by DefaultWeights.
func NewEngine(w Weights, log zerolog.Logger) *Engine {
	log = log.With().Str("component", "scoring").Logger()
	if err := w.Validate(); err != nil {
		log.Warn().Err(err).Msg("invalid scoring weights, using defaults")
		w = DefaultWeights()
	}
	return &Engine{weights: w, log: log}
}

// Weights returns the coefficients in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// ScoreAndRank scores every fruit and returns the best topN, ordered by
// score descending then name ascending. Scores are on a 0..100 scale.
func (e *Engine) ScoreAndRank(fruits []catalog.Fruit, w weather.WeatherSnapshot, topN int) ([]ScoredFruit, error) {
	if topN < 1 {
		return nil, apperr.InvalidArgument("top_n must be >= 1, got %d", topN)
	}
	if len(fruits) == 0 {
		return nil, apperr.InvalidArgument("no fruits to score")
	}

	buckets := ConditionBuckets(w)
	region := catalog.RegionForCountry(w.Country)

	out := make([]ScoredFruit, 0, len(fruits))
	for _, f := range fruits {
		score, reasons := e.scoreOne(f, w, buckets, region)
		out = append(out, ScoredFruit{Fruit: f, Score: score, Rationale: reasons})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})

	if len(out) > topN {
		out = out[:topN]
	}

	e.log.Debug().
		Str("city", w.City).
		Strs("buckets", buckets).
		Str("top", out[0].Name).
		Float64("score", out[0].Score).
		Msg("fruits ranked")
	return out, nil
}

func (e *Engine) scoreOne(f catalog.Fruit, w weather.WeatherSnapshot, buckets []string, region string) (float64, []ScoreReason) {
	type factor struct {
		feature string
		value   float64
		message string
	}

	temp, tempMsg := temperatureFit(f, w.TemperatureC, e.weights.TempScaleC)
	aff, affMsg := affinityFit(f, buckets)
	light, lightMsg := lightFit(f, w.LightLux, e.weights.LowLightLux)
	uv, uvMsg := uvFit(f, w.UVIndex)
	reg, regMsg := regionFit(f, region)
	cost, costMsg := costFit(f, e.weights.CostScale)

	factors := []factor{
		{FeatureTemperature, temp, tempMsg},
		{FeatureAffinity, aff, affMsg},
		{FeatureLight, light, lightMsg},
		{FeatureUV, uv, uvMsg},
		{FeatureRegion, reg, regMsg},
		{FeatureCost, cost, costMsg},
	}

	values := make([]float64, len(factors))
	for i, fc := range factors {
		values[i] = fc.value
	}
	weights := e.weights.vector()
	scale := 100 / e.weights.total()

	reasons := make([]ScoreReason, 0, len(factors))
	for i, fc := range factors {
		if weights[i] == 0 {
			continue
		}
		reasons = append(reasons, ScoreReason{
			Feature: fc.feature,
			Message: fc.message,
			Impact:  common.Round(weights[i]*fc.value*scale, 2),
		})
	}

	return common.Round(floats.Dot(weights, values)*scale, 2), reasons
}

// ConditionBuckets derives the climate tags that describe the current weather.
// Temperature always yields one bucket; humidity, cloud and UV only when
// outside their neutral bands.
func ConditionBuckets(w weather.WeatherSnapshot) []string {
	var b []string
	switch {
	case w.HumidityPct > 70:
		b = append(b, catalog.TagHighHumidity)
	case w.HumidityPct < 40:
		b = append(b, catalog.TagDry)
	}
	switch {
	case w.CloudCoverPct > 60:
		b = append(b, catalog.TagCloudy)
	case w.CloudCoverPct < 30:
		b = append(b, catalog.TagClear)
	}
	switch {
	case w.UVIndex > 5:
		b = append(b, catalog.TagHighUV)
	case w.UVIndex < 3:
		b = append(b, catalog.TagLowUV)
	}
	switch {
	case w.TemperatureC >= 28:
		b = append(b, catalog.TagHot)
	case w.TemperatureC <= 10:
		b = append(b, catalog.TagCold)
	default:
		b = append(b, catalog.TagMild)
	}
	return b
}

var oppositeTag = map[string]string{
	catalog.TagHighHumidity: catalog.TagDry,
	catalog.TagDry:          catalog.TagHighHumidity,
	catalog.TagCloudy:       catalog.TagClear,
	catalog.TagClear:        catalog.TagCloudy,
	catalog.TagHighUV:       catalog.TagLowUV,
	catalog.TagLowUV:        catalog.TagHighUV,
	catalog.TagHot:          catalog.TagCold,
	catalog.TagCold:         catalog.TagHot,
}

// affinityFit is in [-1,1]: +1 per matched bucket, -1 per bucket whose
// opposite the fruit prefers, averaged over the buckets.
func affinityFit(f catalog.Fruit, buckets []string) (float64, string) {
	if len(buckets) == 0 {
		return 0, "no distinctive conditions"
	}
	var sum float64
	var matched, clashed []string
	for _, tag := range buckets {
		switch {
		case f.HasAffinity(tag):
			sum++
			matched = append(matched, tag)
		case oppositeTag[tag] != "" && f.HasAffinity(oppositeTag[tag]):
			sum--
			clashed = append(clashed, tag)
		}
	}
	msg := fmt.Sprintf("matches %v", matched)
	if len(clashed) > 0 {
		msg += fmt.Sprintf(", prefers the opposite of %v", clashed)
	}
	return sum / float64(len(buckets)), msg
}

func temperatureFit(f catalog.Fruit, tempC, scale float64) (float64, string) {
	r := f.TemperatureRange
	var d float64
	switch {
	case tempC < r.Min:
		d = r.Min - tempC
	case tempC > r.Max:
		d = tempC - r.Max
	}
	if d == 0 {
		return 1, fmt.Sprintf("%.1f°C is within the ideal %g–%g°C", tempC, r.Min, r.Max)
	}
	return 1 / (1 + d/scale), fmt.Sprintf("%.1f°C is %.1f°C outside the ideal %g–%g°C", tempC, d, r.Min, r.Max)
}

func lightFit(f catalog.Fruit, lux, lowLight float64) (float64, string) {
	if lux < lowLight {
		return f.LowLightEff, fmt.Sprintf("low light (%.0f lux), efficiency %.0f%%", lux, f.LowLightEff*100)
	}
	return f.HighUVEff, fmt.Sprintf("bright light (%.0f lux), efficiency %.0f%%", lux, f.HighUVEff*100)
}

func uvFit(f catalog.Fruit, uv float64) (float64, string) {
	v := common.Clamp(1-math.Abs(uv-f.UVActivation)/10, 0, 1)
	return v, fmt.Sprintf("UV %.1f vs activation %.1f", uv, f.UVActivation)
}

func regionFit(f catalog.Fruit, region string) (float64, string) {
	if region == "" {
		return 0, "region unknown"
	}
	switch avail := f.AvailabilityIn(region); avail {
	case catalog.AvailabilityHigh:
		return 1, "widely available in " + region
	case catalog.AvailabilityMedium:
		return 0.5, "moderately available in " + region
	case catalog.AvailabilityLow:
		return 0, "scarce in " + region
	default:
		return 0, "no availability data for " + region
	}
}

func costFit(f catalog.Fruit, scale float64) (float64, string) {
	return 1 / (1 + f.CostPerKg/scale), fmt.Sprintf("%.2f per kg", f.CostPerKg)
}
