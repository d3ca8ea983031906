package scoring

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/bio-photo/internal/apperr"
)

// Weights defines coefficients for each scoring component plus the scales
// used to normalize raw distances into [0,1].
type Weights struct {
	Temperature float64 `json:"temperature" validate:"gte=0"`
	Affinity    float64 `json:"affinity" validate:"gte=0"`
	Light       float64 `json:"light" validate:"gte=0"`
	UV          float64 `json:"uv" validate:"gte=0"`
	Region      float64 `json:"region" validate:"gte=0"`
	Cost        float64 `json:"cost" validate:"gte=0"`

	// TempScaleC is the deviation (°C) outside the ideal range that halves the temperature term.
	TempScaleC float64 `json:"temp_scale_c" validate:"gt=0"`
	// CostScale is the price per kg that halves the cost term.
	CostScale float64 `json:"cost_scale" validate:"gt=0"`
	// LowLightLux is the illuminance below which low-light efficiency applies.
	LowLightLux float64 `json:"low_light_lux" validate:"gt=0"`
}

// DefaultWeights favours climate fit over light, UV and temperature, with
// region and cost as tie-breakers.
func DefaultWeights() Weights {
	return Weights{
		Temperature: 15,
		Affinity:    30,
		Light:       25,
		UV:          20,
		Region:      10,
		Cost:        10,
		TempScaleC:  5,
		CostScale:   5,
		LowLightLux: 10000,
	}
}

// LoadWeightsFromFile loads weights from a JSON file. Fields absent from the
// file keep their default values.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, &apperr.ConfigError{Source: path, Err: fmt.Errorf("read weights file: %w", err)}
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return w, &apperr.ConfigError{Source: path, Err: fmt.Errorf("unmarshal weights: %w", err)}
	}
	if err := w.Validate(); err != nil {
		return DefaultWeights(), &apperr.ConfigError{Source: path, Err: err}
	}
	return w, nil
}

var validate = validator.New()

// Validate rejects negative coefficients and non-positive scales.
func (w Weights) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	if w.total() == 0 {
		return fmt.Errorf("at least one weight must be > 0")
	}
	return nil
}

// vector returns the coefficients in component order.
func (w Weights) vector() []float64 {
	return []float64{w.Temperature, w.Affinity, w.Light, w.UV, w.Region, w.Cost}
}

func (w Weights) total() float64 {
	return w.Temperature + w.Affinity + w.Light + w.UV + w.Region + w.Cost
}
