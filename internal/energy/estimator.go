package energy

import (
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/weather"
)

// Installation describes the series/parallel array that reaches the
// reference load, and the materials to build it.
type Installation struct {
	Series          int     `json:"series"`
	Parallel        int     `json:"parallel"`
	TotalCells      int     `json:"total_cells"`
	Feasible        bool    `json:"feasible"`
	ArrayVoltage    float64 `json:"array_voltage"`
	ArrayCurrent    float64 `json:"array_current"`
	ArrayPowerWatts float64 `json:"array_power_watts"`
	JuiceML         float64 `json:"juice_ml"`
	ResinML         float64 `json:"resin_ml"`
	MaterialCost    float64 `json:"material_cost"`
	CuringTimeHours int     `json:"curing_time_hours"`
	Complexity      string  `json:"complexity"`
	LifespanMonths  int     `json:"lifespan_months"`
}

// EnergyEstimate is the single-cell output for one fruit under one snapshot.
type EnergyEstimate struct {
	ID                  string                  `json:"id"`
	FruitName           string                  `json:"fruit_name"`
	Weather             weather.WeatherSnapshot `json:"weather"`
	EstimatedVoltage    float64                 `json:"estimated_voltage"`
	EstimatedCurrent    float64                 `json:"estimated_current"`
	EstimatedPowerWatts float64                 `json:"estimated_power_watts"`
	EfficiencyFactor    float64                 `json:"efficiency_factor"`
	Installation        Installation            `json:"installation_requirements"`
	CompatibleDevices   []catalog.Device        `json:"compatible_devices"`
	Panel               *PanelOutput            `json:"panel,omitempty"`
}

// Estimator derives electrical output from fruit chemistry and weather.
// It is stateless apart from its catalog reference.
type Estimator struct {
	cat    *catalog.Catalog
	params Params
	log    zerolog.Logger
}

func NewEstimator(cat *catalog.Catalog, params Params, log zerolog.Logger) *Estimator {
	return &Estimator{
		cat:    cat,
		params: params,
		log:    log.With().Str("component", "energy").Logger(),
	}
}

// Params returns the constants in use.
func (e *Estimator) Params() Params {
	return e.params
}

// Estimate computes voltage, current and power for a single cell, the array
// needed to reach the reference load, and the fruit's devices the cell can run.
// The fruit's values are used as given; its name must exist in the catalog.
func (e *Estimator) Estimate(fruit catalog.Fruit, w weather.WeatherSnapshot) (EnergyEstimate, error) {
	if _, ok := e.cat.Lookup(fruit.Name); !ok {
		return EnergyEstimate{}, apperr.InvalidArgument("unknown fruit %q", fruit.Name)
	}

	v := e.Voltage(fruit)
	i := e.Current(fruit)
	eff := e.Efficiency(w.TemperatureC)
	power := v * i * eff

	est := EnergyEstimate{
		ID:                  uuid.NewString(),
		FruitName:           fruit.Name,
		Weather:             w,
		EstimatedVoltage:    common.Round(v, 4),
		EstimatedCurrent:    common.Round(i, 6),
		EstimatedPowerWatts: common.Round(power, 6),
		EfficiencyFactor:    common.Round(eff, 3),
		Installation:        e.installation(fruit, v, i*eff),
		CompatibleDevices:   e.devicesWithin(fruit, power),
	}

	e.log.Debug().
		Str("fruit", fruit.Name).
		Float64("temperature_c", w.TemperatureC).
		Float64("voltage", est.EstimatedVoltage).
		Float64("power_watts", est.EstimatedPowerWatts).
		Int("cells", est.Installation.TotalCells).
		Msg("energy estimated")

	return est, nil
}

// Voltage is the open-circuit voltage of one cell. Never negative.
func (e *Estimator) Voltage(f catalog.Fruit) float64 {
	p := e.params
	return math.Max(0, p.BaseVoltage+p.NernstSlope*(7-f.PH)+p.ConductivityVoltage*f.Conductivity)
}

// Current is the short-circuit current of one cell at reference temperature.
func (e *Estimator) Current(f catalog.Fruit) float64 {
	return math.Max(0, f.Conductivity) * e.params.CellAreaCm2 * e.params.CurrentDensity
}

// Efficiency scales output with temperature (ionic mobility), bounded.
func (e *Estimator) Efficiency(tempC float64) float64 {
	p := e.params
	return common.Clamp(1+p.TempCoefficient*(tempC-p.ReferenceTempC), p.MinEfficiency, p.MaxEfficiency)
}

func (e *Estimator) installation(f catalog.Fruit, cellV, cellI float64) Installation {
	p := e.params
	inst := Installation{
		CuringTimeHours: f.CuringTimeHours,
		Complexity:      f.Complexity,
		LifespanMonths:  f.LifespanMonths,
	}
	if cellV <= 0 || cellI <= 0 {
		return inst
	}

	inst.Series = ceilDiv(p.TargetVoltage, cellV)
	inst.Parallel = ceilDiv(p.TargetCurrent, cellI)
	inst.TotalCells = inst.Series * inst.Parallel
	inst.Feasible = true

	arrayV := float64(inst.Series) * cellV
	arrayI := float64(inst.Parallel) * cellI
	inst.ArrayVoltage = common.Round(arrayV, 3)
	inst.ArrayCurrent = common.Round(arrayI, 5)
	inst.ArrayPowerWatts = common.Round(arrayV*arrayI, 5)

	juice := float64(inst.TotalCells) * p.JuicePerCellML
	resin := juice * f.ResinRatio
	inst.JuiceML = math.Round(juice)
	inst.ResinML = math.Round(resin)
	inst.MaterialCost = materialCost(juice, resin, f.CostPerKg, p.ResinCostPerL)
	return inst
}

// ceilDiv rounds target/unit up to a whole cell count, at least 1.
func ceilDiv(target, unit float64) int {
	n := int(math.Ceil(target/unit - 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// materialCost prices juice by weight (1 L ≈ 1 kg) plus resin per litre.
func materialCost(juiceML, resinML, costPerKg, resinPerL float64) float64 {
	return common.Round(juiceML/1000*costPerKg+resinML/1000*resinPerL, 2)
}

// devicesWithin keeps the fruit's listed devices whose documented draw fits.
func (e *Estimator) devicesWithin(f catalog.Fruit, power float64) []catalog.Device {
	out := make([]catalog.Device, 0, len(f.CompatibleDevices))
	for _, name := range f.CompatibleDevices {
		d, ok := e.cat.Device(name)
		if !ok || d.PowerWatts > power {
			continue
		}
		out = append(out, d)
	}
	return out
}
