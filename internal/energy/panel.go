package energy

import (
	"sort"

	"github.com/i474232898/bio-photo/internal/apperr"
	"github.com/i474232898/bio-photo/internal/catalog"
	"github.com/i474232898/bio-photo/internal/common"
	"github.com/i474232898/bio-photo/internal/weather"
)

// Activation states of a panel.
const (
	ActivationActive = "ACTIVE"
	ActivationLow    = "LOW"
)

// PanelDevice is a panel-scale load the panel can run, with its daily runtime.
type PanelDevice struct {
	Name         string  `json:"name"`
	PowerWatts   float64 `json:"power_watts"`
	Category     string  `json:"category"`
	RuntimeHours float64 `json:"runtime_hours"`
}

// PanelMaterials is the juice/resin bill for a coated panel.
type PanelMaterials struct {
	JuiceML         float64 `json:"juice_ml"`
	ResinML         float64 `json:"resin_ml"`
	MaterialCost    float64 `json:"material_cost"`
	CuringTimeHours int     `json:"curing_time_hours"`
	Complexity      string  `json:"complexity"`
	LifespanMonths  int     `json:"lifespan_months"`
}

// PanelOutput is the output of a fruit-coated panel of a given area.
type PanelOutput struct {
	PanelSizeSqft    float64        `json:"panel_size_sqft"`
	CurrentPower     float64        `json:"current_power"`
	DailyEnergy      float64        `json:"daily_energy"`
	MonthlyEnergy    float64        `json:"monthly_energy"`
	WeatherFactor    float64        `json:"weather_factor"`
	LightFactor      float64        `json:"light_factor"`
	ActivationStatus string         `json:"activation_status"`
	Materials        PanelMaterials `json:"materials"`
	Devices          []PanelDevice  `json:"devices"`
}

// EstimatePanel models a panel of sizeSqft coated with the fruit:
// density × size × weather factor × UV activation × light factor. An empty
// category considers every panel device category.
func (e *Estimator) EstimatePanel(fruit catalog.Fruit, w weather.WeatherSnapshot, sizeSqft float64, category string) (PanelOutput, error) {
	if _, ok := e.cat.Lookup(fruit.Name); !ok {
		return PanelOutput{}, apperr.InvalidArgument("unknown fruit %q", fruit.Name)
	}
	if sizeSqft <= 0 {
		return PanelOutput{}, apperr.InvalidArgument("panel_size must be > 0, got %g", sizeSqft)
	}
	if category != "" {
		if _, ok := e.cat.PanelCategory(category); !ok {
			return PanelOutput{}, apperr.InvalidArgument("unknown device category %q", category)
		}
	}

	p := e.params

	weatherFactor := fruit.HighUVEff
	if w.CloudCoverPct > p.PanelCloudyPct {
		weatherFactor = fruit.LowLightEff
	}

	activation := 1.0
	if w.UVIndex < fruit.UVActivation {
		activation = p.LowActivationFactor
	}

	light := common.Clamp(w.LightLux/p.FullSunLux, 0, 1)

	power := fruit.PowerDensity * sizeSqft * weatherFactor * activation * light

	status := ActivationActive
	if activation <= 0.5 {
		status = ActivationLow
	}

	juice := fruit.JuicePerSqftML * sizeSqft
	resin := juice * fruit.ResinRatio

	return PanelOutput{
		PanelSizeSqft:    sizeSqft,
		CurrentPower:     common.Round(power, 2),
		DailyEnergy:      common.Round(power*p.PanelGenerationHours, 2),
		MonthlyEnergy:    common.Round(power*p.PanelGenerationHours*p.DaysPerMonth, 2),
		WeatherFactor:    common.Round(weatherFactor, 2),
		LightFactor:      common.Round(light, 2),
		ActivationStatus: status,
		Materials: PanelMaterials{
			JuiceML:         common.Round(juice, 0),
			ResinML:         common.Round(resin, 0),
			MaterialCost:    materialCost(juice, resin, fruit.CostPerKg, p.ResinCostPerL),
			CuringTimeHours: fruit.CuringTimeHours,
			Complexity:      fruit.Complexity,
			LifespanMonths:  fruit.LifespanMonths,
		},
		Devices: e.panelDevices(power, category),
	}, nil
}

// panelDevices lists panel-category devices the power covers, cheapest draw first.
func (e *Estimator) panelDevices(power float64, category string) []PanelDevice {
	out := []PanelDevice{}
	for _, pc := range e.cat.PanelCategories() {
		if category != "" && pc.Key != category {
			continue
		}
		for _, d := range e.cat.DevicesInCategory(pc.Key) {
			if d.PowerWatts <= 0 || d.PowerWatts > power {
				continue
			}
			out = append(out, PanelDevice{
				Name:         d.Name,
				PowerWatts:   d.PowerWatts,
				Category:     pc.Key,
				RuntimeHours: common.Round(power/d.PowerWatts*pc.DailyRuntimeHours, 1),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PowerWatts < out[j].PowerWatts })
	return out
}
