package catalog

// Climate affinity tags. The same names are used for the weather condition
// buckets the scoring engine derives.
const (
	TagHot          = "hot"
	TagMild         = "mild"
	TagCold         = "cold"
	TagHighHumidity = "high_humidity"
	TagDry          = "dry"
	TagCloudy       = "cloudy"
	TagClear        = "clear"
	TagHighUV       = "high_uv"
	TagLowUV        = "low_uv"
)

// TemperatureRange is the ideal operating range in degrees Celsius.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fruit is an immutable catalog record describing one electrolyte candidate.
type Fruit struct {
	Name              string            `json:"name"`
	ScientificName    string            `json:"scientific_name,omitempty"`
	PH                float64           `json:"ph"`
	Conductivity      float64           `json:"conductivity"`
	CostPerKg         float64           `json:"cost_per_kg"`
	ClimateAffinity   []string          `json:"climate_affinity"`
	CompatibleDevices []string          `json:"compatible_devices"`
	TemperatureRange  TemperatureRange  `json:"temperature_range"`
	UVActivation      float64           `json:"uv_activation"`
	LowLightEff       float64           `json:"low_light_efficiency"`
	HighUVEff         float64           `json:"high_uv_efficiency"`
	PowerDensity      float64           `json:"power_density_per_sqft"`
	JuicePerSqftML    float64           `json:"juice_ml_per_sqft"`
	ResinRatio        float64           `json:"resin_ratio"`
	CuringTimeHours   int               `json:"curing_time_hours"`
	Complexity        string            `json:"complexity"`
	LifespanMonths    int               `json:"lifespan_months"`
	Availability      map[string]string `json:"availability,omitempty"`
}

// HasAffinity reports whether the fruit carries the given climate tag.
func (f Fruit) HasAffinity(tag string) bool {
	for _, t := range f.ClimateAffinity {
		if t == tag {
			return true
		}
	}
	return false
}

// clone returns a deep copy so callers cannot mutate catalog state.
func (f Fruit) clone() Fruit {
	out := f
	out.ClimateAffinity = append([]string(nil), f.ClimateAffinity...)
	out.CompatibleDevices = append([]string(nil), f.CompatibleDevices...)
	if f.Availability != nil {
		out.Availability = make(map[string]string, len(f.Availability))
		for k, v := range f.Availability {
			out.Availability[k] = v
		}
	}
	return out
}

// Device is a load with a documented power draw.
type Device struct {
	Name        string  `json:"name"`
	PowerWatts  float64 `json:"power_watts"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
}

// PanelCategory groups panel-scale devices with a typical daily runtime.
type PanelCategory struct {
	Key               string  `json:"key"`
	Name              string  `json:"name"`
	MinWatts          float64 `json:"min_watts"`
	MaxWatts          float64 `json:"max_watts"`
	DailyRuntimeHours float64 `json:"daily_runtime_hours"`
}
