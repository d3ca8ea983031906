package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/bio-photo/internal/apperr"
)

//go:embed fruits.json
var defaultData []byte

const defaultSource = "embedded fruits.json"

var validate = validator.New()

// fruitRecord is the wire shape of a fruit. Required numeric fields are
// pointers so a missing key is distinguishable from an explicit zero.
type fruitRecord struct {
	Name              string            `json:"name" validate:"required"`
	ScientificName    string            `json:"scientific_name"`
	PH                *float64          `json:"ph" validate:"required,gte=0,lte=14"`
	Conductivity      *float64          `json:"conductivity" validate:"required,gte=0"`
	CostPerKg         *float64          `json:"cost_per_kg" validate:"required,gte=0"`
	ClimateAffinity   []string          `json:"climate_affinity" validate:"required,min=1,dive,oneof=hot mild cold high_humidity dry cloudy clear high_uv low_uv"`
	CompatibleDevices []string          `json:"compatible_devices" validate:"dive,required"`
	TemperatureRange  *TemperatureRange `json:"temperature_range" validate:"required"`
	UVActivation      float64           `json:"uv_activation" validate:"gte=0,lte=15"`
	LowLightEff       float64           `json:"low_light_efficiency" validate:"gte=0,lte=1"`
	HighUVEff         float64           `json:"high_uv_efficiency" validate:"gte=0,lte=1"`
	PowerDensity      float64           `json:"power_density_per_sqft" validate:"gte=0"`
	JuicePerSqftML    float64           `json:"juice_ml_per_sqft" validate:"gte=0"`
	ResinRatio        float64           `json:"resin_ratio" validate:"gte=0,lte=1"`
	CuringTimeHours   int               `json:"curing_time_hours" validate:"gte=0"`
	Complexity        string            `json:"complexity" validate:"omitempty,oneof=simple moderate complex"`
	LifespanMonths    int               `json:"lifespan_months" validate:"gte=0"`
	Availability      map[string]string `json:"availability" validate:"dive,keys,required,endkeys,oneof=high medium low"`
}

type deviceRecord struct {
	Name        string   `json:"name" validate:"required"`
	PowerWatts  *float64 `json:"power_watts" validate:"required,gt=0"`
	Category    string   `json:"category" validate:"required,oneof=micro small medium large"`
	Description string   `json:"description"`
}

type catalogFile struct {
	Fruits          []fruitRecord   `json:"fruits"`
	Devices         []deviceRecord  `json:"devices"`
	PanelCategories []PanelCategory `json:"panel_categories"`
}

// LoadDefault loads the catalog compiled into the binary.
func LoadDefault() (*Catalog, error) {
	return Parse(defaultData, defaultSource)
}

// LoadFile loads a catalog from a JSON file on disk.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.ConfigError{Source: path, Err: fmt.Errorf("read catalog file: %w", err)}
	}
	return Parse(b, path)
}

// Parse decodes and validates catalog JSON. Any problem is reported as an
// *apperr.ConfigError naming the offending record.
func Parse(data []byte, source string) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, &apperr.ConfigError{Source: source, Err: fmt.Errorf("decode catalog: %w", err)}
	}

	if len(file.Fruits) == 0 {
		return nil, &apperr.ConfigError{Source: source, Field: "fruits", Err: errors.New("catalog has no fruits")}
	}
	for i := range file.Fruits {
		if err := validate.Struct(file.Fruits[i]); err != nil {
			return nil, validationError(source, recordName(file.Fruits[i].Name, i), err)
		}
	}
	for i := range file.Devices {
		if err := validate.Struct(file.Devices[i]); err != nil {
			return nil, validationError(source, recordName(file.Devices[i].Name, i), err)
		}
	}

	devices := make([]Device, 0, len(file.Devices))
	deviceIdx := make(map[string]int, len(file.Devices))
	for _, d := range file.Devices {
		key := strings.ToLower(d.Name)
		if _, dup := deviceIdx[key]; dup {
			return nil, &apperr.ConfigError{Source: source, Field: d.Name, Err: errors.New("duplicate device name")}
		}
		deviceIdx[key] = len(devices)
		devices = append(devices, Device{
			Name:        d.Name,
			PowerWatts:  *d.PowerWatts,
			Category:    d.Category,
			Description: d.Description,
		})
	}

	fruits := make([]Fruit, 0, len(file.Fruits))
	seen := make(map[string]struct{}, len(file.Fruits))
	for _, r := range file.Fruits {
		key := strings.ToLower(r.Name)
		if _, dup := seen[key]; dup {
			return nil, &apperr.ConfigError{Source: source, Field: r.Name, Err: errors.New("duplicate fruit name")}
		}
		seen[key] = struct{}{}

		if r.TemperatureRange.Min > r.TemperatureRange.Max {
			return nil, &apperr.ConfigError{Source: source, Field: r.Name + ".temperature_range", Err: errors.New("min is greater than max")}
		}
		for _, dn := range r.CompatibleDevices {
			if _, ok := deviceIdx[strings.ToLower(dn)]; !ok {
				return nil, &apperr.ConfigError{Source: source, Field: r.Name + ".compatible_devices", Err: fmt.Errorf("unknown device %q", dn)}
			}
		}

		fruits = append(fruits, Fruit{
			Name:              r.Name,
			ScientificName:    r.ScientificName,
			PH:                *r.PH,
			Conductivity:      *r.Conductivity,
			CostPerKg:         *r.CostPerKg,
			ClimateAffinity:   r.ClimateAffinity,
			CompatibleDevices: r.CompatibleDevices,
			TemperatureRange:  *r.TemperatureRange,
			UVActivation:      r.UVActivation,
			LowLightEff:       r.LowLightEff,
			HighUVEff:         r.HighUVEff,
			PowerDensity:      r.PowerDensity,
			JuicePerSqftML:    r.JuicePerSqftML,
			ResinRatio:        r.ResinRatio,
			CuringTimeHours:   r.CuringTimeHours,
			Complexity:        r.Complexity,
			LifespanMonths:    r.LifespanMonths,
			Availability:      r.Availability,
		})
	}
	sort.Slice(fruits, func(i, j int) bool { return fruits[i].Name < fruits[j].Name })

	panels := append([]PanelCategory(nil), file.PanelCategories...)
	for _, p := range panels {
		if p.Key == "" || p.DailyRuntimeHours < 0 || p.MinWatts > p.MaxWatts {
			return nil, &apperr.ConfigError{Source: source, Field: "panel_categories." + p.Key, Err: errors.New("invalid panel category")}
		}
	}

	return newCatalog(fruits, devices, panels), nil
}

func recordName(name string, i int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", i)
}

func validationError(source, record string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &apperr.ConfigError{
			Source: source,
			Field:  record + "." + fe.Field(),
			Err:    fmt.Errorf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &apperr.ConfigError{Source: source, Field: record, Err: err}
}
