package weather

import (
	"hash/fnv"
	"strings"
	"time"

	"github.com/i474232898/bio-photo/internal/common"
)

// mockPresets are hand-picked readings for demo cities.
var mockPresets = map[string]WeatherSnapshot{
	"london":  {Country: "GB", TemperatureC: 15, HumidityPct: 75, CloudCoverPct: 68, UVIndex: 2, LightLux: 5000, ClimateZone: ZoneTemperate, Condition: ConditionCloudy},
	"miami":   {Country: "US", TemperatureC: 28, HumidityPct: 80, CloudCoverPct: 25, UVIndex: 8, LightLux: 85000, ClimateZone: ZoneTropical, Condition: ConditionClear},
	"tokyo":   {Country: "JP", TemperatureC: 18, HumidityPct: 70, CloudCoverPct: 45, UVIndex: 5, LightLux: 65000, ClimateZone: ZoneTemperate, Condition: ConditionCloudy},
	"jalgaon": {Country: "IN", TemperatureC: 32, HumidityPct: 55, CloudCoverPct: 40, UVIndex: 9, LightLux: 90000, ClimateZone: ZoneTropical, Condition: ConditionClear},
	"mulshi":  {Country: "IN", TemperatureC: 21, HumidityPct: 65, CloudCoverPct: 50, UVIndex: 4, LightLux: 50000, ClimateZone: ZoneTemperate, Condition: ConditionCloudy},
}

var mockZones = []string{ZoneTropical, ZoneSubtropical, ZoneTemperate}

// MockSnapshot returns deterministic synthetic weather for a location.
// Known demo cities use fixed presets; any other city is derived from a
// hash of its normalized name, so the same city always yields the same
// values. Only Timestamp varies between calls.
func MockSnapshot(loc Location, now time.Time) WeatherSnapshot {
	key := common.NormalizeCity(loc.City)

	snap, ok := mockPresets[key]
	if !ok {
		snap = hashedSnapshot(key)
	}
	snap.City = strings.TrimSpace(loc.City)
	if loc.Country != "" {
		snap.Country = loc.Country
	}
	snap.Source = SourceMock
	snap.Timestamp = now.UTC()
	return snap
}

func hashedSnapshot(key string) WeatherSnapshot {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	seed := h.Sum64()

	// Each field takes its own slice of the hash bits.
	next := func(bits uint, span float64) float64 {
		v := float64(seed&((1<<bits)-1)) / float64((uint64(1)<<bits)-1)
		seed >>= bits
		return v * span
	}

	temp := common.Round(-5+next(10, 43), 1)
	humidity := common.Round(25+next(10, 70), 0)
	cloud := common.Round(next(10, 100), 0)
	uv := common.Round(next(8, 11), 1)
	zone := mockZones[seed%uint64(len(mockZones))]

	cond := ConditionClear
	switch {
	case cloud > 85 && humidity > 80:
		cond = ConditionRain
	case cloud > 60:
		cond = ConditionCloudy
	case temp < 0 && cloud > 40:
		cond = ConditionSnow
	}

	return WeatherSnapshot{
		TemperatureC:  temp,
		HumidityPct:   humidity,
		CloudCoverPct: cloud,
		UVIndex:       uv,
		LightLux:      lightIntensity(&uv, cloud),
		ClimateZone:   zone,
		Condition:     cond,
	}
}
