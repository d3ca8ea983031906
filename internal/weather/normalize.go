package weather

import (
	"math"
	"strings"
	"time"

	"github.com/i474232898/bio-photo/internal/common"
)

// Climate zones derived from latitude.
const (
	ZoneTropical    = "tropical"
	ZoneSubtropical = "subtropical"
	ZoneTemperate   = "temperate"
)

// clear-sky UV assumed per zone when a backend does not report UV.
var clearSkyUV = map[string]float64{
	ZoneTropical:    10,
	ZoneSubtropical: 8,
	ZoneTemperate:   5,
}

// ClimateZoneForLatitude buckets a latitude into a coarse climate zone.
func ClimateZoneForLatitude(lat float64) string {
	a := math.Abs(lat)
	switch {
	case a < 23:
		return ZoneTropical
	case a <= 40:
		return ZoneSubtropical
	default:
		return ZoneTemperate
	}
}

// SnapshotFromReading normalizes one provider reading into a WeatherSnapshot.
// Percentages are clamped to [0,100]; missing UV is estimated from cloud
// cover and climate zone.
func SnapshotFromReading(loc Location, r ProviderReading) WeatherSnapshot {
	zone := ZoneTemperate
	if r.Lat != nil {
		zone = ClimateZoneForLatitude(*r.Lat)
	}

	cloud := common.Clamp(r.CloudCoverPct, 0, 100)
	humidity := common.Clamp(r.HumidityPct, 0, 100)

	var uv float64
	estimated := false
	if r.UVIndex != nil {
		uv = math.Max(0, *r.UVIndex)
	} else {
		uv = common.Round(clearSkyUV[zone]*(1-0.75*cloud/100), 1)
		estimated = true
	}

	ts := r.Timestamp.UTC()
	if r.Timestamp.IsZero() {
		ts = time.Now().UTC()
	}

	city := strings.TrimSpace(r.ResolvedCity)
	if city == "" {
		city = loc.City
	}
	country := r.Country
	if country == "" {
		country = loc.Country
	}

	cond := r.Condition
	if cond == "" {
		cond = ConditionUnknown
	}

	return WeatherSnapshot{
		City:          city,
		Country:       strings.ToUpper(country),
		TemperatureC:  r.TemperatureC,
		HumidityPct:   humidity,
		CloudCoverPct: cloud,
		UVIndex:       uv,
		UVEstimated:   estimated,
		LightLux:      lightIntensity(r.UVIndex, cloud),
		ClimateZone:   zone,
		Condition:     cond,
		Timestamp:     ts,
		Source:        r.ProviderName,
	}
}

// lightIntensity approximates illuminance in lux: from UV when the backend
// reports it, otherwise from cloud cover with a diffuse-light floor.
func lightIntensity(uv *float64, cloud float64) float64 {
	if uv != nil {
		return math.Min(120000, math.Max(0, *uv)*10000)
	}
	return math.Max(1000, 100000-cloud*1000)
}
