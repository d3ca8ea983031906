package catalog

import "strings"

// Availability levels used in Fruit.Availability.
const (
	AvailabilityHigh   = "high"
	AvailabilityMedium = "medium"
	AvailabilityLow    = "low"
)

const regionGlobal = "global"

var countryRegions = map[string]string{}

func init() {
	groups := map[string][]string{
		"europe":        {"GB", "UK", "FR", "DE", "IT", "ES", "NL", "BE", "SE", "CH", "NO", "DK", "IE", "PL", "PT", "AT"},
		"north_america": {"US", "USA", "CA", "MX"},
		"asia":          {"IN", "CN", "JP", "SG", "TH", "MY", "ID", "VN", "PH", "PK", "BD", "KR"},
		"africa":        {"ZA", "NG", "EG", "MA", "KE"},
		"south_america": {"BR", "AR", "CL", "PE", "CO"},
		"oceania":       {"AU", "NZ", "FJ"},
	}
	for region, codes := range groups {
		for _, code := range codes {
			countryRegions[code] = region
		}
	}
}

// RegionForCountry maps a country code to the region keys used in fruit
// availability. Unknown codes map to "global"; an empty code maps to "".
func RegionForCountry(country string) string {
	code := strings.ToUpper(strings.TrimSpace(country))
	if code == "" {
		return ""
	}
	if r, ok := countryRegions[code]; ok {
		return r
	}
	return regionGlobal
}

// AvailabilityIn returns the fruit's availability in region, falling back
// to its global availability. Empty when unknown.
func (f Fruit) AvailabilityIn(region string) string {
	if region == "" || f.Availability == nil {
		return ""
	}
	if v, ok := f.Availability[region]; ok {
		return v
	}
	return f.Availability[regionGlobal]
}
