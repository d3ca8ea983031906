package common

import (
	"math"
	"strings"
)

// HasAny returns true if s contains any of the substrings, ignoring case.
func HasAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// NormalizeCity folds a city name into the form used for cache keys and
// mock lookups: trimmed, lower case, inner whitespace collapsed.
func NormalizeCity(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(city)), " ")
}

// ParseBool interprets the loose truthy/falsy spellings accepted from
// query strings and environment variables. ok is false when s is empty or
// not recognised.
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
