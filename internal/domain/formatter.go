package domain

import "math"

// FormatDensity rounds a density-like magnitude to roughly three
// significant figures, with precision depending on scale:
//
//	value >= 100     → nearest integer   (255, 1234, 15421)
//	10 <= value < 100 → 1 decimal place   (15.6)
//	1 <= value < 10   → 2 decimal places  (1.94)
//	value < 1         → 3 decimal places  (0.123)
//
// Halves round away from zero (math.Round semantics). NaN passes through
// so callers can keep propagating the missing-value marker.
func FormatDensity(value float64) float64 {
	if math.IsNaN(value) {
		return value
	}
	switch {
	case value >= 100:
		return math.Round(value)
	case value >= 10:
		return roundTo(value, 1)
	case value >= 1:
		return roundTo(value, 2)
	default:
		return roundTo(value, 3)
	}
}

// roundTo rounds to the given number of decimal places, halves away from zero.
func roundTo(value float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(value*pow) / pow
}
