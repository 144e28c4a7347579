// Package confidence scores how much a computed due date can be trusted given
// the number of observations behind it.
package confidence

import "math"

const (
	// Max is the ceiling for any score.
	Max = 0.95
	// DefaultIntervalCap bounds scores while estimates still lean on the plant
	// type's default interval instead of a learned per-plant interval.
	DefaultIntervalCap = 0.70
)

// Score maps an observation count to [0, Max], rounded to two decimals.
// Negative counts score as zero.
func Score(count int) float64 {
	var s float64
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		s = 0.30 + 0.05*float64(count)
	case count <= 5:
		s = 0.50 + 0.03*float64(count-2)
	case count <= 10:
		s = 0.70 + 0.02*float64(count-5)
	default:
		s = math.Min(Max, 0.90+0.01*float64(count-10))
	}
	return round2(math.Min(s, Max))
}

// Capped is Score bounded by limit.
func Capped(count int, limit float64) float64 {
	return round2(math.Min(Score(count), limit))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
