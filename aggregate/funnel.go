// api/aggregate/funnel.go
package aggregate

import "math"

// Round1 rounds to one decimal place, half away from zero. Never truncates.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Rate is the funnel abandonment rate: the percentage of sessions entering a
// stage that did not reach its completion event. Defined as 0 when no session
// entered. Completing counts above entering can happen with dropped beacons
// (a completion without its matching start); those clamp to 0 rather than
// going negative.
func Rate(entering, completing uint64) float64 {
	if entering == 0 || completing >= entering {
		return 0
	}
	return Round1(float64(entering-completing) / float64(entering) * 100)
}

// Conversion is the inverse reading of the same funnel: the percentage of
// entering sessions that did complete.
func Conversion(entering, completing uint64) float64 {
	if entering == 0 {
		return 0
	}
	if completing >= entering {
		return 100
	}
	return Round1(float64(completing) / float64(entering) * 100)
}
