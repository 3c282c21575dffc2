// Package formulas provides the statistics used for production trends.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or 0 for no data.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation, or 0 for fewer than two points.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Rates turns a cumulative series into per-second rates between consecutive
// points. Pairs with no elapsed time are skipped.
func Rates(values []float64, seconds []float64) []float64 {
	n := len(values)
	if len(seconds) < n {
		n = len(seconds)
	}
	var out []float64
	for i := 1; i < n; i++ {
		dt := seconds[i] - seconds[i-1]
		if dt <= 0 {
			continue
		}
		out = append(out, (values[i]-values[i-1])/dt)
	}
	return out
}

func isNaN(v float64) bool {
	return math.IsNaN(v)
}
