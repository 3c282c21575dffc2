package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateEMA returns the latest exponential moving average of values over
// length points, or nil with no data.
//
//	EMA_today = value_today * k + EMA_yesterday * (1 - k), k = 2 / (length + 1)
//
// With fewer than length points it falls back to the simple mean.
func CalculateEMA(values []float64, length int) *float64 {
	if len(values) == 0 || length <= 0 {
		return nil
	}

	if length == 1 {
		last := values[len(values)-1]
		return &last
	}
	if len(values) < length {
		sma := Mean(values)
		return &sma
	}

	ema := talib.Ema(values, length)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	sma := Mean(values[len(values)-length:])
	return &sma
}
