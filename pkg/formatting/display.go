package formatting

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Commas renders v rounded to a whole number with thousands separators.
func Commas(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	return humanize.Commaf(math.Round(v))
}

// Decimal renders v with thousands separators and the given number of decimal places.
func Decimal(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	if places < 0 {
		places = 0
	}
	if math.Abs(v) >= 1e15 {
		return ToFixed(v, places)
	}
	return humanize.FormatFloat("#,###."+strings.Repeat("#", places), v)
}

// CoarseDuration buckets a number of seconds into a friendly estimate: a few seconds,
// then 5-second steps below 100 seconds, 5-minute steps below 90 minutes, hours below
// 40 hours, days below 20 days and weeks beyond.
func CoarseDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return Undefined
	}

	switch {
	case seconds < 10:
		return "a few seconds"
	case seconds < 100:
		return about(roundTo(seconds, 5), "second")
	case seconds < 90*60:
		return about(roundTo(seconds/60, 5), "minute")
	case seconds < 40*3600:
		return about(roundTo(seconds/3600, 1), "hour")
	case seconds < 20*86400:
		return about(roundTo(seconds/86400, 1), "day")
	default:
		return about(roundTo(seconds/(7*86400), 1), "week")
	}
}

// roundTo rounds v to the nearest multiple of step, never below one step.
func roundTo(v float64, step float64) int {
	n := int(math.Round(v/step) * step)
	if n < int(step) {
		n = int(step)
	}
	return n
}

func about(n int, unit string) string {
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("about %d %s", n, unit)
}
