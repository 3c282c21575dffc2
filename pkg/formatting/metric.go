// Package formatting renders large production figures the way the overlay shows them:
// engineering-scaled values with metric prefix names, digit counts that keep a fast
// counter visibly ticking, and coarse human durations.
package formatting

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of significant digits used by Metric.
const DefaultPrecision = 4

// Display markers for values that have no meaningful number.
const (
	Undefined = "undefined"
	Unknown   = "?"
	Infinite  = "∞"
)

// ErrNonPositive is returned when a digit count is requested for a value that is
// zero, negative or not finite.
var ErrNonPositive = errors.New("value must be positive and finite")

var prefixes = []string{"", "kilo", "mega", "giga", "tera", "peta", "exa", "zetta", "yotta"}

// tierFloors[k] is 1000^k. Literal constants keep the boundaries exact.
var tierFloors = []float64{1, 1e3, 1e6, 1e9, 1e12, 1e15, 1e18, 1e21, 1e24}

// PrefixTier returns the ladder index for value: floor(log10(|value|)/3), clamped to
// the ladder. Values below 1 (including 0) use the unprefixed tier.
func PrefixTier(value float64) int {
	abs := math.Abs(value)
	tier := 0
	for tier+1 < len(tierFloors) && abs >= tierFloors[tier+1] {
		tier++
	}
	return tier
}

// MetricPrefixed displays a number with its metric prefix, e.g. 12345678 -> "12.35 mega".
//
// With fixed set, precision is the number of decimal places; otherwise it is the number
// of significant digits. Zero renders as "0 ".
func MetricPrefixed(value float64, precision int, fixed bool) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Undefined
	}
	if value == 0 {
		return "0 "
	}

	tier := PrefixTier(value)
	scaled := value / tierFloors[tier]

	var s string
	if fixed {
		s = ToFixed(scaled, precision)
	} else {
		s = ToPrecision(scaled, precision)
	}
	return s + " " + prefixes[tier]
}

// Metric is MetricPrefixed with the default significant-digit precision.
func Metric(value float64) string {
	return MetricPrefixed(value, DefaultPrecision, false)
}

// EnoughDigits reports how many decimal places large needs, once expressed in
// engineering notation, so that its last digit has the same scale as the leading digit
// of small.
//
// EnoughDigits(12345678, 54321) == 2 because the '4' in 12.34e6 lines up with the '5'
// in 54321. Used to show a running total in enough detail to watch it tick up.
func EnoughDigits(large, small float64) (int, error) {
	if !positiveFinite(large) || !positiveFinite(small) {
		return 0, ErrNonPositive
	}

	largeDigits := decimalDigits(large)
	smallDigits := decimalDigits(small)
	if smallDigits >= largeDigits {
		return 0, nil
	}

	rootDigit := ((largeDigits-1)/3)*3 + 1
	if rootDigit < smallDigits {
		return 0, nil
	}
	return rootDigit - smallDigits, nil
}

// decimalDigits returns ceil(log10(n)) for n > 0, corrected against exact powers of ten.
func decimalDigits(n float64) int {
	d := int(math.Ceil(math.Log10(n)))
	for math.Pow10(d) < n {
		d++
	}
	for math.Pow10(d-1) >= n {
		d--
	}
	return d
}

// DescribeTimePerUnit says how many minutes it takes to make a zillion cookies, where a
// zillion is the smallest power of 1000 that brings the answer to at least one minute.
//
// 10 cookies per second is 1.67 minutes per kilocookie.
func DescribeTimePerUnit(ratePerSecond float64) string {
	if !positiveFinite(ratePerSecond) {
		return Undefined
	}

	minutes := 1 / ratePerSecond / 60
	prefix := ""
	for i := 1; minutes < 1 && i < len(prefixes); i++ {
		minutes *= 1000
		prefix = prefixes[i]
	}
	return ToPrecision(minutes, 3) + " minutes per " + prefix + "cookie"
}

// ToPrecision formats x with p significant digits, switching to exponent notation
// ("1.235e+7") when the exponent is below -6 or not smaller than p.
func ToPrecision(x float64, p int) string {
	if p < 1 {
		p = 1
	}
	if p > 100 {
		p = 100
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Undefined
	}
	if x == 0 {
		return strconv.FormatFloat(0, 'f', p-1, 64)
	}

	sci := strconv.FormatFloat(x, 'e', p-1, 64)
	idx := strings.IndexByte(sci, 'e')
	mantissa, expPart := sci[:idx], sci[idx+1:]
	exp, err := strconv.Atoi(expPart)
	if err != nil {
		return sci
	}

	if exp < -6 || exp >= p {
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		return mantissa + "e" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(x, 'f', p-1-exp, 64)
}

// ToFixed formats x with exactly places digits after the decimal point.
func ToFixed(x float64, places int) string {
	if places < 0 {
		places = 0
	}
	if places > 100 {
		places = 100
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Undefined
	}
	return strconv.FormatFloat(x, 'f', places, 64)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
