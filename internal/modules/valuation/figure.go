package valuation

import (
	"encoding/json"
	"math"

	"github.com/aristath/comptroller/pkg/formatting"
)

// Reason says why a Figure has no value.
type Reason int

const (
	// ReasonNone marks a defined figure.
	ReasonNone Reason = iota
	// ReasonDivisionByZero marks a figure whose divisor (production or gain) was zero.
	ReasonDivisionByZero
	// ReasonUnknownKind marks an upgrade the engine cannot value or a candidate with missing figures.
	ReasonUnknownKind
)

func (r Reason) String() string {
	switch r {
	case ReasonDivisionByZero:
		return "division_by_zero"
	case ReasonUnknownKind:
		return "unknown_kind"
	default:
		return "none"
	}
}

// Figure is a calculated number that may be undefined. It never holds NaN or Inf.
type Figure struct {
	Value  float64
	Reason Reason
}

func defined(v float64) Figure {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Figure{Reason: ReasonDivisionByZero}
	}
	return Figure{Value: v}
}

func unknown() Figure {
	return Figure{Reason: ReasonUnknownKind}
}

// Ratio is num/den, undefined when den is zero or the quotient overflows.
func Ratio(num, den float64) Figure {
	if den == 0 {
		return Figure{Reason: ReasonDivisionByZero}
	}
	return defined(num / den)
}

// Ok reports whether the figure has a value.
func (f Figure) Ok() bool {
	return f.Reason == ReasonNone
}

// Scale multiplies a defined figure, leaving undefined ones untouched.
func (f Figure) Scale(k float64) Figure {
	if !f.Ok() {
		return f
	}
	return defined(f.Value * k)
}

// Format renders a defined figure with render, "∞" for a zero divisor and "?" for an unknown one.
func (f Figure) Format(render func(float64) string) string {
	switch f.Reason {
	case ReasonDivisionByZero:
		return formatting.Infinite
	case ReasonUnknownKind:
		return formatting.Unknown
	}
	return render(f.Value)
}

func (f Figure) String() string {
	return f.Format(func(v float64) string { return formatting.Decimal(v, 1) })
}

type figureJSON struct {
	Value  *float64 `json:"value"`
	Reason string   `json:"reason,omitempty"`
}

// MarshalJSON renders undefined figures as a null value with a reason.
func (f Figure) MarshalJSON() ([]byte, error) {
	if !f.Ok() {
		return json.Marshal(figureJSON{Reason: f.Reason.String()})
	}
	v := f.Value
	return json.Marshal(figureJSON{Value: &v})
}

// UnmarshalJSON reads the form MarshalJSON writes.
func (f *Figure) UnmarshalJSON(data []byte) error {
	var raw figureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Value != nil {
		*f = defined(*raw.Value)
		return nil
	}
	switch raw.Reason {
	case ReasonUnknownKind.String():
		*f = unknown()
	default:
		*f = Figure{Reason: ReasonDivisionByZero}
	}
	return nil
}
