package contracts

import (
	"fmt"
	"math"
	"strconv"
)

// Float is a float64 that may legitimately be NaN or ±Inf (zero-denominator ratios).
// encoding/json rejects non-finite numbers, so they travel as the strings "NaN", "+Inf", "-Inf".
type Float float64

// IsFinite reports whether f is neither NaN nor infinite
func (f Float) IsFinite() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// String formats f, spelling non-finite values as NaN, +Inf, -Inf
func (f Float) String() string {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.IsFinite() {
		return []byte(strconv.Quote(f.String())), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'f', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (f *Float) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		return nil
	case `"NaN"`:
		*f = Float(math.NaN())
		return nil
	case `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid float %s: %w", string(data), err)
	}
	*f = Float(v)
	return nil
}

// Round rounds v to the given number of decimals. NaN and ±Inf pass through unchanged.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
