package core

import (
	"encoding/json"
	"math"
)

// NullFloat is a float that may be undefined, e.g. a ratio over zero sales
// or a mean over no values. It encodes to JSON null when not Valid.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps v, treating NaN and ±Inf as undefined.
func Float(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullFloat{}
	}
	return NullFloat{Float64: v, Valid: true}
}

// OrNaN returns the value, or NaN when undefined.
func (n NullFloat) OrNaN() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}

func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}
