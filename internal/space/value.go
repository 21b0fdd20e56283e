package space

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a tunable parameter.
type Kind int

const (
	Integer Kind = iota
	Continuous
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Continuous:
		return "continuous"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Value is one concrete parameter value. Numeric kinds use Num, categorical
// ones use Label. Values are comparable with ==.
type Value struct {
	Kind  Kind
	Num   float64
	Label string
}

// IntValue returns an integer value.
func IntValue(v int64) Value {
	return Value{Kind: Integer, Num: float64(v)}
}

// FloatValue returns a continuous value.
func FloatValue(v float64) Value {
	return Value{Kind: Continuous, Num: v}
}

// LabelValue returns a categorical value.
func LabelValue(v string) Value {
	return Value{Kind: Categorical, Label: v}
}

// String renders the value the way it is passed on the command line:
// integers in decimal, floats in their shortest form with a fractional part
// (2.0, 0.25), labels verbatim.
func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(int64(math.Round(v.Num)), 10)
	case Continuous:
		s := strconv.FormatFloat(v.Num, 'f', -1, 64)
		if !strings.ContainsAny(s, ".NI") {
			s += ".0"
		}
		return s
	default:
		return v.Label
	}
}

// Interface returns the value as a plain Go value for JSON/YAML encoding.
func (v Value) Interface() any {
	switch v.Kind {
	case Integer:
		return int64(math.Round(v.Num))
	case Continuous:
		return v.Num
	default:
		return v.Label
	}
}

// Assignment maps parameter names to values.
type Assignment map[string]Value

// Clone returns an independent copy of the assignment.
func (a Assignment) Clone() Assignment {
	if a == nil {
		return nil
	}
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Equal reports whether both assignments hold the same names and values.
func (a Assignment) Equal(b Assignment) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || v != w {
			return false
		}
	}
	return true
}
