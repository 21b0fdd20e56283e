package utils

import (
	"math"
	"strconv"
	"strings"
)

// ClampFloat64 clamps a float64 value between min and max
func ClampFloat64(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Mean calculates the mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum calculates the sum of a slice of float64 values
func Sum(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum
}

// Round rounds a float64 to the specified number of decimal places
func Round(value float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(value*multiplier) / multiplier
}

// DecimalPlaces returns how many fractional digits the shortest decimal form
// of v has (0.05 -> 2, 5 -> 0, 1e-3 -> 3).
func DecimalPlaces(v float64) int {
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

// GridPoints returns the number of points min, min+step, ... that do not exceed max.
func GridPoints(min, max, step float64) int {
	if step <= 0 || max <= min {
		return 1
	}
	// Tolerance absorbs representation error such as (1.0-0.0)/0.1 = 9.999...
	return int(math.Floor((max-min)/step+1e-9)) + 1
}

// GridValue returns the k-th grid point, rounded to the step's precision.
func GridValue(min, step float64, k int) float64 {
	decimals := DecimalPlaces(step)
	if d := DecimalPlaces(min); d > decimals {
		decimals = d
	}
	return Round(min+float64(k)*step, decimals)
}
