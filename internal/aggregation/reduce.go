package aggregation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// finite drops null (NaN) and infinite samples. Provider gaps decode as NaN.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func minMax(values []float64) (lo, hi float64, err error) {
	vs := finite(values)
	if len(vs) == 0 {
		return 0, 0, ErrEmptySeries
	}
	return floats.Min(vs), floats.Max(vs), nil
}

func mean(values []float64) (float64, error) {
	vs := finite(values)
	if len(vs) == 0 {
		return 0, ErrEmptySeries
	}
	m := stat.Mean(vs, nil)
	if !isFinite(m) {
		return 0, ErrNonFinite
	}
	return m, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// countPositive counts samples strictly greater than zero.
func countPositive(values []float64) int {
	n := 0
	for _, v := range values {
		if v > 0 {
			n++
		}
	}
	return n
}

// Round2 rounds v to two decimal digits for presentation. Callers check the
// result, since v*100 overflows for |v| near math.MaxFloat64.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
