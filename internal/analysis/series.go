package analysis

import (
	"fmt"

	"github.com/san-kum/episim/internal/dynamo"
)

// Series returns the named compartment's values over time.
func Series(r *dynamo.Result, compartment string) ([]float64, error) {
	i := r.Index(compartment)
	if i < 0 {
		return nil, fmt.Errorf("unknown compartment %q (have %v)", compartment, r.Compartments)
	}
	return r.Series(i), nil
}

// LocalMaxima returns the indices of strict interior maxima.
func LocalMaxima(xs []float64) []int {
	var out []int
	for k := 1; k < len(xs)-1; k++ {
		if xs[k] > xs[k-1] && xs[k] > xs[k+1] {
			out = append(out, k)
		}
	}
	return out
}

func IsNonIncreasing(xs []float64, tol float64) bool {
	for k := 1; k < len(xs); k++ {
		if xs[k] > xs[k-1]+tol {
			return false
		}
	}
	return true
}

func IsNonDecreasing(xs []float64, tol float64) bool {
	for k := 1; k < len(xs); k++ {
		if xs[k] < xs[k-1]-tol {
			return false
		}
	}
	return true
}

// ArgMax returns the index and value of the largest element, or -1 for an
// empty slice.
func ArgMax(xs []float64) (int, float64) {
	if len(xs) == 0 {
		return -1, 0
	}
	best := 0
	for k := 1; k < len(xs); k++ {
		if xs[k] > xs[best] {
			best = k
		}
	}
	return best, xs[best]
}
