package dynamo

import (
	"fmt"
	"math"
)

// GridTolerance is the relative tolerance used when comparing grid spacings.
const GridTolerance = 1e-9

// Grid is a strictly increasing, evenly spaced sequence of times.
type Grid []float64

// NewGrid builds tMax/dt+1 evenly spaced points from 0 to tMax.
func NewGrid(tMax, dt float64) (Grid, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidGrid, dt)
	}
	if !(tMax > 0) || math.IsInf(tMax, 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: horizon must be positive and finite, got %f", ErrInvalidGrid, tMax)
	}
	steps := int(math.Round(tMax / dt))
	if steps < 1 {
		return nil, fmt.Errorf("%w: horizon %f shorter than dt %f", ErrInvalidGrid, tMax, dt)
	}
	if math.Abs(float64(steps)*dt-tMax) > GridTolerance*tMax {
		return nil, fmt.Errorf("%w: horizon %g is not a whole number of %g steps", ErrInvalidGrid, tMax, dt)
	}

	g := make(Grid, steps+1)
	for i := range g {
		g[i] = float64(i) * tMax / float64(steps)
	}
	return g, nil
}

// Spacing verifies the grid and returns its constant step.
func (g Grid) Spacing() (float64, error) {
	if len(g) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidGrid, len(g))
	}
	dt := g[1] - g[0]
	if !(dt > 0) {
		return 0, fmt.Errorf("%w: not strictly increasing at index 1", ErrInvalidGrid)
	}
	for i := 2; i < len(g); i++ {
		d := g[i] - g[i-1]
		if math.Abs(d-dt) > GridTolerance*math.Max(dt, math.Abs(g[i])) {
			return 0, fmt.Errorf("%w: spacing %g at index %d differs from %g", ErrInvalidGrid, d, i, dt)
		}
	}
	return dt, nil
}

func (g Grid) Horizon() float64 {
	if len(g) == 0 {
		return 0
	}
	return g[len(g)-1]
}
