package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/episim/internal/dynamo"
)

// Euler is the explicit forward Euler scheme: x' = x + dt*f(x).
// It is conditionally stable; large dt relative to the rates makes
// compartments overshoot, and that overshoot is returned as is.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, dyn.Derive(x, t))
	return next
}
