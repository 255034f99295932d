package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/episim/internal/dynamo"
)

// RK4 is the classic fixed-step fourth order Runge-Kutta scheme. The stage
// buffers are reused between steps, so one instance must not be shared
// between goroutines.
type RK4 struct {
	stages [4]dynamo.State
	probe  dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.probe) == n {
		return
	}
	for i := range r.stages {
		r.stages[i] = make(dynamo.State, n)
	}
	r.probe = make(dynamo.State, n)
}

// stage evaluates the rates at x + h*prev into r.stages[i].
func (r *RK4) stage(i int, dyn dynamo.System, x, prev dynamo.State, t, h float64) {
	floats.AddScaledTo(r.probe, x, h, prev)
	copy(r.stages[i], dyn.Derive(r.probe, t+h))
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	r.resize(len(x))
	k := &r.stages

	copy(k[0], dyn.Derive(x, t))
	r.stage(1, dyn, x, k[0], t, dt/2)
	r.stage(2, dyn, x, k[1], t, dt/2)
	r.stage(3, dyn, x, k[2], t, dt)

	next := x.Clone()
	floats.AddScaled(next, dt/6, k[0])
	floats.AddScaled(next, dt/3, k[1])
	floats.AddScaled(next, dt/3, k[2])
	floats.AddScaled(next, dt/6, k[3])
	return next
}
