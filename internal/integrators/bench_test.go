package integrators

import (
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

// benchChain is a seven compartment linear chain, the size of the
// detention model.
type benchChain struct{}

func (b *benchChain) StateDim() int                 { return 7 }
func (b *benchChain) Validate(x dynamo.State) error { return nil }
func (b *benchChain) Compartments() []string {
	return []string{"P", "S", "E", "I", "Q", "R", "D"}
}
func (b *benchChain) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, 7)
	for i := 0; i < 6; i++ {
		f := 0.1 * x[i]
		dx[i] -= f
		dx[i+1] += f
	}
	return dx
}

func BenchmarkEuler(b *testing.B) {
	integrator := NewEuler()
	dyn := &benchChain{}
	x := dynamo.State{0, 1, 0, 0, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}

func BenchmarkRK4(b *testing.B) {
	integrator := NewRK4()
	dyn := &benchChain{}
	x := dynamo.State{0, 1, 0, 0, 0, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integrator.Step(dyn, x, 0, 0.01)
	}
}
