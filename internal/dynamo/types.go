package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is a compartment vector. Position i holds the compartment named by
// the owning System's Compartments()[i].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sum returns the total population held by the vector.
func (s State) Sum() float64 {
	return floats.Sum(s)
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

// Within reports whether every value lies in [lo, hi].
func (s State) Within(lo, hi float64) bool {
	for _, v := range s {
		if v < lo || v > hi {
			return false
		}
	}
	return true
}

// Add, Sub and Scale return new vectors; operands must have equal length.
func (s State) Add(other State) State {
	result := make(State, len(s))
	floats.AddTo(result, s, other)
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	floats.SubTo(result, s, other)
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	floats.ScaleTo(result, factor, s)
	return result
}

// AddScaled performs s += alpha*other in place.
func (s State) AddScaled(alpha float64, other State) {
	floats.AddScaled(s, alpha, other)
}

// System is a rate model: for a compartment vector it returns the
// instantaneous rate of change of every compartment.
type System interface {
	// Derive evaluates the rates without checking preconditions, so that
	// integrators can keep stepping through states that drifted out of range.
	Derive(x State, t float64) State
	// Validate reports whether x is an admissible input for the model.
	Validate(x State) error
	StateDim() int
	Compartments() []string
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Configurable interface {
	Params() map[string]float64
}

type Config struct {
	Dt       float64
	Duration float64
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.1,
		Duration: 100.0,
	}
}

// Result is the trajectory of one run. States[k] is the state at Times[k].
type Result struct {
	Compartments []string
	States       []State
	Times        []float64
	Metrics      map[string]float64
	Population   float64
	StepsTaken   int
}

// Series returns the values of compartment i over time.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		out[k] = s[i]
	}
	return out
}

// Index returns the position of the named compartment, or -1.
func (r *Result) Index(name string) int {
	for i, c := range r.Compartments {
		if c == name {
			return i
		}
	}
	return -1
}

// Final returns the last state of the trajectory.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
