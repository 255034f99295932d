package dynamo

import (
	"context"
	"errors"
	"math"
	"testing"
)

// testDynamics moves mass from the first compartment to the second at rate k.
type testDynamics struct{ k float64 }

func (d *testDynamics) Derive(x State, time float64) State {
	f := d.k * x[0]
	return State{-f, f}
}

func (d *testDynamics) Validate(x State) error {
	for _, v := range x {
		if v < 0 {
			return ErrNegativeCompartment
		}
	}
	return nil
}

func (d *testDynamics) StateDim() int          { return 2 }
func (d *testDynamics) Compartments() []string { return []string{"A", "B"} }

type testIntegrator struct{}

func (t *testIntegrator) Step(dyn System, x State, time float64, dt float64) State {
	dx := dyn.Derive(x, time)
	next := x.Clone()
	next.AddScaled(dt, dx)
	return next
}

type blowUp struct{ testDynamics }

func (b *blowUp) Derive(x State, time float64) State {
	return State{math.Inf(1), 0}
}

func mustGrid(t *testing.T, tMax, dt float64) Grid {
	t.Helper()
	g, err := NewGrid(tMax, dt)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	return g
}

func TestSimulatorRun(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	x0 := State{1.0, 0.0}
	result, err := sim.Run(context.Background(), x0, mustGrid(t, 1.0, 0.1))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 {
		t.Errorf("expected 11 states, got %d", len(result.States))
	}
	if len(result.Times) != 11 {
		t.Errorf("expected 11 times, got %d", len(result.Times))
	}
	if result.StepsTaken != 10 {
		t.Errorf("expected 10 steps, got %d", result.StepsTaken)
	}

	// forward Euler on dx = -x gives (1-dt)^n exactly
	finalState := result.States[len(result.States)-1][0]
	expected := math.Pow(0.9, 10)
	if math.Abs(finalState-expected) > 1e-12 {
		t.Errorf("expected final state %.12f, got %.12f", expected, finalState)
	}

	for k, s := range result.States {
		if math.Abs(s.Sum()-1) > 1e-12 {
			t.Errorf("population drifted at step %d: %v", k, s.Sum())
		}
	}
}

func TestSimulatorInitialStateUnmodified(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	x0 := State{0.7, 0.3}
	result, err := sim.Run(context.Background(), x0, mustGrid(t, 1.0, 0.5))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.States[0][0] != 0.7 || result.States[0][1] != 0.3 {
		t.Errorf("first state altered: %v", result.States[0])
	}

	result.States[0][0] = 42
	if x0[0] != 0.7 {
		t.Error("trajectory aliases the caller's initial state")
	}
}

func TestSimulatorPreconditions(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})
	grid := mustGrid(t, 1.0, 0.1)

	tests := []struct {
		name string
		x0   State
		grid Grid
		want error
	}{
		{"short state", State{1.0}, grid, ErrDimensionMismatch},
		{"long state", State{1.0, 0, 0}, grid, ErrDimensionMismatch},
		{"negative compartment", State{1.0, -0.1}, grid, ErrNegativeCompartment},
		{"NaN compartment", State{math.NaN(), 0}, grid, ErrInvalidState},
		{"single point grid", State{1, 0}, Grid{0}, ErrInvalidGrid},
		{"uneven grid", State{1, 0}, Grid{0, 0.1, 0.25}, ErrInvalidGrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), tt.x0, tt.grid)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSimulatorRunConfigInvalid(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.RunConfig(context.Background(), State{1.0, 0}, tt.cfg)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSimulatorInvalidStateStops(t *testing.T) {
	sim := New(&blowUp{}, &testIntegrator{})

	_, err := sim.Run(context.Background(), State{1, 0}, mustGrid(t, 1.0, 0.1))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var simErr *SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected *SimulationError, got %T", err)
	}
	if simErr.Step != 1 {
		t.Errorf("expected failure at step 1, got %d", simErr.Step)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Run(ctx, State{1, 0}, mustGrid(t, 1.0, 0.1))
	if !errors.Is(err, ErrContextCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation error, got %v", err)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(x State, time float64) {
	t.count++
	t.sum += x[0]
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestSimulatorMetrics(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	metric := &testMetric{}
	sim.AddMetric(metric)

	result, err := sim.Run(context.Background(), State{1.0, 0}, mustGrid(t, 1.0, 0.1))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}

	if metric.count != 11 {
		t.Errorf("expected 11 observations, got %d", metric.count)
	}
}

func TestSimulatorRunWithCallback(t *testing.T) {
	sim := New(&testDynamics{k: 1}, &testIntegrator{})

	var seen []float64
	err := sim.RunWithCallback(context.Background(), State{1, 0}, mustGrid(t, 1.0, 0.1), func(x State, time float64) bool {
		seen = append(seen, time)
		return time < 0.45
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(seen) != 6 {
		t.Errorf("expected callback to stop after 6 calls, got %d", len(seen))
	}
}
