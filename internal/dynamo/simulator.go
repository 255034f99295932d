package dynamo

import (
	"context"
	"fmt"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(dyn System, integrator Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() System { return s.dyn }

// RunConfig integrates over the grid built from cfg.Duration and cfg.Dt.
func (s *Simulator) RunConfig(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	grid, err := NewGrid(cfg.Duration, cfg.Dt)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, grid)
}

// Run advances x0 across grid with fixed-step integration and returns the
// full trajectory. Values leaving [0, N] are kept as computed; only NaN or
// Inf stops the run.
func (s *Simulator) Run(ctx context.Context, x0 State, grid Grid) (*Result, error) {
	dt, err := grid.Spacing()
	if err != nil {
		return nil, err
	}
	if err := s.validateInitial(x0); err != nil {
		return nil, err
	}

	n := len(grid)
	result := &Result{
		Compartments: s.dyn.Compartments(),
		States:       make([]State, n),
		Times:        make([]float64, n),
		Metrics:      make(map[string]float64),
		Population:   x0.Sum(),
	}
	copy(result.Times, grid)

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	result.States[0] = x
	s.observe(x, grid[0])

	for k := 0; k < n-1; k++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		next := s.integrator.Step(s.dyn, x, grid[k], dt)
		if !next.IsValid() {
			return nil, &SimulationError{Step: k + 1, Time: grid[k+1], State: next, Wrapped: ErrInvalidState}
		}

		result.States[k+1] = next
		result.StepsTaken++
		x = next
		s.observe(x, grid[k+1])
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateInitial(x0 State) error {
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d values, model expects %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return ErrInvalidState
	}
	if err := s.dyn.Validate(x0); err != nil {
		return fmt.Errorf("initial state: %w", err)
	}
	return nil
}

func (s *Simulator) observe(x State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

// RunWithCallback integrates like Run without storing the trajectory; the
// callback sees every state and stops the run by returning false.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, grid Grid, callback func(State, float64) bool) error {
	dt, err := grid.Spacing()
	if err != nil {
		return err
	}
	if err := s.validateInitial(x0); err != nil {
		return err
	}

	x := x0.Clone()
	for k := 0; k < len(grid); k++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		if !callback(x, grid[k]) || k == len(grid)-1 {
			return nil
		}

		x = s.integrator.Step(s.dyn, x, grid[k], dt)
		if !x.IsValid() {
			return &SimulationError{Step: k + 1, Time: grid[k+1], State: x, Wrapped: ErrInvalidState}
		}
	}

	return nil
}
