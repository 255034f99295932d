package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/episim/internal/dynamo"
)

type Config struct {
	Model      string
	Integrator string
	InitState  []float64
	Dt         float64
	Duration   float64
	Params     map[string]float64
}

type Experiment struct {
	cfg       Config
	simulator *dynamo.Simulator
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Prepare resolves the model and integrator named in cfg through the
// registry and installs the default metrics.
func (r *Registry) Prepare(cfg Config) (*Experiment, error) {
	dyn, err := r.GetModel(cfg.Model, cfg.Params)
	if err != nil {
		return nil, err
	}
	integrator, err := r.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	exp := New(cfg)
	if err := exp.Setup(dyn, integrator, r.DefaultMetrics(dyn.Compartments())); err != nil {
		return nil, err
	}
	return exp, nil
}

func (e *Experiment) Setup(dyn dynamo.System, integrator dynamo.Integrator, metrics []dynamo.Metric) error {
	if dyn == nil || integrator == nil {
		return fmt.Errorf("experiment needs a model and an integrator")
	}
	e.simulator = dynamo.New(dyn, integrator)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Config() Config {
	return e.cfg
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	x0 := make(dynamo.State, len(e.cfg.InitState))
	copy(x0, e.cfg.InitState)

	simCfg := dynamo.Config{
		Dt:       e.cfg.Dt,
		Duration: e.cfg.Duration,
	}

	start := time.Now()
	result, err := e.simulator.RunConfig(ctx, x0, simCfg)
	if err != nil {
		slog.Debug("run failed", "model", e.cfg.Model, "error", err)
		return nil, err
	}
	slog.Debug("run finished",
		"model", e.cfg.Model,
		"integrator", e.cfg.Integrator,
		"steps", result.StepsTaken,
		"elapsed", time.Since(start),
	)
	return result, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}
