package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/metrics"
)

type Registry struct {
	models      map[string]func(map[string]float64) (dynamo.System, error)
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func(map[string]float64) (dynamo.System, error)),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	for _, name := range epidemic.Variants() {
		variant := name
		r.models[variant] = func(params map[string]float64) (dynamo.System, error) {
			return epidemic.Build(variant, params)
		}
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

func (r *Registry) GetModel(name string, params map[string]float64) (dynamo.System, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(params)
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// IntegratorFactory returns the constructor itself, for callers that need
// one fresh integrator per concurrent run.
func (r *Registry) IntegratorFactory(name string) (func() dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

// DefaultMetrics tracks conservation, range violations, the infection peak
// and the final epidemic size for whichever of I and R the model has.
func (r *Registry) DefaultMetrics(compartments []string) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewPopulationDrift(),
		metrics.NewBounds(),
	}
	for i, c := range compartments {
		switch c {
		case epidemic.Infected:
			ms = append(ms, metrics.NewPeak(i, c), metrics.NewPeakTime(i, c))
		case epidemic.Quarantined:
			ms = append(ms, metrics.NewPeak(i, c))
		case epidemic.Recovered, epidemic.Detained:
			ms = append(ms, metrics.NewFinal(i, c))
		}
	}
	return ms
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
