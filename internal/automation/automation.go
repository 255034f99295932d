package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/experiment"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. It starts from Preset when given (or the
// defaults) and applies Overrides on top.
type ScenarioStep struct {
	Name      string         `yaml:"name"`
	Model     string         `yaml:"model"`
	Preset    string         `yaml:"preset"`
	Overrides map[string]any `yaml:"overrides"`
}

// StepResult pairs a step with its trajectory and resolved configuration.
type StepResult struct {
	Name   string
	Config *config.Config
	Params map[string]float64
	Result *dynamo.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&scenario); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the run configuration of a step. Overrides use the same
// keys as a config file, or dotted paths such as "params.rho"; unknown keys
// are an error.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Preset != "" {
		p := config.GetPreset(cfg.Model, s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s for model %s", s.Preset, cfg.Model)
		}
		cfg = p
	}

	if len(s.Overrides) > 0 {
		if err := config.ApplyOverrides(cfg, s.Overrides); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		slog.Info("running step", "scenario", scenario.Name, "step", name, "index", i+1, "of", len(scenario.Steps))

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}

		model, err := registry.GetModel(cfg.Model, cfg.GetParams())
		if err != nil {
			return results, fmt.Errorf("step %s: %w", name, err)
		}
		params := cfg.GetParams()
		if c, ok := model.(dynamo.Configurable); ok {
			params = c.Params()
		}

		exp, err := registry.Prepare(experiment.Config{
			Model:      cfg.Model,
			Integrator: cfg.Integrator,
			InitState:  cfg.GetInitState(),
			Dt:         cfg.Dt,
			Duration:   cfg.Duration,
			Params:     params,
		})
		if err != nil {
			return results, fmt.Errorf("step %s setup: %w", name, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %s run: %w", name, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Params: params, Result: result})
	}

	return results, nil
}
