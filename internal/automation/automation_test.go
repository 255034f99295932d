package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
)

const script = `
name: distancing
description: the three contact levels
steps:
  - name: none
    model: seir_distancing
    preset: none
  - name: strict
    model: seir_distancing
    preset: strict
    overrides:
      duration: 50
      params:
        beta: 2.0
  - model: seir
    overrides:
      dt: 0.5
      duration: 10
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "distancing" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	if _, err := LoadScenario(writeScript(t, "name: empty\n")); err == nil {
		t.Error("expected error for scenario without steps")
	}
	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := sc.Steps[1].Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Params.Rho != 0.2 {
		t.Errorf("rho should come from the preset, got %v", cfg.Params.Rho)
	}
	if cfg.Params.Beta != 2.0 || cfg.Duration != 50 {
		t.Errorf("overrides not applied: beta=%v duration=%v", cfg.Params.Beta, cfg.Duration)
	}
	if cfg.Params.Alpha != 0.2 {
		t.Errorf("untouched params should keep preset values, got alpha=%v", cfg.Params.Alpha)
	}

	bad := ScenarioStep{Model: epidemic.VariantSEIR, Preset: "nope"}
	if _, err := bad.Resolve(); err == nil {
		t.Error("expected error for unknown preset")
	}

	invalid := ScenarioStep{Overrides: map[string]any{"dt": -1.0}}
	if _, err := invalid.Resolve(); err == nil {
		t.Error("expected validation error")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScript(t, script))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[2].Name != "step3" {
		t.Errorf("unnamed step should be numbered, got %q", results[2].Name)
	}
	if got := len(results[1].Result.Times); got != 501 {
		t.Errorf("strict step: expected 501 points, got %d", got)
	}
	if got := len(results[2].Result.Times); got != 21 {
		t.Errorf("seir step: expected 21 points, got %d", got)
	}
	if _, ok := results[2].Params[epidemic.ParamRho]; ok {
		t.Error("base model params should not list rho")
	}
}

func TestRunScenario_StopsOnFailure(t *testing.T) {
	sc := &Scenario{
		Name: "broken",
		Steps: []ScenarioStep{
			{Name: "ok", Model: epidemic.VariantSEIR, Overrides: map[string]any{"duration": 5.0}},
			{Name: "diverges", Model: epidemic.VariantSEIR, Preset: "unstable", Overrides: map[string]any{"dt": 4.0, "duration": 100.0}},
			{Name: "never", Model: epidemic.VariantSEIR},
		},
	}

	results, err := RunScenario(context.Background(), sc, experiment.NewRegistry())
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(results) != 1 || results[0].Name != "ok" {
		t.Errorf("expected only the first result, got %d", len(results))
	}
}

func TestResolve_Overrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantRho   float64
		wantDt    float64
	}{
		{"dotted param", map[string]any{"params.rho": 0.2}, 0.2, 0.1},
		{"nested param", map[string]any{"params": map[string]any{"rho": 0.2}}, 0.2, 0.1},
		{"dotted and nested", map[string]any{"params.rho": 0.2, "params": map[string]any{"beta": 2.0}, "dt": 0.5}, 0.2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := ScenarioStep{Model: epidemic.VariantDistancing, Preset: "moderate", Overrides: tt.overrides}
			cfg, err := step.Resolve()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Params.Rho != tt.wantRho || cfg.Dt != tt.wantDt {
				t.Errorf("rho=%v dt=%v, want rho=%v dt=%v", cfg.Params.Rho, cfg.Dt, tt.wantRho, tt.wantDt)
			}
		})
	}
}

func TestResolve_RejectsUnknownOverrides(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
	}{
		{"misspelled field", map[string]any{"dtt": 5.0}},
		{"misspelled param", map[string]any{"params.rhoo": 0.2}},
		{"unknown section", map[string]any{"solver.tol": 1e-6}},
		{"dotted into scalar", map[string]any{"dt.value": 0.5}},
		{"set twice", map[string]any{"params.rho": 0.2, "params": map[string]any{"rho": 0.3}}},
		{"empty segment", map[string]any{"params..rho": 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := ScenarioStep{Model: epidemic.VariantDistancing, Preset: "moderate", Overrides: tt.overrides}
			if _, err := step.Resolve(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadScenario_UnknownKey(t *testing.T) {
	body := `
name: typo
steps:
  - model: seir
    overides:
      dt: 0.5
`
	if _, err := LoadScenario(writeScript(t, body)); err == nil {
		t.Error("expected error for misspelled step key")
	}
}
