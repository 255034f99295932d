package config

import (
	"sort"

	"github.com/san-kum/episim/internal/epidemic"
)

// baseline rate constants shared by every scenario.
var baseline = ParamsConfig{Alpha: DefaultAlpha, Beta: DefaultBeta, Gamma: DefaultGamma, Rho: DefaultRho}

func withParams(edit func(p *ParamsConfig)) ParamsConfig {
	p := baseline
	edit(&p)
	return p
}

var Presets = map[string]map[string]*Config{
	epidemic.VariantSEIR: {
		"outbreak": {
			Model: epidemic.VariantSEIR, Integrator: "euler", Dt: 0.1, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    baseline,
		},
		"coarse": {
			Model: epidemic.VariantSEIR, Integrator: "euler", Dt: 2.0, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    baseline,
		},
		"unstable": {
			Model: epidemic.VariantSEIR, Integrator: "euler", Dt: 10.0, Duration: 30.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    baseline,
		},
	},
	epidemic.VariantDistancing: {
		"none": {
			Model: epidemic.VariantDistancing, Integrator: "euler", Dt: 0.1, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    withParams(func(p *ParamsConfig) { p.Rho = 1.0 }),
		},
		"moderate": {
			Model: epidemic.VariantDistancing, Integrator: "euler", Dt: 0.1, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    withParams(func(p *ParamsConfig) { p.Rho = 0.8 }),
		},
		"strict": {
			Model: epidemic.VariantDistancing, Integrator: "euler", Dt: 0.1, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params:    withParams(func(p *ParamsConfig) { p.Rho = 0.2 }),
		},
	},
	epidemic.VariantDetention: {
		"baseline": {
			Model: epidemic.VariantDetention, Integrator: "euler", Dt: 0.1, Duration: 100.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params: withParams(func(p *ParamsConfig) {
				p.Nu, p.Delta, p.Lambda, p.Kappa = 0.01, 0.3, 0.1, 0.01
			}),
		},
		"aggressive": {
			Model: epidemic.VariantDetention, Integrator: "euler", Dt: 0.1, Duration: 150.0, Population: 10000,
			InitState: InitStateConfig{Exposed: 1},
			Params: withParams(func(p *ParamsConfig) {
				p.Rho, p.Nu, p.Delta, p.Lambda, p.Kappa = 0.8, 0.02, 0.6, 0.1, 0.01
			}),
		},
	},
}

// GetPreset returns a copy of the named scenario, or nil if it does not
// exist.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
