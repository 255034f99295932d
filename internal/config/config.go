package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
)

const (
	DefaultDt         = 0.1
	DefaultDuration   = 100.0
	DefaultPopulation = 10000.0
	DefaultExposed    = 1.0
	DefaultAlpha      = 0.2
	DefaultBeta       = 1.75
	DefaultGamma      = 0.5
	DefaultRho        = 1.0
)

type Config struct {
	Model      string          `yaml:"model"`
	Integrator string          `yaml:"integrator"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Population float64         `yaml:"population"`
	InitState  InitStateConfig `yaml:"init_state"`
	Params     ParamsConfig    `yaml:"params"`
}

// InitStateConfig holds head counts; everyone not listed starts susceptible.
type InitStateConfig struct {
	Exposed     float64 `yaml:"exposed"`
	Infected    float64 `yaml:"infected"`
	Recovered   float64 `yaml:"recovered"`
	Protected   float64 `yaml:"protected"`
	Quarantined float64 `yaml:"quarantined"`
	Detained    float64 `yaml:"detained"`
}

type ParamsConfig struct {
	Alpha  float64 `yaml:"alpha"`
	Beta   float64 `yaml:"beta"`
	Gamma  float64 `yaml:"gamma"`
	Rho    float64 `yaml:"rho"`
	Nu     float64 `yaml:"nu"`
	Delta  float64 `yaml:"delta"`
	Lambda float64 `yaml:"lambda"`
	Kappa  float64 `yaml:"kappa"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      epidemic.VariantDistancing,
		Integrator: "euler",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Population: DefaultPopulation,
		InitState: InitStateConfig{
			Exposed: DefaultExposed,
		},
		Params: ParamsConfig{
			Alpha: DefaultAlpha,
			Beta:  DefaultBeta,
			Gamma: DefaultGamma,
			Rho:   DefaultRho,
		},
	}
}

func Load(path string) (*Config, error) {
	return Merge(path, DefaultConfig())
}

// Merge reads the file at path over a copy of base: keys present in the
// file replace base values, everything else is kept.
func Merge(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads YAML over cfg. Keys that name no field are an error, so a
// misspelled setting fails instead of silently keeping the old value.
func Decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyOverrides decodes a free-form map over cfg with the same keys as a
// config file. Dotted keys address nested fields: "params.rho" is the same
// as {params: {rho: ...}}.
func ApplyOverrides(cfg *Config, overrides map[string]any) error {
	nested, err := expandDotted(overrides)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(nested)
	if err != nil {
		return err
	}
	return Decode(data, cfg)
}

func expandDotted(flat map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(flat))
	for key, v := range flat {
		parts := strings.Split(key, ".")
		node := out
		for i, part := range parts[:len(parts)-1] {
			if part == "" {
				return nil, fmt.Errorf("override %q: empty path segment", key)
			}
			switch child := node[part].(type) {
			case nil:
				next := map[string]any{}
				node[part] = next
				node = next
			case map[string]any:
				node = child
			default:
				return nil, fmt.Errorf("override %q: %s is not a section", key, strings.Join(parts[:i+1], "."))
			}
		}

		leaf := parts[len(parts)-1]
		if leaf == "" {
			return nil, fmt.Errorf("override %q: empty path segment", key)
		}
		if sub, ok := v.(map[string]any); ok {
			expanded, err := expandDotted(sub)
			if err != nil {
				return nil, err
			}
			v = expanded
		}
		if existing, ok := node[leaf].(map[string]any); ok {
			sub, isMap := v.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("override %q: conflicts with nested keys", key)
			}
			for k, sv := range sub {
				if _, dup := existing[k]; dup {
					return nil, fmt.Errorf("override %q: %s.%s set twice", key, leaf, k)
				}
				existing[k] = sv
			}
			continue
		}
		if _, dup := node[leaf]; dup {
			return nil, fmt.Errorf("override %q: set twice", key)
		}
		node[leaf] = v
	}
	return out, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that the model constructors cannot: the grid
// and the initial head counts. Rate constants are checked when the model is
// built.
func (c *Config) Validate() error {
	if _, err := epidemic.CompartmentsOf(c.Model); err != nil {
		return err
	}
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if !(c.Population > 0) || math.IsInf(c.Population, 0) {
		return fmt.Errorf("population must be positive and finite, got %f", c.Population)
	}
	if _, err := dynamo.NewGrid(c.Duration, c.Dt); err != nil {
		return err
	}

	init := c.InitState
	for name, v := range map[string]float64{
		"exposed": init.Exposed, "infected": init.Infected, "recovered": init.Recovered,
		"protected": init.Protected, "quarantined": init.Quarantined, "detained": init.Detained,
	} {
		if !(v >= 0) {
			return fmt.Errorf("init_state.%s must be non-negative, got %f", name, v)
		}
	}
	if seeded := c.seededCount(); seeded > c.Population {
		return fmt.Errorf("initial head counts (%f) exceed population (%f)", seeded, c.Population)
	}
	return nil
}

func (c *Config) seededCount() float64 {
	i := c.InitState
	n := i.Exposed + i.Infected + i.Recovered
	if c.Model == epidemic.VariantDetention {
		n += i.Protected + i.Quarantined + i.Detained
	}
	return n
}

// GetInitState returns the initial compartment vector as population
// fractions, ordered for c.Model. The default seed of one exposed person
// gives S0 = 1-1/N, E0 = 1/N.
func (c *Config) GetInitState() []float64 {
	n := c.Population
	i := c.InitState
	s := (n - c.seededCount()) / n

	switch c.Model {
	case epidemic.VariantDetention:
		return []float64{i.Protected / n, s, i.Exposed / n, i.Infected / n, i.Quarantined / n, i.Recovered / n, i.Detained / n}
	default:
		return []float64{s, i.Exposed / n, i.Infected / n, i.Recovered / n}
	}
}

// GetParams returns the rate constants keyed by parameter name.
func (c *Config) GetParams() map[string]float64 {
	p := c.Params
	return map[string]float64{
		epidemic.ParamAlpha:  p.Alpha,
		epidemic.ParamBeta:   p.Beta,
		epidemic.ParamGamma:  p.Gamma,
		epidemic.ParamRho:    p.Rho,
		epidemic.ParamNu:     p.Nu,
		epidemic.ParamDelta:  p.Delta,
		epidemic.ParamLambda: p.Lambda,
		epidemic.ParamKappa:  p.Kappa,
	}
}

// SetParam updates one rate constant by name.
func (c *Config) SetParam(name string, value float64) error {
	switch name {
	case epidemic.ParamAlpha:
		c.Params.Alpha = value
	case epidemic.ParamBeta:
		c.Params.Beta = value
	case epidemic.ParamGamma:
		c.Params.Gamma = value
	case epidemic.ParamRho:
		c.Params.Rho = value
	case epidemic.ParamNu:
		c.Params.Nu = value
	case epidemic.ParamDelta:
		c.Params.Delta = value
	case epidemic.ParamLambda:
		c.Params.Lambda = value
	case epidemic.ParamKappa:
		c.Params.Kappa = value
	default:
		return fmt.Errorf("unknown parameter: %s", name)
	}
	return nil
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
