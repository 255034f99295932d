package epidemic

import (
	"fmt"
	"sort"

	"github.com/san-kum/episim/internal/dynamo"
)

// Parameter names as used in configuration files and run metadata.
const (
	ParamAlpha  = "alpha"
	ParamBeta   = "beta"
	ParamGamma  = "gamma"
	ParamRho    = "rho"
	ParamNu     = "nu"
	ParamDelta  = "delta"
	ParamLambda = "lambda"
	ParamKappa  = "kappa"
)

// BaseParams are the SEIR rate constants.
type BaseParams struct {
	Alpha float64 // incubation rate, E -> I
	Beta  float64 // transmission rate
	Gamma float64 // recovery rate, I -> R
}

func (p BaseParams) Validate() error {
	if err := nonNegative(ParamAlpha, p.Alpha); err != nil {
		return err
	}
	if err := nonNegative(ParamBeta, p.Beta); err != nil {
		return err
	}
	return nonNegative(ParamGamma, p.Gamma)
}

func (p BaseParams) Map() map[string]float64 {
	return map[string]float64{ParamAlpha: p.Alpha, ParamBeta: p.Beta, ParamGamma: p.Gamma}
}

// DistancingParams scale every S*I contact by Rho: 0 is total isolation,
// 1 is no distancing.
type DistancingParams struct {
	BaseParams
	Rho float64
}

func (p DistancingParams) Validate() error {
	if err := p.BaseParams.Validate(); err != nil {
		return err
	}
	return fraction(ParamRho, p.Rho)
}

func (p DistancingParams) Map() map[string]float64 {
	m := p.BaseParams.Map()
	m[ParamRho] = p.Rho
	return m
}

// DetentionParams extend distancing with protection, fast detection and
// quarantine outflows.
type DetentionParams struct {
	Alpha  float64
	Beta   float64
	Gamma  float64
	Rho    float64
	Nu     float64 // S -> P protection rate
	Delta  float64 // fraction of incubations detected and sent E -> Q
	Lambda float64 // Q -> R release rate
	Kappa  float64 // Q -> D rate
}

func (p DetentionParams) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{ParamAlpha, p.Alpha}, {ParamBeta, p.Beta}, {ParamGamma, p.Gamma},
		{ParamNu, p.Nu}, {ParamLambda, p.Lambda}, {ParamKappa, p.Kappa},
	}
	for _, c := range checks {
		if err := nonNegative(c.name, c.v); err != nil {
			return err
		}
	}
	if err := fraction(ParamRho, p.Rho); err != nil {
		return err
	}
	return fraction(ParamDelta, p.Delta)
}

func (p DetentionParams) Map() map[string]float64 {
	return map[string]float64{
		ParamAlpha: p.Alpha, ParamBeta: p.Beta, ParamGamma: p.Gamma, ParamRho: p.Rho,
		ParamNu: p.Nu, ParamDelta: p.Delta, ParamLambda: p.Lambda, ParamKappa: p.Kappa,
	}
}

func nonNegative(name string, v float64) error {
	if !(v >= 0) {
		return fmt.Errorf("%w: %s must be non-negative, got %g", dynamo.ErrParameterBounds, name, v)
	}
	return nil
}

func fraction(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be in [0, 1], got %g", dynamo.ErrParameterBounds, name, v)
	}
	return nil
}

// lookup reads the named keys from m, failing on the first missing one.
func lookup(m map[string]float64, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := m[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing parameter %s", dynamo.ErrParameterBounds, name)
		}
		out[i] = v
	}
	return out, nil
}

// SortedKeys returns the keys of a parameter map in a stable order.
func SortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
