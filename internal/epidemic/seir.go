package epidemic

import (
	"fmt"
	"sort"

	"github.com/san-kum/episim/internal/dynamo"
)

// Compartment names.
const (
	Protected   = "P"
	Susceptible = "S"
	Exposed     = "E"
	Infected    = "I"
	Quarantined = "Q"
	Recovered   = "R"
	Detained    = "D"
)

// Variant names.
const (
	VariantSEIR       = "seir"
	VariantDistancing = "seir_distancing"
	VariantDetention  = "seir_detention"
)

// SEIRCompartments is the ordering used by NewSEIR and NewDistancingSEIR.
var SEIRCompartments = []string{Susceptible, Exposed, Infected, Recovered}

// DetentionCompartments is the ordering used by NewDetentionSEIR.
var DetentionCompartments = []string{Protected, Susceptible, Exposed, Infected, Quarantined, Recovered, Detained}

// LongNames maps compartment symbols to legend labels.
var LongNames = map[string]string{
	Protected:   "Protected",
	Susceptible: "Susceptible",
	Exposed:     "Exposed",
	Infected:    "Infected",
	Quarantined: "Quarantined",
	Recovered:   "Recovered",
	Detained:    "Detained",
}

const (
	sS = iota
	sE
	sI
	sR
)

const (
	dP = iota
	dS
	dE
	dI
	dQ
	dR
	dD
)

// NewSEIR builds the base model:
//
//	dS = -beta*S*I
//	dE =  beta*S*I - alpha*E
//	dI =  alpha*E - gamma*I
//	dR =  gamma*I
func NewSEIR(p BaseParams) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", VariantSEIR, err)
	}
	return newModel(VariantSEIR, SEIRCompartments, seirFluxes(p, 1), p.Map())
}

// NewDistancingSEIR is NewSEIR with the exposure term scaled by rho.
func NewDistancingSEIR(p DistancingParams) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", VariantDistancing, err)
	}
	return newModel(VariantDistancing, SEIRCompartments, seirFluxes(p.BaseParams, p.Rho), p.Map())
}

func seirFluxes(p BaseParams, rho float64) []Flux {
	contact := rho * p.Beta
	return []Flux{
		{Name: "exposure", From: Susceptible, To: Exposed, Rate: func(x dynamo.State) float64 {
			return contact * x[sS] * x[sI]
		}},
		{Name: "incubation", From: Exposed, To: Infected, Rate: func(x dynamo.State) float64 {
			return p.Alpha * x[sE]
		}},
		{Name: "recovery", From: Infected, To: Recovered, Rate: func(x dynamo.State) float64 {
			return p.Gamma * x[sI]
		}},
	}
}

// NewDetentionSEIR builds the seven compartment fast-detention model:
//
//	dP = nu*S
//	dS = -rho*beta*S*I - nu*S
//	dE =  rho*beta*S*I - alpha*E
//	dI = (1-delta)*alpha*E - gamma*I
//	dQ =  delta*alpha*E - (lambda+kappa)*Q
//	dR =  gamma*I + lambda*Q
//	dD =  kappa*Q
func NewDetentionSEIR(p DetentionParams) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", VariantDetention, err)
	}

	contact := p.Rho * p.Beta
	fluxes := []Flux{
		{Name: "protection", From: Susceptible, To: Protected, Rate: func(x dynamo.State) float64 {
			return p.Nu * x[dS]
		}},
		{Name: "exposure", From: Susceptible, To: Exposed, Rate: func(x dynamo.State) float64 {
			return contact * x[dS] * x[dI]
		}},
		{Name: "incubation", From: Exposed, To: Infected, Rate: func(x dynamo.State) float64 {
			return (1 - p.Delta) * p.Alpha * x[dE]
		}},
		{Name: "detection", From: Exposed, To: Quarantined, Rate: func(x dynamo.State) float64 {
			return p.Delta * p.Alpha * x[dE]
		}},
		{Name: "recovery", From: Infected, To: Recovered, Rate: func(x dynamo.State) float64 {
			return p.Gamma * x[dI]
		}},
		{Name: "release", From: Quarantined, To: Recovered, Rate: func(x dynamo.State) float64 {
			return p.Lambda * x[dQ]
		}},
		{Name: "detention", From: Quarantined, To: Detained, Rate: func(x dynamo.State) float64 {
			return p.Kappa * x[dQ]
		}},
	}
	return newModel(VariantDetention, DetentionCompartments, fluxes, p.Map())
}

var builders = map[string]func(map[string]float64) (*Model, error){
	VariantSEIR: func(m map[string]float64) (*Model, error) {
		v, err := lookup(m, ParamAlpha, ParamBeta, ParamGamma)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", VariantSEIR, err)
		}
		return NewSEIR(BaseParams{Alpha: v[0], Beta: v[1], Gamma: v[2]})
	},
	VariantDistancing: func(m map[string]float64) (*Model, error) {
		v, err := lookup(m, ParamAlpha, ParamBeta, ParamGamma, ParamRho)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", VariantDistancing, err)
		}
		return NewDistancingSEIR(DistancingParams{
			BaseParams: BaseParams{Alpha: v[0], Beta: v[1], Gamma: v[2]},
			Rho:        v[3],
		})
	},
	VariantDetention: func(m map[string]float64) (*Model, error) {
		v, err := lookup(m, ParamAlpha, ParamBeta, ParamGamma, ParamRho, ParamNu, ParamDelta, ParamLambda, ParamKappa)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", VariantDetention, err)
		}
		return NewDetentionSEIR(DetentionParams{
			Alpha: v[0], Beta: v[1], Gamma: v[2], Rho: v[3],
			Nu: v[4], Delta: v[5], Lambda: v[6], Kappa: v[7],
		})
	},
}

// Build constructs the named variant from a parameter map. Keys the variant
// does not use are ignored; missing keys are an error.
func Build(variant string, params map[string]float64) (*Model, error) {
	b, ok := builders[variant]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", variant)
	}
	return b(params)
}

// Variants lists the names accepted by Build.
func Variants() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompartmentsOf returns the compartment ordering of a variant.
func CompartmentsOf(variant string) ([]string, error) {
	switch variant {
	case VariantSEIR, VariantDistancing:
		return append([]string(nil), SEIRCompartments...), nil
	case VariantDetention:
		return append([]string(nil), DetentionCompartments...), nil
	}
	return nil, fmt.Errorf("unknown model: %s", variant)
}
