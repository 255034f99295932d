package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/epidemic"
)

var modelTitles = map[string]string{
	epidemic.VariantSEIR:       "SEIR Model",
	epidemic.VariantDistancing: "SEIR Model with Social Distancing",
	epidemic.VariantDetention:  "SEIR Model with Fast Detention",
}

// paramOrder is the order rate constants appear in titles.
var paramOrder = []string{
	epidemic.ParamAlpha, epidemic.ParamBeta, epidemic.ParamGamma, epidemic.ParamRho,
	epidemic.ParamNu, epidemic.ParamDelta, epidemic.ParamLambda, epidemic.ParamKappa,
}

// Title names the model and lists its rate constants, for example
// "SEIR Model with Social Distancing (alpha=0.2, beta=1.75, gamma=0.5, rho=0.8)".
func Title(model string, params map[string]float64) string {
	name, ok := modelTitles[model]
	if !ok {
		name = model
	}

	parts := make([]string, 0, len(params))
	for _, k := range paramOrder {
		if v, ok := params[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", k, v))
		}
	}
	if len(parts) == 0 {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(parts, ", "))
}

// Legends returns display names for compartments, falling back to the
// symbol for unknown ones.
func Legends(compartments []string) []string {
	out := make([]string, len(compartments))
	for i, c := range compartments {
		if long, ok := epidemic.LongNames[c]; ok {
			out[i] = long
		} else {
			out[i] = c
		}
	}
	return out
}
