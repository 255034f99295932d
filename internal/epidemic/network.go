package epidemic

import (
	"errors"
	"fmt"

	"github.com/san-kum/episim/internal/dynamo"
)

var (
	ErrUnknownCompartment   = errors.New("epidemic: unknown compartment")
	ErrDuplicateCompartment = errors.New("epidemic: duplicate compartment")
	ErrDuplicateFlux        = errors.New("epidemic: duplicate flux")
	ErrSelfFlux             = errors.New("epidemic: flux source and target are the same")
)

// RateFunc returns the magnitude of a flux for state x.
type RateFunc func(x dynamo.State) float64

// Flux moves Rate(x) per unit time from compartment From to compartment To.
type Flux struct {
	Name string
	From string
	To   string
	Rate RateFunc
}

type Network struct {
	compartments []string
	index        map[string]int
	fluxes       []Flux
	from, to     []int
}

// NewNetwork validates the flux table against the compartment list. Every
// compartment must take part in at least one flux; one that does not has no
// rate equation and the network is rejected as underspecified.
func NewNetwork(compartments []string, fluxes []Flux) (*Network, error) {
	n := &Network{
		compartments: append([]string(nil), compartments...),
		index:        make(map[string]int, len(compartments)),
		fluxes:       append([]Flux(nil), fluxes...),
		from:         make([]int, len(fluxes)),
		to:           make([]int, len(fluxes)),
	}

	for i, c := range compartments {
		if c == "" {
			return nil, fmt.Errorf("%w: empty name at position %d", ErrUnknownCompartment, i)
		}
		if _, ok := n.index[c]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCompartment, c)
		}
		n.index[c] = i
	}

	touched := make([]bool, len(compartments))
	names := make(map[string]bool, len(fluxes))
	for i, f := range fluxes {
		if names[f.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFlux, f.Name)
		}
		names[f.Name] = true

		if f.Rate == nil {
			return nil, fmt.Errorf("%w: flux %s has no rate expression", dynamo.ErrUnderspecified, f.Name)
		}
		from, ok := n.index[f.From]
		if !ok {
			return nil, fmt.Errorf("%w: flux %s source %q", ErrUnknownCompartment, f.Name, f.From)
		}
		to, ok := n.index[f.To]
		if !ok {
			return nil, fmt.Errorf("%w: flux %s target %q", ErrUnknownCompartment, f.Name, f.To)
		}
		if from == to {
			return nil, fmt.Errorf("%w: flux %s on %s", ErrSelfFlux, f.Name, f.From)
		}

		n.from[i], n.to[i] = from, to
		touched[from], touched[to] = true, true
	}

	for i, ok := range touched {
		if !ok {
			return nil, fmt.Errorf("%w: compartment %s has no flux terms", dynamo.ErrUnderspecified, compartments[i])
		}
	}

	return n, nil
}

// Derive sums every flux into the rate vector: subtracted from its source,
// added to its target.
func (n *Network) Derive(x dynamo.State) dynamo.State {
	dx := make(dynamo.State, len(n.compartments))
	for i, f := range n.fluxes {
		r := f.Rate(x)
		dx[n.from[i]] -= r
		dx[n.to[i]] += r
	}
	return dx
}

// Flows returns the magnitude of every flux for state x, in table order.
func (n *Network) Flows(x dynamo.State) []float64 {
	out := make([]float64, len(n.fluxes))
	for i, f := range n.fluxes {
		out[i] = f.Rate(x)
	}
	return out
}

func (n *Network) Compartments() []string {
	return append([]string(nil), n.compartments...)
}

// Index returns the position of compartment name, or -1.
func (n *Network) Index(name string) int {
	if i, ok := n.index[name]; ok {
		return i
	}
	return -1
}

func (n *Network) FluxNames() []string {
	out := make([]string, len(n.fluxes))
	for i, f := range n.fluxes {
		out[i] = f.Name
	}
	return out
}
