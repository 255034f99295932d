package epidemic

import (
	"fmt"

	"github.com/san-kum/episim/internal/dynamo"
)

// Model is an immutable rate model: a flux network plus the parameter set it
// was built from. It implements dynamo.System.
type Model struct {
	name   string
	net    *Network
	params map[string]float64
}

func newModel(name string, compartments []string, fluxes []Flux, params map[string]float64) (*Model, error) {
	net, err := NewNetwork(compartments, fluxes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Model{name: name, net: net, params: params}, nil
}

func (m *Model) Name() string { return m.name }

func (m *Model) StateDim() int { return len(m.net.compartments) }

func (m *Model) Compartments() []string { return m.net.Compartments() }

func (m *Model) Network() *Network { return m.net }

func (m *Model) Params() map[string]float64 {
	out := make(map[string]float64, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

func (m *Model) Derive(x dynamo.State, _ float64) dynamo.State {
	return m.net.Derive(x)
}

// Validate rejects vectors of the wrong length and vectors holding negative
// or non-finite values.
func (m *Model) Validate(x dynamo.State) error {
	if len(x) != m.StateDim() {
		return fmt.Errorf("%w: %s expects %d compartments, got %d", dynamo.ErrDimensionMismatch, m.name, m.StateDim(), len(x))
	}
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	for i, v := range x {
		if v < 0 {
			return fmt.Errorf("%w: %s = %g", dynamo.ErrNegativeCompartment, m.net.compartments[i], v)
		}
	}
	return nil
}

// Rates is the checked form of Derive.
func (m *Model) Rates(x dynamo.State) (dynamo.State, error) {
	if err := m.Validate(x); err != nil {
		return nil, err
	}
	return m.net.Derive(x), nil
}
