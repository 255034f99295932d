package epidemic

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

func constant(v float64) RateFunc {
	return func(dynamo.State) float64 { return v }
}

func TestNewNetworkErrors(t *testing.T) {
	abc := []string{"A", "B", "C"}

	tests := []struct {
		name         string
		compartments []string
		fluxes       []Flux
		want         error
	}{
		{"duplicate compartment", []string{"A", "A"}, nil, ErrDuplicateCompartment},
		{"empty compartment", []string{"A", ""}, nil, ErrUnknownCompartment},
		{"unknown source", abc, []Flux{{Name: "f", From: "X", To: "A", Rate: constant(1)}}, ErrUnknownCompartment},
		{"unknown target", abc, []Flux{{Name: "f", From: "A", To: "X", Rate: constant(1)}}, ErrUnknownCompartment},
		{"self flux", abc, []Flux{{Name: "f", From: "A", To: "A", Rate: constant(1)}}, ErrSelfFlux},
		{"duplicate flux", abc, []Flux{
			{Name: "f", From: "A", To: "B", Rate: constant(1)},
			{Name: "f", From: "B", To: "C", Rate: constant(1)},
		}, ErrDuplicateFlux},
		{"nil rate", abc, []Flux{
			{Name: "f", From: "A", To: "B"},
			{Name: "g", From: "B", To: "C", Rate: constant(1)},
		}, dynamo.ErrUnderspecified},
		{"untouched compartment", abc, []Flux{{Name: "f", From: "A", To: "B", Rate: constant(1)}}, dynamo.ErrUnderspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNetwork(tt.compartments, tt.fluxes)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNetworkDeriveConserves(t *testing.T) {
	net, err := NewNetwork([]string{"A", "B", "C"}, []Flux{
		{Name: "ab", From: "A", To: "B", Rate: func(x dynamo.State) float64 { return 0.3 * x[0] * x[2] }},
		{Name: "bc", From: "B", To: "C", Rate: func(x dynamo.State) float64 { return 0.7 * x[1] }},
		{Name: "ca", From: "C", To: "A", Rate: constant(0.05)},
	})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	x := dynamo.State{0.5, 0.2, 0.3}
	dx := net.Derive(x)

	if math.Abs(dx.Sum()) > 1e-15 {
		t.Errorf("rates sum to %v, want 0", dx.Sum())
	}

	ab, bc := 0.3*0.5*0.3, 0.7*0.2
	want := dynamo.State{-ab + 0.05, ab - bc, bc - 0.05}
	for i := range want {
		if math.Abs(dx[i]-want[i]) > 1e-15 {
			t.Errorf("dx[%d] = %v, want %v", i, dx[i], want[i])
		}
	}

	flows := net.Flows(x)
	if len(flows) != 3 || math.Abs(flows[1]-bc) > 1e-15 {
		t.Errorf("unexpected flows %v", flows)
	}
	if got := net.FluxNames(); got[0] != "ab" || got[2] != "ca" {
		t.Errorf("unexpected flux names %v", got)
	}
	if net.Index("C") != 2 || net.Index("Z") != -1 {
		t.Error("Index lookup failed")
	}
}

func TestNetworkCopiesInputs(t *testing.T) {
	compartments := []string{"A", "B"}
	net, err := NewNetwork(compartments, []Flux{{Name: "ab", From: "A", To: "B", Rate: constant(1)}})
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	compartments[0] = "Z"
	if net.Compartments()[0] != "A" {
		t.Error("network aliases caller's compartment slice")
	}
}
