package epidemic

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

func TestParamsValidate(t *testing.T) {
	base := BaseParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5}
	det := DetentionParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5, Rho: 0.8, Nu: 0.01, Delta: 0.3, Lambda: 0.1, Kappa: 0.01}

	tests := []struct {
		name  string
		check func() error
		ok    bool
	}{
		{"base valid", base.Validate, true},
		{"base zero", BaseParams{}.Validate, true},
		{"negative alpha", BaseParams{Alpha: -0.1, Beta: 1, Gamma: 1}.Validate, false},
		{"negative beta", BaseParams{Alpha: 0.1, Beta: -1, Gamma: 1}.Validate, false},
		{"negative gamma", BaseParams{Alpha: 0.1, Beta: 1, Gamma: -1}.Validate, false},
		{"NaN beta", BaseParams{Alpha: 0.1, Beta: math.NaN(), Gamma: 1}.Validate, false},
		{"rho one", DistancingParams{BaseParams: base, Rho: 1}.Validate, true},
		{"rho zero", DistancingParams{BaseParams: base, Rho: 0}.Validate, true},
		{"rho above one", DistancingParams{BaseParams: base, Rho: 1.2}.Validate, false},
		{"rho negative", DistancingParams{BaseParams: base, Rho: -0.2}.Validate, false},
		{"distancing bad base", DistancingParams{BaseParams: BaseParams{Gamma: -1}, Rho: 0.5}.Validate, false},
		{"detention valid", det.Validate, true},
		{"detention delta above one", func() error { p := det; p.Delta = 1.5; return p.Validate() }, false},
		{"detention negative nu", func() error { p := det; p.Nu = -0.01; return p.Validate() }, false},
		{"detention negative kappa", func() error { p := det; p.Kappa = -1; return p.Validate() }, false},
		{"detention negative lambda", func() error { p := det; p.Lambda = -1; return p.Validate() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestParamsMap(t *testing.T) {
	p := DistancingParams{BaseParams: BaseParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5}, Rho: 0.8}
	m := p.Map()

	if len(m) != 4 || m[ParamRho] != 0.8 || m[ParamBeta] != 1.75 {
		t.Errorf("unexpected map %v", m)
	}

	keys := SortedKeys(m)
	want := []string{"alpha", "beta", "gamma", "rho"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("SortedKeys = %v, want %v", keys, want)
		}
	}
}
