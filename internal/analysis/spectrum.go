package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// RingingThreshold is the high-band energy share above which a series is
// treated as step-to-step oscillation rather than epidemic dynamics.
const RingingThreshold = 0.5

// PowerSpectrum returns |X_k| for the non-negative frequencies of the
// mean-removed series.
func PowerSpectrum(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	centered := make([]float64, len(xs))
	copy(centered, xs)
	floats.AddConst(-floats.Sum(xs)/float64(len(xs)), centered)

	spec := fft.FFTReal(centered)
	ps := make([]float64, len(spec)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spec[i])
	}
	return ps
}

// HighBandRatio is the share of spectral energy above half the Nyquist
// frequency. Forward Euler past its stability limit alternates sign
// from one step to the next, which puts nearly all energy near Nyquist; a
// smooth epidemic curve keeps it near zero. A constant series returns 0.
func HighBandRatio(xs []float64) float64 {
	ps := PowerSpectrum(xs)
	if len(ps) < 2 {
		return 0
	}

	var total, high float64
	nyquist := len(ps) - 1
	for k := 1; k < len(ps); k++ {
		e := ps[k] * ps[k]
		total += e
		if 2*k > nyquist {
			high += e
		}
	}
	if total == 0 {
		return 0
	}
	return high / total
}
