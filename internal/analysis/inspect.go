package analysis

import (
	"math"

	"github.com/san-kum/episim/internal/dynamo"
)

// DriftTolerance is the relative population drift above which a run is
// reported as not conserving its population.
const DriftTolerance = 1e-9

// CompartmentSummary describes one compartment over a run.
type CompartmentSummary struct {
	Name     string
	Min      float64
	Max      float64
	PeakTime float64
	Final    float64
	// Ringing is the HighBandRatio of the compartment's series.
	Ringing float64
}

// Report is the post-hoc health check of a trajectory.
type Report struct {
	Population         float64
	Drift              float64
	Violations         int
	FirstViolation     int
	FirstViolationTime float64
	Ringing            float64
	Compartments       []CompartmentSummary
}

// Conserved reports whether the total stayed within DriftTolerance.
func (r Report) Conserved() bool { return r.Drift <= DriftTolerance }

// InRange reports whether every compartment stayed within [0, N].
func (r Report) InRange() bool { return r.Violations == 0 }

// Oscillating reports step-to-step sign alternation in any compartment.
func (r Report) Oscillating() bool { return r.Ringing > RingingThreshold }

// Stable is true when the trajectory is both conserved and in range.
func (r Report) Stable() bool { return r.Conserved() && r.InRange() }

// Inspect scans every state of r against the initial total N.
func Inspect(r *dynamo.Result) Report {
	rep := Report{FirstViolation: -1}
	if len(r.States) == 0 {
		return rep
	}

	n := r.States[0].Sum()
	rep.Population = n
	slack := 1e-12 * math.Abs(n)

	rep.Compartments = make([]CompartmentSummary, len(r.States[0]))
	for i := range rep.Compartments {
		name := ""
		if i < len(r.Compartments) {
			name = r.Compartments[i]
		}
		rep.Compartments[i] = CompartmentSummary{Name: name, Min: math.Inf(1), Max: math.Inf(-1)}
	}

	for k, s := range r.States {
		if n != 0 {
			rep.Drift = math.Max(rep.Drift, math.Abs(s.Sum()-n)/math.Abs(n))
		}
		if !s.Within(-slack, n+slack) {
			if rep.Violations == 0 {
				rep.FirstViolation = k
				if k < len(r.Times) {
					rep.FirstViolationTime = r.Times[k]
				}
			}
			rep.Violations++
		}
		for i, v := range s {
			c := &rep.Compartments[i]
			c.Min = math.Min(c.Min, v)
			if v > c.Max {
				c.Max = v
				if k < len(r.Times) {
					c.PeakTime = r.Times[k]
				}
			}
			c.Final = v
		}
	}

	for i := range rep.Compartments {
		rep.Compartments[i].Ringing = HighBandRatio(r.Series(i))
		rep.Ringing = math.Max(rep.Ringing, rep.Compartments[i].Ringing)
	}

	return rep
}
