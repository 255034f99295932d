package epidemic_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/integrators"
)

const population = 10000.0

var base = epidemic.BaseParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5}

func seeded() dynamo.State {
	return dynamo.State{1 - 1/population, 1 / population, 0, 0}
}

func simulate(model dynamo.System, x0 dynamo.State, tMax, dt float64) (*dynamo.Result, error) {
	grid, err := dynamo.NewGrid(tMax, dt)
	Expect(err).NotTo(HaveOccurred())
	return dynamo.New(model, integrators.NewEuler()).Run(context.Background(), x0, grid)
}

func column(r *dynamo.Result, name string) []float64 {
	i := r.Index(name)
	Expect(i).To(BeNumerically(">=", 0))
	return r.Series(i)
}

func localMaxima(xs []float64) int {
	n := 0
	for k := 1; k < len(xs)-1; k++ {
		if xs[k] > xs[k-1] && xs[k] > xs[k+1] {
			n++
		}
	}
	return n
}

var _ = Describe("Euler trajectories", func() {
	var (
		seir       *epidemic.Model
		distancing *epidemic.Model
	)

	BeforeEach(func() {
		var err error
		seir, err = epidemic.NewSEIR(base)
		Expect(err).NotTo(HaveOccurred())
		distancing, err = epidemic.NewDistancingSEIR(epidemic.DistancingParams{BaseParams: base, Rho: 0.8})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("conservation", func() {
		DescribeTable("keeps the total population",
			func(build func() *epidemic.Model, x0 dynamo.State) {
				result, err := simulate(build(), x0, 100, 0.1)
				Expect(err).NotTo(HaveOccurred())

				total := x0.Sum()
				for _, s := range result.States {
					Expect(math.Abs(s.Sum()-total) / total).To(BeNumerically("<", 1e-9))
				}
			},
			Entry("base", func() *epidemic.Model { return seir }, seeded()),
			Entry("distancing", func() *epidemic.Model { return distancing }, seeded()),
			Entry("detention", func() *epidemic.Model {
				m, err := epidemic.NewDetentionSEIR(epidemic.DetentionParams{
					Alpha: 0.2, Beta: 1.75, Gamma: 0.5, Rho: 0.8, Nu: 0.01, Delta: 0.3, Lambda: 0.1, Kappa: 0.01,
				})
				Expect(err).NotTo(HaveOccurred())
				return m
			}, dynamo.State{0, 1 - 1/population, 1 / population, 0, 0, 0, 0}),
		)
	})

	Describe("trajectory shape", func() {
		It("has one entry per grid point and starts at the initial vector", func() {
			x0 := seeded()
			result, err := simulate(seir, x0, 100, 0.1)
			Expect(err).NotTo(HaveOccurred())

			Expect(result.States).To(HaveLen(1001))
			Expect(result.Times).To(HaveLen(1001))
			Expect(result.States[0]).To(Equal(x0))
			Expect(result.Compartments).To(Equal(epidemic.SEIRCompartments))
		})
	})

	Describe("stability", func() {
		It("stays inside [0, 1] for a small step", func() {
			result, err := simulate(seir, seeded(), 100, 0.1)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range result.States {
				Expect(s.Within(0, 1)).To(BeTrue())
			}
		})

		It("leaves [0, 1] for a large step without clamping", func() {
			result, err := simulate(seir, seeded(), 30, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.States).To(HaveLen(4))

			escaped := false
			for _, s := range result.States {
				if !s.Within(0, 1) {
					escaped = true
				}
			}
			Expect(escaped).To(BeTrue())
			// E overshoots to -E0 on the first step
			Expect(result.States[1][1]).To(BeNumerically("~", -1/population, 1e-15))
		})

		It("stops when the state overflows", func() {
			_, err := simulate(seir, seeded(), 100, 4)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})
	})

	Describe("zero infection", func() {
		It("stays at the disease free state", func() {
			x0 := dynamo.State{1, 0, 0, 0}
			result, err := simulate(distancing, x0, 100, 0.1)
			Expect(err).NotTo(HaveOccurred())

			for _, s := range result.States {
				Expect(s).To(Equal(x0))
			}
		})
	})

	Describe("rho = 1", func() {
		It("reproduces the base model", func() {
			full, err := epidemic.NewDistancingSEIR(epidemic.DistancingParams{BaseParams: base, Rho: 1})
			Expect(err).NotTo(HaveOccurred())

			a, err := simulate(seir, seeded(), 100, 0.1)
			Expect(err).NotTo(HaveOccurred())
			b, err := simulate(full, seeded(), 100, 0.1)
			Expect(err).NotTo(HaveOccurred())

			for k := range a.States {
				for i := range a.States[k] {
					Expect(b.States[k][i]).To(BeNumerically("~", a.States[k][i], 1e-12))
				}
			}
		})
	})

	Describe("distancing scenario", func() {
		var result *dynamo.Result

		BeforeEach(func() {
			var err error
			result, err = simulate(distancing, seeded(), 100, 0.1)
			Expect(err).NotTo(HaveOccurred())
		})

		It("has a single infection peak", func() {
			Expect(localMaxima(column(result, epidemic.Infected))).To(Equal(1))
		})

		It("never gains susceptibles or loses recovered", func() {
			S := column(result, epidemic.Susceptible)
			R := column(result, epidemic.Recovered)
			for k := 1; k < len(S); k++ {
				Expect(S[k]).To(BeNumerically("<=", S[k-1]))
				Expect(R[k]).To(BeNumerically(">=", R[k-1]))
			}
		})

		It("ends with recovered as the dominant compartment", func() {
			final := result.Final()
			Expect(final[3]).To(BeNumerically(">", 0.9))
			for i := 0; i < 3; i++ {
				Expect(final[3]).To(BeNumerically(">", final[i]))
			}
		})

		It("flattens the curve relative to no distancing", func() {
			full, err := simulate(seir, seeded(), 100, 0.1)
			Expect(err).NotTo(HaveOccurred())

			peak := func(xs []float64) float64 {
				m := 0.0
				for _, v := range xs {
					m = math.Max(m, v)
				}
				return m
			}
			Expect(peak(column(result, epidemic.Infected))).To(BeNumerically("<", peak(column(full, epidemic.Infected))))
		})
	})

	Describe("detention", func() {
		It("routes detected cases through quarantine", func() {
			m, err := epidemic.NewDetentionSEIR(epidemic.DetentionParams{
				Alpha: 0.2, Beta: 1.75, Gamma: 0.5, Rho: 0.8, Nu: 0.01, Delta: 0.3, Lambda: 0.1, Kappa: 0.01,
			})
			Expect(err).NotTo(HaveOccurred())

			result, err := simulate(m, dynamo.State{0, 1 - 1/population, 1 / population, 0, 0, 0, 0}, 100, 0.1)
			Expect(err).NotTo(HaveOccurred())

			final := result.Final()
			Expect(final[result.Index(epidemic.Detained)]).To(BeNumerically(">", 0))
			Expect(final[result.Index(epidemic.Protected)]).To(BeNumerically(">", 0))
			for _, s := range result.States {
				Expect(s.Within(0, 1)).To(BeTrue())
			}
		})

		It("rejects a negative initial compartment", func() {
			m, err := epidemic.NewDetentionSEIR(epidemic.DetentionParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5, Rho: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = simulate(m, dynamo.State{0, 1, 0.1, -0.1, 0, 0, 0}, 10, 0.1)
			Expect(err).To(MatchError(dynamo.ErrNegativeCompartment))
		})

		It("rejects a vector of the wrong length", func() {
			m, err := epidemic.NewDetentionSEIR(epidemic.DetentionParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5, Rho: 1})
			Expect(err).NotTo(HaveOccurred())

			_, err = simulate(m, seeded(), 10, 0.1)
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})
	})
})
