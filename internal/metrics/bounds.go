package metrics

import (
	"github.com/san-kum/episim/internal/dynamo"
)

// BoundsSlack absorbs rounding at the edges of [0, N].
const BoundsSlack = 1e-12

// Bounds counts observed states with any compartment outside [0, N], where
// N is the first observed total. Explicit Euler with too large a step
// overshoots; this metric makes that visible without altering the state.
type Bounds struct {
	name       string
	total      float64
	violations int
	samples    int
	first      int
	firstTime  float64
}

func NewBounds() *Bounds {
	return &Bounds{name: "bounds_violations", first: -1}
}

func (b *Bounds) Name() string {
	return b.name
}

func (b *Bounds) Observe(x dynamo.State, t float64) {
	if b.samples == 0 {
		b.total = x.Sum()
	}
	slack := BoundsSlack * b.total
	if !x.Within(-slack, b.total+slack) {
		if b.violations == 0 {
			b.first = b.samples
			b.firstTime = t
		}
		b.violations++
	}
	b.samples++
}

func (b *Bounds) Value() float64 {
	return float64(b.violations)
}

// FirstStep returns the index of the first out-of-range state and its time,
// or -1 if every state was in range.
func (b *Bounds) FirstStep() (int, float64) {
	return b.first, b.firstTime
}

func (b *Bounds) Reset() {
	b.total = 0
	b.violations = 0
	b.samples = 0
	b.first = -1
	b.firstTime = 0
}
