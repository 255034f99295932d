package experiment

import (
	"log/slog"

	"github.com/san-kum/episim/internal/dynamo"
)

// Progress is a dynamo.Observer that logs the compartment vector at debug
// level every Every steps.
type Progress struct {
	Model string
	Every int

	seen int
}

func NewProgress(model string, steps int) *Progress {
	return &Progress{Model: model, Every: max(steps/10, 1)}
}

func (p *Progress) OnStep(x dynamo.State, t float64) {
	if p.seen%p.Every == 0 {
		slog.Debug("step", "model", p.Model, "t", t, "state", []float64(x), "total", x.Sum())
	}
	p.seen++
}

// Seen is the number of states observed so far.
func (p *Progress) Seen() int { return p.seen }
