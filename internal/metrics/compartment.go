package metrics

import (
	"github.com/san-kum/episim/internal/dynamo"
)

type peakTracker struct {
	index   int
	value   float64
	time    float64
	samples int
}

func (p *peakTracker) observe(x dynamo.State, t float64) {
	if p.index >= len(x) {
		return
	}
	if p.samples == 0 || x[p.index] > p.value {
		p.value = x[p.index]
		p.time = t
	}
	p.samples++
}

func (p *peakTracker) reset() {
	p.value, p.time, p.samples = 0, 0, 0
}

// Peak reports the largest value reached by one compartment.
type Peak struct {
	name string
	peakTracker
}

func NewPeak(index int, compartment string) *Peak {
	return &Peak{name: "peak_" + compartment, peakTracker: peakTracker{index: index}}
}

func (p *Peak) Name() string                      { return p.name }
func (p *Peak) Observe(x dynamo.State, t float64) { p.observe(x, t) }
func (p *Peak) Value() float64                    { return p.value }
func (p *Peak) Reset()                            { p.reset() }

// PeakTime reports when one compartment reached its largest value.
type PeakTime struct {
	name string
	peakTracker
}

func NewPeakTime(index int, compartment string) *PeakTime {
	return &PeakTime{name: "peak_time_" + compartment, peakTracker: peakTracker{index: index}}
}

func (p *PeakTime) Name() string                      { return p.name }
func (p *PeakTime) Observe(x dynamo.State, t float64) { p.observe(x, t) }
func (p *PeakTime) Value() float64                    { return p.time }
func (p *PeakTime) Reset()                            { p.reset() }

// Final reports the last observed value of one compartment.
type Final struct {
	name  string
	index int
	value float64
}

func NewFinal(index int, compartment string) *Final {
	return &Final{name: "final_" + compartment, index: index}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(x dynamo.State, t float64) {
	if f.index < len(x) {
		f.value = x[f.index]
	}
}

func (f *Final) Value() float64 { return f.value }
func (f *Final) Reset()         { f.value = 0 }
