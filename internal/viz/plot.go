package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/episim/internal/dynamo"
)

// SeriesColors is the terminal palette, one color per compartment slot.
var SeriesColors = []asciigraph.AnsiColor{
	asciigraph.DodgerBlue,
	asciigraph.Orange,
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Purple,
	asciigraph.Brown,
	asciigraph.HotPink,
}

type PlotOptions struct {
	Width   int
	Height  int
	Caption string
	// Only limits the plot to the named compartments; empty means all.
	Only []string
}

// Plot draws every selected compartment of result on one terminal chart
// with a legend.
func Plot(result *dynamo.Result, opts PlotOptions) string {
	if opts.Width == 0 {
		opts.Width = 80
	}
	if opts.Height == 0 {
		opts.Height = 15
	}

	indices := selectCompartments(result.Compartments, opts.Only)
	if len(indices) == 0 || len(result.States) == 0 {
		return ""
	}

	data := make([][]float64, len(indices))
	names := make([]string, len(indices))
	colors := make([]asciigraph.AnsiColor, len(indices))
	legends := Legends(result.Compartments)
	for k, i := range indices {
		data[k] = result.Series(i)
		names[k] = legends[i]
		colors[k] = SeriesColors[i%len(SeriesColors)]
	}

	options := []asciigraph.Option{
		asciigraph.Width(opts.Width),
		asciigraph.Height(opts.Height),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(names...),
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.PlotMany(data, options...)
}

func selectCompartments(all, only []string) []int {
	if len(only) == 0 {
		idx := make([]int, len(all))
		for i := range all {
			idx[i] = i
		}
		return idx
	}

	var idx []int
	for _, want := range only {
		for i, c := range all {
			if c == want {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}
