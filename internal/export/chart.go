package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/viz"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// palette follows the usual matplotlib cycle so charts look like the
// reference plots.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
}

type ChartOptions struct {
	Title  string
	Width  int
	Height int
	XLabel string
}

// Chart builds one line per compartment over the trajectory times.
func Chart(result *dynamo.Result, opts ChartOptions) (*chart.Chart, error) {
	if len(result.Times) < 2 {
		return nil, fmt.Errorf("need at least 2 points to chart, got %d", len(result.Times))
	}
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.XLabel == "" {
		opts.XLabel = "Time"
	}

	legends := viz.Legends(result.Compartments)
	series := make([]chart.Series, len(result.Compartments))
	for i := range result.Compartments {
		series[i] = chart.ContinuousSeries{
			Name:    legends[i],
			XValues: result.Times,
			YValues: result.Series(i),
			Style: chart.Style{
				StrokeColor: palette[i%len(palette)],
				StrokeWidth: 2.0,
			},
		}
	}

	graph := &chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  opts.XLabel,
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "Fraction of population",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph, nil
}

// Render writes the chart as PNG, or SVG when svg is set.
func Render(w io.Writer, result *dynamo.Result, opts ChartOptions, svg bool) error {
	graph, err := Chart(result, opts)
	if err != nil {
		return err
	}
	provider := chart.PNG
	if svg {
		provider = chart.SVG
	}
	return graph.Render(provider, w)
}

// WriteFile renders to path, picking SVG for a .svg extension and PNG
// otherwise.
func WriteFile(path string, result *dynamo.Result, opts ChartOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	svg := strings.EqualFold(filepath.Ext(path), ".svg")
	if err := Render(f, result, opts, svg); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
