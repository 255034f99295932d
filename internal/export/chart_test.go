package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/episim/internal/dynamo"
)

func decayResult() *dynamo.Result {
	times := []float64{0, 1, 2, 3, 4}
	states := make([]dynamo.State, len(times))
	s := 1.0
	for i := range times {
		states[i] = dynamo.State{s, 1 - s}
		s *= 0.5
	}
	return &dynamo.Result{
		Compartments: []string{"S", "R"},
		States:       states,
		Times:        times,
		Population:   1,
	}
}

func TestChart(t *testing.T) {
	graph, err := Chart(decayResult(), ChartOptions{Title: "decay"})
	if err != nil {
		t.Fatal(err)
	}
	if len(graph.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(graph.Series))
	}
	if graph.Series[0].GetName() != "Susceptible" || graph.Series[1].GetName() != "Recovered" {
		t.Errorf("unexpected legends %q, %q", graph.Series[0].GetName(), graph.Series[1].GetName())
	}
	if graph.Width != DefaultWidth || graph.Height != DefaultHeight {
		t.Errorf("expected default size, got %dx%d", graph.Width, graph.Height)
	}
}

func TestChart_TooShort(t *testing.T) {
	r := &dynamo.Result{
		Compartments: []string{"S"},
		States:       []dynamo.State{{1}},
		Times:        []float64{0},
	}
	if _, err := Chart(r, ChartOptions{}); err == nil {
		t.Error("expected error for single point")
	}
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, decayResult(), ChartOptions{Title: "decay"}, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRender_SVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, decayResult(), ChartOptions{Title: "decay"}, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("output is not an SVG")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"run.png", "run.SVG"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, decayResult(), ChartOptions{}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: missing or empty output", name)
		}
	}
}
