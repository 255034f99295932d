package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/dynamo"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(22)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusWarn = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFail = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	SparkHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	SparkMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	SparkLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

// Status summarises a report as a single styled word.
func Status(report analysis.Report) string {
	switch {
	case report.Stable():
		return StatusOK.Render("STABLE")
	case report.Conserved():
		return StatusWarn.Render("OUT OF RANGE")
	default:
		return StatusFail.Render("NOT CONSERVED")
	}
}

// Summary renders the metric table and post-run checks of a trajectory.
func Summary(title string, result *dynamo.Result, report analysis.Report) string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(title) + "\n\n")

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}

	row("points", fmt.Sprintf("%d", len(result.Times)))
	row("status", Status(report))
	row("population drift", fmt.Sprintf("%.3e", report.Drift))
	if report.Violations > 0 {
		row("first out of range", fmt.Sprintf("step %d (t=%g)", report.FirstViolation, report.FirstViolationTime))
	}
	if report.Oscillating() {
		row("step oscillation", StatusWarn.Render(fmt.Sprintf("%.2f of spectral energy near Nyquist", report.Ringing)))
	}

	names := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		row(k, fmt.Sprintf("%.6g", result.Metrics[k]))
	}

	s.WriteString("\n")
	for _, c := range report.Compartments {
		row(c.Name, fmt.Sprintf("final %.4f  peak %.4f @ t=%g", c.Final, c.Max, c.PeakTime))
	}

	return Panel.Render(strings.TrimRight(s.String(), "\n"))
}

// SparklineChart renders values as a one-line bar strip of at most width
// cells. Higher values are drawn hotter.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)

		c := string(chars[idx])
		switch {
		case norm > 0.7:
			result.WriteString(SparkHigh.Render(c))
		case norm > 0.3:
			result.WriteString(SparkMid.Render(c))
		default:
			result.WriteString(SparkLow.Render(c))
		}
	}
	return result.String()
}
