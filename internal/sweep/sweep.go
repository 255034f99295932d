package sweep

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/episim/internal/dynamo"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// Sweep is the cartesian product of its axes. The first axis varies
// slowest.
type Sweep struct {
	axes []Axis
}

func New(axes ...Axis) (*Sweep, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("sweep needs at least one axis")
	}
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if a.Name == "" {
			return nil, fmt.Errorf("axis with empty name")
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("axis %s given twice", a.Name)
		}
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("axis %s has no values", a.Name)
		}
		seen[a.Name] = true
	}
	return &Sweep{axes: axes}, nil
}

// Names returns the swept parameter names in axis order.
func (s *Sweep) Names() []string {
	names := make([]string, len(s.axes))
	for i, a := range s.axes {
		names[i] = a.Name
	}
	return names
}

func (s *Sweep) Size() int {
	n := 1
	for _, a := range s.axes {
		n *= len(a.Values)
	}
	return n
}

// Points enumerates every parameter combination.
func (s *Sweep) Points() []map[string]float64 {
	points := make([]map[string]float64, 0, s.Size())
	s.collect(0, map[string]float64{}, &points)
	return points
}

func (s *Sweep) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(s.axes) {
		*out = append(*out, current)
		return
	}

	axis := s.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Name] = val

		s.collect(depth+1, next, out)
	}
}

// Row is the outcome of one sweep point.
type Row struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// Run builds one job per point and executes them on ens. Rows come back in
// Points order; a point whose job cannot be built or whose run fails carries
// its own Err and does not stop the others.
func (s *Sweep) Run(ctx context.Context, ens *dynamo.Ensemble, build func(params map[string]float64) (dynamo.Job, error)) []Row {
	points := s.Points()
	rows := make([]Row, len(points))

	jobs := make([]dynamo.Job, 0, len(points))
	owner := make([]int, 0, len(points))
	for i, p := range points {
		rows[i].Params = p
		job, err := build(p)
		if err != nil {
			rows[i].Err = err
			continue
		}
		if job.Name == "" {
			job.Name = Label(s.Names(), p)
		}
		jobs = append(jobs, job)
		owner = append(owner, i)
	}

	for j, out := range ens.Run(ctx, jobs) {
		row := &rows[owner[j]]
		if out.Err != nil {
			row.Err = out.Err
			continue
		}
		row.Metrics = out.Result.Metrics
	}
	return rows
}

// Label renders a point as "a=1 b=2" in the given name order.
func Label(names []string, params map[string]float64) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "=" + strconv.FormatFloat(params[n], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// ParseAxis reads "name=v1,v2,..." or "name=lo:hi:count" (count evenly
// spaced values, both ends included).
func ParseAxis(arg string) (Axis, error) {
	name, body, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || body == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=v1,v2 or name=lo:hi:count", arg)
	}

	if strings.Contains(body, ":") {
		fields := strings.Split(body, ":")
		if len(fields) != 3 {
			return Axis{}, fmt.Errorf("axis %q: range needs lo:hi:count", arg)
		}
		lo, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		count, err3 := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err1 != nil || err2 != nil || err3 != nil {
			return Axis{}, fmt.Errorf("axis %q: bad range", arg)
		}
		if count < 1 {
			return Axis{}, fmt.Errorf("axis %q: count must be at least 1", arg)
		}
		return Axis{Name: name, Values: Linspace(lo, hi, count)}, nil
	}

	fields := strings.Split(body, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", arg, err)
		}
		values = append(values, v)
	}
	return Axis{Name: name, Values: values}, nil
}

// Linspace returns count evenly spaced values from lo to hi. A single
// value is just lo.
func Linspace(lo, hi float64, count int) []float64 {
	if count == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, count), lo, hi)
}
