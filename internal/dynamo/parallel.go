package dynamo

import (
	"context"
	"runtime"
	"sync"
)

// Job describes one independent run. Integrator and Metrics are factories
// because both may carry per-run scratch state.
type Job struct {
	Name       string
	System     System
	Integrator func() Integrator
	Metrics    func() []Metric
	X0         State
	Grid       Grid
}

type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

type Ensemble struct {
	workers int
}

// NewEnsemble returns an ensemble running at most workers jobs at once;
// workers <= 0 means one per CPU.
func NewEnsemble(workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Ensemble{workers: workers}
}

// Run executes every job and returns outcomes in job order. A failing job
// only sets its own Err.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			job := jobs[idx]
			s := New(job.System, job.Integrator())
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, job.X0, job.Grid)
			outcomes[idx] = Outcome{Name: job.Name, Result: res, Err: err}
		}(i)
	}

	wg.Wait()
	return outcomes
}
