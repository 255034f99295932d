package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/analysis"
	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
	"github.com/san-kum/episim/internal/export"
	"github.com/san-kum/episim/internal/storage"
	"github.com/san-kum/episim/internal/sweep"
	"github.com/san-kum/episim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	expCfg := experimentConfig(cfg)
	exp, err := registry.Prepare(expCfg)
	if err != nil {
		return err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	exp.GetSimulator().AddObserver(experiment.NewProgress(cfg.Model, steps))

	ctx, stop := signalContext()
	defer stop()

	slog.Info("running simulation", "model", cfg.Model, "integrator", cfg.Integrator, "dt", cfg.Dt, "duration", cfg.Duration)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("simulation complete", "steps", result.StepsTaken, "elapsed", time.Since(start))

	title := viz.Title(cfg.Model, expCfg.Params)
	report := analysis.Inspect(result)
	if !report.Stable() {
		slog.Warn("trajectory left the valid region",
			"drift", report.Drift,
			"violations", report.Violations,
			"first_step", report.FirstViolation,
		)
	}

	info := storage.RunInfo{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		Params:     expCfg.Params,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
	}
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(info, result)
		if err != nil {
			return err
		}
		slog.Info("run saved", "run", runID, "dir", dataDir)
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println(viz.Summary(title, result, report))

	if showPlot {
		fmt.Println(viz.Plot(result, viz.PlotOptions{Caption: title}))
	}
	if pngOut != "" {
		if err := export.WriteFile(pngOut, result, export.ChartOptions{Title: title}); err != nil {
			return err
		}
		slog.Info("chart written", "path", pngOut)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tINTEG\tPARAMS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			formatParams(run.Params),
		)
	}

	return w.Flush()
}

func formatParams(params map[string]float64) string {
	parts := make([]string, 0, len(params))
	for _, k := range epidemic.SortedKeys(params) {
		parts = append(parts, fmt.Sprintf("%s=%g", k, params[k]))
	}
	return strings.Join(parts, " ")
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tCOMPARTMENTS\tPRESETS")
	for _, name := range registry.ListModels() {
		comps, err := epidemic.CompartmentsOf(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(comps, ","), strings.Join(config.ListPresets(name), ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nintegrators: %s\n", strings.Join(registry.ListIntegrators(), ", "))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := experiment.NewRegistry().ListModels()
	if len(args) > 0 {
		models = args
	}

	for _, model := range models {
		presets := config.ListPresets(model)
		if len(presets) == 0 {
			fmt.Printf("no presets for model: %s\n", model)
			continue
		}
		fmt.Printf("presets for %s:\n", model)
		for _, p := range presets {
			cfg := config.GetPreset(model, p)
			fmt.Printf("  %-12s %s\n", p, viz.Subtle.Render(fmt.Sprintf("dt=%g t=%g %s", cfg.Dt, cfg.Duration, formatParams(paramsFor(cfg)))))
		}
	}
	return nil
}

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.States) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, result, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	title := viz.Title(meta.Model, meta.Params)
	fmt.Println(viz.Plot(result, viz.PlotOptions{
		Width:   plotWidth,
		Height:  plotHeight,
		Caption: title,
		Only:    only,
	}))
	fmt.Println()
	fmt.Println(viz.Summary(meta.ID, result, analysis.Inspect(result)))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)

	header := append([]string{"time"}, result.Compartments...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, state := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range state {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(jsonOut, storage.InfoFrom(meta), result)
}

func exportPNG(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := imageOut
	if path == "" {
		path = meta.ID + ".png"
	}
	opts := export.ChartOptions{
		Title:  viz.Title(meta.Model, meta.Params),
		Width:  imgWidth,
		Height: imgHeight,
	}
	if err := export.WriteFile(path, result, opts); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// compareScenarios runs presets of one model, or one scenario under several
// integrators, in parallel and prints them side by side.
func compareScenarios(cmd *cobra.Command, args []string) error {
	model := args[0]
	registry := experiment.NewRegistry()

	type scenario struct {
		name  string
		cfg   *config.Config
		integ string
	}
	var scenarios []scenario

	if len(compareInt) > 0 {
		cfg, err := resolveConfig(cmd, args[:1])
		if err != nil {
			return err
		}
		for _, name := range compareInt {
			scenarios = append(scenarios, scenario{name: name, cfg: cfg, integ: name})
		}
	} else {
		names := args[1:]
		if len(names) == 0 {
			names = config.ListPresets(model)
		}
		if len(names) == 0 {
			return fmt.Errorf("no presets for model: %s", model)
		}
		cfgs, err := presetConfigs(cmd, model, names)
		if err != nil {
			return err
		}
		for i, cfg := range cfgs {
			scenarios = append(scenarios, scenario{name: names[i], cfg: cfg, integ: cfg.Integrator})
		}
	}

	jobs := make([]dynamo.Job, 0, len(scenarios))
	for _, sc := range scenarios {
		dyn, err := registry.GetModel(sc.cfg.Model, sc.cfg.GetParams())
		if err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
		integFactory, err := registry.IntegratorFactory(sc.integ)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
		grid, err := dynamo.NewGrid(sc.cfg.Duration, sc.cfg.Dt)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
		comps := dyn.Compartments()
		jobs = append(jobs, dynamo.Job{
			Name:       sc.name,
			System:     dyn,
			Integrator: integFactory,
			Metrics:    func() []dynamo.Metric { return registry.DefaultMetrics(comps) },
			X0:         sc.cfg.GetInitState(),
			Grid:       grid,
		})
	}

	ctx, stop := signalContext()
	defer stop()

	slog.Info("comparing scenarios", "model", model, "count", len(jobs))
	start := time.Now()
	outcomes := dynamo.NewEnsemble(workers).Run(ctx, jobs)
	slog.Debug("comparison finished", "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tPEAK I\tPEAK T\tFINAL R\tDRIFT\tSTATUS\tINFECTED")
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\n", out.Name, out.Err)
			continue
		}
		r := out.Result
		report := analysis.Inspect(r)
		var spark string
		if series, err := analysis.Series(r, epidemic.Infected); err == nil {
			spark = viz.SparklineChart(series, 30)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.1f\t%.4f\t%.1e\t%s\t%s\n",
			out.Name,
			r.Metrics["peak_I"],
			r.Metrics["peak_time_I"],
			r.Metrics["final_R"],
			report.Drift,
			viz.Status(report),
			spark,
		)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(axes) == 0 {
		return fmt.Errorf("at least one --axis is required")
	}
	base, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	parsed := make([]sweep.Axis, 0, len(axes))
	for _, arg := range axes {
		a, err := sweep.ParseAxis(arg)
		if err != nil {
			return err
		}
		parsed = append(parsed, a)
	}
	sw, err := sweep.New(parsed...)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integFactory, err := registry.IntegratorFactory(base.Integrator)
	if err != nil {
		return err
	}
	grid, err := dynamo.NewGrid(base.Duration, base.Dt)
	if err != nil {
		return err
	}
	x0 := base.GetInitState()

	build := func(point map[string]float64) (dynamo.Job, error) {
		params := paramsFor(base)
		for k, v := range point {
			if _, ok := params[k]; !ok {
				return dynamo.Job{}, fmt.Errorf("parameter %s is not used by %s", k, base.Model)
			}
			params[k] = v
		}
		dyn, err := registry.GetModel(base.Model, params)
		if err != nil {
			return dynamo.Job{}, err
		}
		comps := dyn.Compartments()
		return dynamo.Job{
			System:     dyn,
			Integrator: integFactory,
			Metrics:    func() []dynamo.Metric { return registry.DefaultMetrics(comps) },
			X0:         x0,
			Grid:       grid,
		}, nil
	}

	ctx, stop := signalContext()
	defer stop()

	slog.Info("sweeping", "model", base.Model, "points", sw.Size())
	start := time.Now()
	rows := sw.Run(ctx, dynamo.NewEnsemble(workers), build)
	slog.Info("sweep complete", "points", len(rows), "elapsed", time.Since(start))

	metricNames := sweepMetricNames(rows)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(append(sw.Names(), metricNames...), "\t"))
	for _, row := range rows {
		cells := make([]string, 0, len(sw.Names())+len(metricNames))
		for _, n := range sw.Names() {
			cells = append(cells, strconv.FormatFloat(row.Params[n], 'g', 6, 64))
		}
		if row.Err != nil {
			cells = append(cells, "error: "+row.Err.Error())
		} else {
			for _, m := range metricNames {
				cells = append(cells, strconv.FormatFloat(row.Metrics[m], 'g', 6, 64))
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func sweepMetricNames(rows []sweep.Row) []string {
	seen := map[string]bool{}
	for _, r := range rows {
		for k := range r.Metrics {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	m, err := viz.NewModel(viz.LiveConfig{
		Model: viz.Title(cfg.Model, nil),
		Build: func(params map[string]float64) (dynamo.System, error) {
			return registry.GetModel(cfg.Model, params)
		},
		Integrator:   integ,
		Params:       paramsFor(cfg),
		InitState:    cfg.GetInitState(),
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		StepsPerTick: stepsTick,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	results, runErr := automation.RunScenario(ctx, scenario, experiment.NewRegistry())

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tMODEL\tPEAK I\tFINAL R\tSTATUS")
	for _, res := range results {
		runID := "-"
		if st != nil {
			runID, err = st.Save(storage.RunInfo{
				Model:      res.Config.Model,
				Integrator: res.Config.Integrator,
				Params:     res.Params,
				Dt:         res.Config.Dt,
				Duration:   res.Config.Duration,
			}, res.Result)
			if err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%s\n",
			res.Name,
			runID,
			res.Config.Model,
			res.Result.Metrics["peak_I"],
			res.Result.Metrics["final_R"],
			viz.Status(analysis.Inspect(res.Result)),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}
