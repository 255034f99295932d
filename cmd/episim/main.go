package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/epidemic"
)

var (
	dataDir    string
	verbose    bool
	dt         float64
	duration   float64
	population float64
	exposed    float64
	infected   float64
	integrator string
	configFile string
	preset     string
	noSave     bool
	showPlot   bool
	pngOut     string
	jsonOut    string
	imageOut   string
	only       []string
	plotWidth  int
	plotHeight int
	imgWidth   int
	imgHeight  int
	compareInt []string
	axes       []string
	workers    int
	stepsTick  int
	// rate constants, one flag per parameter name
	paramFlags = map[string]*float64{}
)

// main registers the commands and flags and executes the root command,
// exiting with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "compartmental epidemic simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".episim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "print a terminal plot")
	runCmd.Flags().StringVar(&pngOut, "png", "", "also write a chart (.png or .svg)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and integrators",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&only, "only", nil, "compartments to plot (default all)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "-", "output file (- for stdout)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render run trajectory as a PNG or SVG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&imageOut, "out", "o", "", "output file (.png or .svg, default <run_id>.png)")
	exportPNGCmd.Flags().IntVar(&imgWidth, "width", 1024, "image width")
	exportPNGCmd.Flags().IntVar(&imgHeight, "height", 512, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [model] [preset...]",
		Short: "run several presets (or integrators) side by side",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareScenarios,
	}
	addScenarioFlags(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareInt, "integrators", nil, "compare integrators on one scenario instead of presets")
	compareCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default one per CPU)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "run a parameter grid in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "swept parameter, name=v1,v2 or name=lo:hi:count (repeatable)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default one per CPU)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "animate a run in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsTick, "steps-per-frame", 5, "grid points advanced per frame")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a YAML scenario script step by step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	rootCmd.AddCommand(runCmd, listCmd, modelsCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd, presetsCmd, compareCmd, sweepCmd, liveCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// addScenarioFlags registers the flags that override a preset or config
// file. Each flag only applies when given explicitly.
func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.Float64Var(&dt, "dt", 0.1, "timestep")
	f.Float64Var(&duration, "time", 100.0, "simulated duration")
	f.Float64Var(&population, "population", 10000, "population size N")
	f.Float64Var(&exposed, "exposed", 1, "initially exposed head count")
	f.Float64Var(&infected, "infected", 0, "initially infected head count")
	f.StringVar(&integrator, "integrator", "euler", "integrator (euler, rk4)")

	for _, name := range []string{
		epidemic.ParamAlpha, epidemic.ParamBeta, epidemic.ParamGamma, epidemic.ParamRho,
		epidemic.ParamNu, epidemic.ParamDelta, epidemic.ParamLambda, epidemic.ParamKappa,
	} {
		v, ok := paramFlags[name]
		if !ok {
			v = new(float64)
			paramFlags[name] = v
		}
		f.Float64Var(v, name, 0, name+" rate constant")
	}
}
