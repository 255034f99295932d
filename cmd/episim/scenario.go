package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/dynamo"
	"github.com/san-kum/episim/internal/experiment"
)

// resolveConfig layers the run configuration: defaults, then the preset,
// then the config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Model = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Model))
		}
		cfg = p
		slog.Debug("preset applied", "model", cfg.Model, "preset", preset)
	}

	return layerConfig(cmd, cfg, args)
}

// layerConfig applies the config file and then the explicitly set flags
// over base, and validates the result.
func layerConfig(cmd *cobra.Command, cfg *config.Config, args []string) (*config.Config, error) {
	if configFile != "" {
		loaded, err := config.Merge(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Model = args[0]
		}
		cfg = loaded
		slog.Debug("config file applied", "path", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("population") {
		cfg.Population = population
	}
	if flags.Changed("exposed") {
		cfg.InitState.Exposed = exposed
	}
	if flags.Changed("infected") {
		cfg.InitState.Infected = infected
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	for name, v := range paramFlags {
		if flags.Changed(name) {
			if err := cfg.SetParam(name, *v); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// presetConfigs resolves each named preset of model with the config file
// and changed flags layered on top, as resolveConfig does for one preset.
func presetConfigs(cmd *cobra.Command, model string, names []string) ([]*config.Config, error) {
	if preset != "" {
		return nil, fmt.Errorf("--preset cannot be combined with positional preset names")
	}
	out := make([]*config.Config, 0, len(names))
	for _, name := range names {
		p := config.GetPreset(model, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(model))
		}
		cfg, err := layerConfig(cmd, p, []string{model})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, cfg)
	}
	return out, nil
}

// experimentConfig translates the file-level configuration into what the
// experiment runner needs.
func experimentConfig(cfg *config.Config) experiment.Config {
	return experiment.Config{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		InitState:  cfg.GetInitState(),
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Params:     paramsFor(cfg),
	}
}

// paramsFor keeps only the rate constants the configured model reads, so
// titles and metadata do not list unused zeros.
func paramsFor(cfg *config.Config) map[string]float64 {
	all := cfg.GetParams()
	registry := experiment.NewRegistry()
	dyn, err := registry.GetModel(cfg.Model, all)
	if err != nil {
		return all
	}
	if c, ok := dyn.(dynamo.Configurable); ok {
		return c.Params()
	}
	return all
}

// signalContext is canceled on interrupt so long runs stop between steps.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
