// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"clipscope/internal/cache"
	"clipscope/internal/config"
	"clipscope/internal/engine"
	applog "clipscope/internal/log"
	"clipscope/internal/source"
	"clipscope/pkg/build"

	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	jsonOutput bool

	// Analysis overrides, applied only when the flag was set.
	windowSize     int
	spectrumSize   int
	resolution     int
	timeStep       float64
	windowFunction string
	cacheBackend   string

	cfg *config.Config
	out io.Writer
}

// Execute runs the CLI against os.Args.
func Execute() error {
	root := NewRootCommand(os.Stdout)
	root.SetArgs(os.Args[1:])
	return root.Execute()
}

// NewRootCommand builds the clipscope command tree writing results to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}
	buildInfo := build.Current()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Amplitude and spectrum analysis for audio clips",
		Version:       buildInfo.Summary(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./config.yaml when present)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false,
		"Show verbose output")
	flags.BoolVar(&a.jsonOutput, "json", false,
		"Print results as JSON")
	flags.IntVar(&a.windowSize, "window-size", config.DefaultWindowSize,
		"Amplitude window size in samples, snapped to a power of two")
	flags.IntVar(&a.spectrumSize, "spectrum-size", config.DefaultSpectrumSize,
		"Spectrum size in bins, snapped to a power of two")
	flags.IntVar(&a.resolution, "resolution", config.DefaultWaveformResolution,
		"Envelope points per second")
	flags.Float64Var(&a.timeStep, "time-step", config.DefaultTimeStep,
		"Seconds between spectrum frames")
	flags.StringVar(&a.windowFunction, "window-function", config.DefaultWindowFunction,
		"Spectrum window: hann, hamming, blackman, nuttall, rectangular, ...")
	flags.StringVar(&a.cacheBackend, "cache", config.DefaultCacheBackend,
		"Envelope cache backend: memory, redis or none")

	rootCmd.AddCommand(
		newEnvelopeCommand(a),
		newSpectrumCommand(a),
		newAmplitudeCommand(a),
		newSampleCommand(a),
		newPlayCommand(a),
		newDevicesCommand(a),
	)
	return rootCmd
}

// loadConfig reads the config file, applies explicitly set flags on top
// and configures logging.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("window-size") {
		cfg.Analysis.WindowSize = a.windowSize
	}
	if flags.Changed("spectrum-size") {
		cfg.Analysis.SpectrumSize = a.spectrumSize
	}
	if flags.Changed("resolution") {
		cfg.Analysis.WaveformResolution = a.resolution
	}
	if flags.Changed("time-step") {
		cfg.Analysis.TimeStep = a.timeStep
	}
	if flags.Changed("window-function") {
		cfg.Analysis.WindowFunction = a.windowFunction
	}
	if flags.Changed("cache") {
		cfg.Cache.Backend = a.cacheBackend
	}
	if a.verbose {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	applog.Configure(cfg.LogLevel, cfg.Debug)
	a.cfg = cfg
	return nil
}

// openEngine decodes path and returns an engine bound to it, backed by the
// configured envelope cache.
func (a *app) openEngine(ctx context.Context, path string, analysisCfg config.AnalysisConfig) (*engine.Engine, *source.Clip, error) {
	clip, err := source.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.New(ctx, a.cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("opening envelope cache: %w", err)
	}

	eng, err := engine.New(analysisCfg, engine.WithCache(store))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	eng.SetSource(clip)
	return eng, clip, nil
}
