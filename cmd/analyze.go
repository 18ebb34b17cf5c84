// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"

	"clipscope/internal/analysis"
	"clipscope/internal/playback"

	"github.com/spf13/cobra"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newEnvelopeCommand(a *app) *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "envelope FILE",
		Short: "Compute the amplitude envelope of a clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := a.openEngine(cmd.Context(), args[0], a.cfg.Analysis)
			if err != nil {
				return err
			}
			defer eng.Close()

			w, err := eng.ComputeWaveform(cmd.Context())
			if err != nil {
				return err
			}
			if normalize {
				w = w.Normalized()
			}

			step := 1 / float64(a.cfg.Analysis.WaveformResolution)
			if a.jsonOutput {
				return a.printJSON(struct {
					Resolution int       `json:"resolution"`
					Peak       float64   `json:"peak"`
					Mean       float64   `json:"mean"`
					Values     []float64 `json:"values"`
				}{a.cfg.Analysis.WaveformResolution, w.Peak(), w.Mean(), w})
			}
			for i, v := range w {
				fmt.Fprintf(a.out, "%.3f\t%.6f\n", float64(i)*step, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Scale the envelope so its peak is 1")
	return cmd
}

func newSpectrumCommand(a *app) *cobra.Command {
	var (
		at  float64
		raw bool
	)
	cmd := &cobra.Command{
		Use:   "spectrum FILE",
		Short: "Compute the magnitude spectrum around a playback time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, clip, err := a.openEngine(cmd.Context(), args[0], a.cfg.Analysis)
			if err != nil {
				return err
			}
			defer eng.Close()

			eng.SetClock(playback.NewManual(at))
			// One full time step opens the cadence gate.
			u, err := eng.Tick(a.cfg.Analysis.TimeStep)
			if err != nil {
				return err
			}
			if !u.HasSpectrum() {
				return fmt.Errorf("frame at %.3fs is below the gate threshold %g", at, a.cfg.Analysis.GateThreshold)
			}

			win := eng.SpectrumWindow()
			bins := u.Spectrum
			if raw {
				bins = eng.Frame().Bins
			}
			if a.jsonOutput {
				return a.printJSON(struct {
					Time      float64              `json:"time"`
					BinWidth  float64              `json:"binWidth"`
					Amplitude float64              `json:"amplitude"`
					Bins      []float64            `json:"bins"`
					Bands     []analysis.BandLevel `json:"bands"`
				}{u.Time, win.BinFrequency(1, clip.SampleRate()), u.SpectrumAmplitude, bins, u.Bands})
			}
			for i, v := range bins {
				fmt.Fprintf(a.out, "%d\t%.1f\t%.6f\n", i, win.BinFrequency(i, clip.SampleRate()), v)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Playback time in seconds")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print every unscaled bin instead of the display range")
	return cmd
}

func newAmplitudeCommand(a *app) *cobra.Command {
	var at float64
	cmd := &cobra.Command{
		Use:   "amplitude FILE",
		Short: "Compute the instant amplitude around a playback time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisCfg := a.cfg.Analysis
			analysisCfg.ComputeAmplitudeAtRuntime = true

			eng, _, err := a.openEngine(cmd.Context(), args[0], analysisCfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			eng.SetClock(playback.NewManual(at))
			u, err := eng.Tick(0)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(struct {
					Time      float64 `json:"time"`
					Amplitude float64 `json:"amplitude"`
				}{u.Time, u.Amplitude})
			}
			fmt.Fprintf(a.out, "%.6f\n", u.Amplitude)
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Playback time in seconds")
	return cmd
}

func newSampleCommand(a *app) *cobra.Command {
	var at float64
	cmd := &cobra.Command{
		Use:   "sample FILE",
		Short: "Interpolate the amplitude envelope at a playback time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := a.openEngine(cmd.Context(), args[0], a.cfg.Analysis)
			if err != nil {
				return err
			}
			defer eng.Close()

			if _, err := eng.ComputeWaveform(cmd.Context()); err != nil {
				return err
			}
			v := eng.SampleWaveform(at)
			if a.jsonOutput {
				return a.printJSON(struct {
					Time  float64 `json:"time"`
					Value float64 `json:"value"`
				}{at, v})
			}
			fmt.Fprintf(a.out, "%.6f\n", v)
			return nil
		},
	}
	cmd.Flags().Float64Var(&at, "at", 0, "Playback time in seconds")
	return cmd
}
