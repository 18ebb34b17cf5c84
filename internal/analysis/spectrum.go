// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"clipscope/internal/fft"
	applog "clipscope/internal/log"
	"clipscope/internal/source"
)

// SpectrumConfig configures a SpectrumAnalyzer.
type SpectrumConfig struct {
	Size     int        // Requested spectrum size, snapped to the nearest power of two.
	TimeStep float64    // Minimum accumulated seconds between two computed frames.
	Window   WindowFunc // Weighting applied before the transform (Hann by default).
}

// SpectrumFrame is one magnitude spectrum. Bins has Window.Size entries
// covering 0 Hz up to just below Nyquist.
type SpectrumFrame struct {
	Bins      []float64 // Magnitude per bin, |X[k]|, unscaled.
	Amplitude float64   // Mean absolute value of the raw, unweighted window.
	Time      float64   // Playback time the window was centred on, in seconds.
	Start     int       // First sample of the (clamped) window.
}

// SpectrumAnalyzer computes magnitude spectra on a fixed cadence.
type SpectrumAnalyzer struct {
	window   Window
	timeStep float64
	timer    float64 // Seconds accumulated since the last computed frame.

	table     *WindowTable
	samples   []float64    // Raw window, Window.Len() long.
	workspace []complex128 // FFT input/output, Window.Len() long.
	frame     SpectrumFrame
	computed  bool
}

// NewSpectrumAnalyzer allocates the window, FFT workspace and frame buffers.
func NewSpectrumAnalyzer(cfg SpectrumConfig) (*SpectrumAnalyzer, error) {
	w, err := NewWindow(cfg.Size)
	if err != nil {
		return nil, err
	}
	if cfg.TimeStep < 0 || math.IsNaN(cfg.TimeStep) {
		return nil, fmt.Errorf("%w: time step %v", ErrInvalidConfiguration, cfg.TimeStep)
	}
	stages, err := fft.Stages(w.Len())
	if err != nil {
		return nil, err
	}

	applog.With("analysis").Debugf("spectrum analyzer: %d bins, %d-point FFT (%d stages), %s window, step %.3fs",
		w.Size, w.Len(), stages, cfg.Window, cfg.TimeStep)

	return &SpectrumAnalyzer{
		window:    w,
		timeStep:  cfg.TimeStep,
		table:     NewWindowTable(cfg.Window, w.Len()),
		samples:   make([]float64, w.Len()),
		workspace: make([]complex128, w.Len()),
		frame:     SpectrumFrame{Bins: make([]float64, w.Size)},
	}, nil
}

// Window returns the effective (snapped) analysis window.
func (s *SpectrumAnalyzer) Window() Window { return s.window }

// Tick accumulates elapsed seconds and, once at least TimeStep has built up,
// resets the timer and computes a frame for the window centred on seconds.
// It returns nil while the cadence gate is closed.
//
// The returned frame is owned by the analyzer and overwritten by the next
// computed frame; copy it to keep it.
func (s *SpectrumAnalyzer) Tick(src source.Source, seconds, elapsed float64) (*SpectrumFrame, error) {
	s.timer += elapsed
	if s.timer < s.timeStep {
		return nil, nil
	}
	s.timer = 0
	return s.Compute(src, seconds)
}

// Compute computes a frame immediately, ignoring the cadence gate.
func (s *SpectrumAnalyzer) Compute(src source.Source, seconds float64) (*SpectrumFrame, error) {
	center := centerSample(seconds, src.SampleRate(), src.Len())
	start, err := s.window.start(center, src.Len())
	if err != nil {
		return nil, err
	}
	if err := src.ReadSamples(start, s.samples); err != nil {
		return nil, fmt.Errorf("analysis: reading spectrum window at %d: %w", start, err)
	}

	var amplitude float64
	coeffs := s.table.Coeffs
	for i, v := range s.samples {
		amplitude += math.Abs(v)
		s.workspace[i] = complex(v*coeffs[i], 0)
	}

	if err := fft.Magnitude(s.workspace, s.frame.Bins, false); err != nil {
		return nil, err
	}
	s.frame.Amplitude = amplitude / float64(len(s.samples))
	s.frame.Time = seconds
	s.frame.Start = start
	s.computed = true
	return &s.frame, nil
}

// Frame returns the most recently computed frame, or nil before the first.
func (s *SpectrumAnalyzer) Frame() *SpectrumFrame {
	if !s.computed {
		return nil
	}
	return &s.frame
}

// Clone returns a deep copy of the frame.
func (f *SpectrumFrame) Clone() *SpectrumFrame {
	c := *f
	c.Bins = append([]float64(nil), f.Bins...)
	return &c
}

// Display returns the bins a consumer should see: the first
// ceil(displayRange*len(Bins)) bins multiplied by scale, written into dst
// (grown when too small). displayRange is clamped to (0, 1].
func (f *SpectrumFrame) Display(dst []float64, scale, displayRange float64) []float64 {
	if displayRange <= 0 || displayRange > 1 || math.IsNaN(displayRange) {
		displayRange = 1
	}
	n := int(math.Ceil(displayRange * float64(len(f.Bins))))
	n = min(n, len(f.Bins))
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = f.Bins[i] * scale
	}
	return dst
}
