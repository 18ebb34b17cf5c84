// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"clipscope/internal/source"
)

// AmplitudeConfig configures an AmplitudeAnalyzer.
type AmplitudeConfig struct {
	WindowSize int     // Requested window size, snapped to the nearest power of two.
	Scale      float64 // Gain applied to every result.
	Weighted   bool    // Weight samples with the Hann window instead of uniformly.
}

// AmplitudeAnalyzer computes normalised mean absolute amplitude over a
// window of samples, either for one playback time or for a whole clip.
type AmplitudeAnalyzer struct {
	window   Window
	scale    float64
	weighted bool
	table    *WindowTable // Hann coefficients over Window.Len().
	samples  []float64    // Window workspace, Window.Len() long.
}

// NewAmplitudeAnalyzer allocates the analyzer's window workspace.
func NewAmplitudeAnalyzer(cfg AmplitudeConfig) (*AmplitudeAnalyzer, error) {
	w, err := NewWindow(cfg.WindowSize)
	if err != nil {
		return nil, err
	}
	return &AmplitudeAnalyzer{
		window:   w,
		scale:    cfg.Scale,
		weighted: cfg.Weighted,
		table:    NewWindowTable(Hann, w.Len()),
		samples:  make([]float64, w.Len()),
	}, nil
}

// Window returns the effective (snapped) analysis window.
func (a *AmplitudeAnalyzer) Window() Window { return a.window }

// Instant returns the amplitude of the window centred on seconds. Times
// before the start or past the end of the clip return the boundary window's
// value.
func (a *AmplitudeAnalyzer) Instant(src source.Source, seconds float64) (float64, error) {
	center := centerSample(seconds, src.SampleRate(), src.Len())
	return a.at(src, center)
}

// Envelope computes one amplitude per lattice point over the whole clip,
// resolution points per second, round(resolution*duration) points in total.
// Point i is centred on sample round(i*sampleRate/resolution).
func (a *AmplitudeAnalyzer) Envelope(src source.Source, resolution int) (WaveformBuffer, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: waveform resolution %d", ErrInvalidConfiguration, resolution)
	}
	// Fail like Instant even when the lattice is empty.
	if _, err := a.window.start(0, src.Len()); err != nil {
		return nil, err
	}

	rate := float64(src.SampleRate())
	n := int(math.Round(float64(resolution) * source.Duration(src)))
	envelope := make(WaveformBuffer, n)
	for i := range envelope {
		center := int(math.Round(float64(i) * rate / float64(resolution)))
		v, err := a.at(src, center)
		if err != nil {
			return nil, err
		}
		envelope[i] = v
	}
	return envelope, nil
}

func (a *AmplitudeAnalyzer) at(src source.Source, center int) (float64, error) {
	start, err := a.window.start(center, src.Len())
	if err != nil {
		return 0, err
	}
	if err := src.ReadSamples(start, a.samples); err != nil {
		return 0, fmt.Errorf("analysis: reading amplitude window at %d: %w", start, err)
	}
	return a.reduce(), nil
}

// reduce computes Σ|s|·w / Σw · scale over the workspace, with w ≡ 1 and
// Σw = Len() when weighting is off.
func (a *AmplitudeAnalyzer) reduce() float64 {
	var sum float64
	if !a.weighted {
		for _, s := range a.samples {
			sum += math.Abs(s)
		}
		return sum / float64(len(a.samples)) * a.scale
	}

	coeffs := a.table.Coeffs
	for i, s := range a.samples {
		sum += math.Abs(s) * coeffs[i]
	}
	return sum / a.table.Sum * a.scale
}
