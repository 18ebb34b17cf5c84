// SPDX-License-Identifier: MIT
package config

import "clipscope/internal/analysis"

// Amplitude returns the amplitude analyzer settings.
func (a AnalysisConfig) Amplitude() analysis.AmplitudeConfig {
	return analysis.AmplitudeConfig{
		WindowSize: a.WindowSize,
		Scale:      a.AmplitudeScale,
		Weighted:   a.UseWindowCoefficient,
	}
}

// Spectrum returns the spectrum analyzer settings. An unknown window
// function name falls back to Hann; Validate reports it.
func (a AnalysisConfig) Spectrum() analysis.SpectrumConfig {
	fn, _ := analysis.ParseWindowFunc(a.WindowFunction)
	return analysis.SpectrumConfig{
		Size:     a.SpectrumSize,
		TimeStep: a.TimeStep,
		Window:   fn,
	}
}
