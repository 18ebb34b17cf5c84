// SPDX-License-Identifier: MIT
/*
Package analysis is the audio signal analysis core: windowed amplitude
extraction (a single real-time query and a precomputed envelope), FFT
magnitude spectra, and interpolated lookups into a precomputed envelope.

Every analyzer reads a window of 2*Size samples centred on a playback time
and clamped to stay inside the clip. Near either end the window shifts
instead of shrinking, so the first and last few envelope values repeat.
Visual consumers rely on that flattening, so it is kept as is.

Analyzers own their scratch buffers and are not safe for concurrent use.
The sample source is borrowed per call and only read.
*/
package analysis

import "errors"

var (
	// ErrInvalidConfiguration reports a configuration the analyzers cannot
	// run with: a size resolving to zero, a non-positive resolution, or a
	// missing source or clock.
	ErrInvalidConfiguration = errors.New("analysis: invalid configuration")

	// ErrInvalidState reports a source the window cannot be read from:
	// empty, or shorter than one window.
	ErrInvalidState = errors.New("analysis: invalid state")
)
