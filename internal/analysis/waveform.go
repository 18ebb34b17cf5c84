// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WaveformBuffer is a precomputed amplitude envelope: one value per lattice
// point, resolution points per second across the whole clip. It is treated
// as immutable once published.
type WaveformBuffer []float64

// Peak returns the largest value, 0 for an empty buffer.
func (w WaveformBuffer) Peak() float64 {
	if len(w) == 0 {
		return 0
	}
	return floats.Max(w)
}

// Mean returns the average value, 0 for an empty buffer.
func (w WaveformBuffer) Mean() float64 {
	if len(w) == 0 {
		return 0
	}
	return floats.Sum(w) / float64(len(w))
}

// Normalized returns a copy scaled so the peak is 1. A silent buffer is
// returned as a zeroed copy.
func (w WaveformBuffer) Normalized() WaveformBuffer {
	out := make(WaveformBuffer, len(w))
	copy(out, w)
	if peak := w.Peak(); peak > 0 {
		floats.Scale(1/peak, out)
	}
	return out
}

// Sample returns the envelope value at seconds by linear interpolation
// between the two lattice points around it. Lattice point i sits at
// i*totalDuration/len(w). Queries before the first or after the last point
// saturate to the first or last value; an empty buffer yields 0.
func Sample(w WaveformBuffer, totalDuration, seconds float64) float64 {
	switch {
	case len(w) == 0:
		return 0
	case len(w) == 1, totalDuration <= 0, math.IsNaN(seconds):
		return w[0]
	}

	step := totalDuration / float64(len(w))
	pos := min(max(seconds/step, -1), float64(len(w)))
	lower := min(max(int(math.Floor(pos)), 0), len(w)-2)
	upper := lower + 1

	frac := min(max(pos-float64(lower), 0), 1)
	return w[lower] + (w[upper]-w[lower])*frac
}
