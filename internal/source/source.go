// SPDX-License-Identifier: MIT
/*
Package source provides random-access sample sources for the analysis core.

A Source is a fixed-length, mono, float sample sequence at a known sample
rate. Analyzers borrow it read-only and pull windows with ReadSamples; they
never hold on to the returned data. Files are decoded eagerly into a Clip
(see LoadFile) so every read afterwards is a bounds check and a copy.
*/
package source

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a read falls outside [0, Len()).
var ErrOutOfRange = errors.New("source: sample range out of bounds")

// Source is a read-only, random-access mono sample sequence.
type Source interface {
	// SampleRate returns the number of samples per second.
	SampleRate() int
	// Len returns the total number of samples.
	Len() int
	// ReadSamples copies len(dst) samples starting at start into dst.
	// It fails with ErrOutOfRange rather than zero-filling.
	ReadSamples(start int, dst []float64) error
}

// Duration returns the length of src in seconds, 0 for an invalid rate.
func Duration(src Source) float64 {
	if src.SampleRate() <= 0 {
		return 0
	}
	return float64(src.Len()) / float64(src.SampleRate())
}

// Clip is an in-memory Source holding a whole decoded signal.
type Clip struct {
	name       string
	sampleRate int
	samples    []float64
}

// Compile-time check for interface implementation.
var _ Source = (*Clip)(nil)

// NewClip wraps samples as a Source. The slice is owned by the clip from
// here on and must not be modified by the caller.
func NewClip(name string, sampleRate int, samples []float64) (*Clip, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("source: sample rate must be positive, got %d", sampleRate)
	}
	return &Clip{name: name, sampleRate: sampleRate, samples: samples}, nil
}

// Name returns the clip's display name.
func (c *Clip) Name() string { return c.name }

// SampleRate implements Source.
func (c *Clip) SampleRate() int { return c.sampleRate }

// Len implements Source.
func (c *Clip) Len() int { return len(c.samples) }

// ReadSamples implements Source.
func (c *Clip) ReadSamples(start int, dst []float64) error {
	end := start + len(dst)
	if start < 0 || end > len(c.samples) || end < start {
		return fmt.Errorf("%w: [%d, %d) of %d samples", ErrOutOfRange, start, end, len(c.samples))
	}
	copy(dst, c.samples[start:end])
	return nil
}
