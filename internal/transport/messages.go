// SPDX-License-Identifier: MIT
package transport

import "clipscope/internal/analysis"

// Message type tags, sent as the "type" field.
const (
	TypeUpdate   = "update"
	TypeWaveform = "waveform"
)

// Update is published once per engine tick.
type Update struct {
	Type      string  `json:"type"`
	Session   string  `json:"session"`
	Sequence  uint64  `json:"seq"`
	Time      float64 `json:"time"`      // Playback position in seconds.
	Amplitude float64 `json:"amplitude"` // Runtime amplitude, 0 unless computed at runtime.
	Envelope  float64 `json:"envelope"`  // Precomputed envelope sampled at Time, 0 without one.

	// Spectrum is set only on ticks that produced a frame which passed the
	// noise gate. Bins are already scaled and trimmed to the display range.
	Spectrum          []float64            `json:"spectrum,omitempty"`
	SpectrumAmplitude float64              `json:"spectrumAmplitude,omitempty"`
	Bands             []analysis.BandLevel `json:"bands,omitempty"`
}

// HasSpectrum reports whether the update carries a new spectrum frame.
func (u *Update) HasSpectrum() bool { return u.Spectrum != nil }

// Waveform carries a complete precomputed envelope.
type Waveform struct {
	Type       string    `json:"type"`
	Session    string    `json:"session"`
	Clip       string    `json:"clip"`
	Duration   float64   `json:"duration"`   // Clip length in seconds.
	Resolution int       `json:"resolution"` // Points per second.
	Values     []float64 `json:"values"`
	Cached     bool      `json:"cached"` // Served from the envelope cache.
}

// Retain implements Retainer; late consumers need the envelope to draw.
func (*Waveform) Retain() bool { return true }

var _ Retainer = (*Waveform)(nil)
