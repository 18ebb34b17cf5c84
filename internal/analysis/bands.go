// SPDX-License-Identifier: MIT
package analysis

import "math"

// FrequencyBand defines the name and frequency range for an energy band.
// A HighHz of 0 extends the band to Nyquist.
type FrequencyBand struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the spectrum the way visualizers usually colour it.
var DefaultBands = []FrequencyBand{
	{Name: "sub", LowHz: 20, HighHz: 60},
	{Name: "bass", LowHz: 60, HighHz: 250},
	{Name: "lowMid", LowHz: 250, HighHz: 500},
	{Name: "mid", LowHz: 500, HighHz: 2000},
	{Name: "highMid", LowHz: 2000, HighHz: 4000},
	{Name: "treble", LowHz: 4000},
}

// BandLevel is the level of one band in a frame.
type BandLevel struct {
	Name  string  `json:"name"`
	Level float64 `json:"level"`
}

// BandEnergyProcessor reduces spectrum frames to per-band levels.
type BandEnergyProcessor struct {
	bands  []FrequencyBand
	energy []float64
	counts []int
	levels []BandLevel
}

// NewBandEnergyProcessor creates a processor for bands (DefaultBands if nil).
func NewBandEnergyProcessor(bands []FrequencyBand) *BandEnergyProcessor {
	if bands == nil {
		bands = DefaultBands
	}
	p := &BandEnergyProcessor{
		bands:  bands,
		energy: make([]float64, len(bands)),
		counts: make([]int, len(bands)),
		levels: make([]BandLevel, len(bands)),
	}
	for i, b := range bands {
		p.levels[i].Name = b.Name
	}
	return p
}

// Process computes the RMS magnitude of the bins in each band, normalised by
// Size/2 so a full-scale sine centred in a band reads about 1, and clamped to
// [0, 1]. The returned slice is reused by the next call.
func (p *BandEnergyProcessor) Process(frame *SpectrumFrame, w Window, sampleRate int) []BandLevel {
	for i := range p.bands {
		p.energy[i] = 0
		p.counts[i] = 0
	}

	nyquist := float64(sampleRate) / 2
	for k, mag := range frame.Bins {
		freq := w.BinFrequency(k, sampleRate)
		for i, band := range p.bands {
			high := band.HighHz
			if high <= 0 {
				high = nyquist
			}
			if freq >= band.LowHz && freq < high {
				p.energy[i] += mag * mag
				p.counts[i]++
				break
			}
		}
	}

	norm := float64(w.Size) / 2
	for i := range p.bands {
		level := 0.0
		if p.counts[i] > 0 {
			level = math.Sqrt(p.energy[i]/float64(p.counts[i])) / norm
		}
		p.levels[i].Level = math.Min(1.0, level)
	}
	return p.levels
}
