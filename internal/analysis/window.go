// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"clipscope/pkg/bitint"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the weighting applied to a spectrum window.
type WindowFunc int

// Enum for available window functions.
const (
	Hann WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hamming
	Lanczos
	Nuttall
	Rectangular
)

var windowNames = map[WindowFunc]string{
	Hann:            "hann",
	BartlettHann:    "bartletthann",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// Coefficient returns the Hann weight of position within a window of
// windowLength samples: 0.5 - 0.5*cos(2π*position/(windowLength-1)).
func Coefficient(position, windowLength int) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(position)/float64(windowLength-1))
}

// Window is an analysis window. Size is the nominal (power of two) analysis
// size; every read spans Len() = 2*Size samples.
type Window struct {
	Size int
}

// NewWindow snaps requested to the nearest power of two. A request that
// resolves to zero is an invalid configuration.
func NewWindow(requested int) (Window, error) {
	size := bitint.ClosestPowerOfTwo(requested)
	if size <= 0 {
		return Window{}, fmt.Errorf("%w: window size %d", ErrInvalidConfiguration, requested)
	}
	return Window{Size: size}, nil
}

// Len returns the number of samples read per analysis, 2*Size.
func (w Window) Len() int { return 2 * w.Size }

// BinFrequency returns the centre frequency in Hz of a spectrum bin,
// bin*sampleRate/(2*Size).
func (w Window) BinFrequency(bin, sampleRate int) float64 {
	return float64(bin) * float64(sampleRate) / float64(w.Len())
}

// start returns the first sample of the window centred on center, shifted
// so the whole window stays inside [0, total). The window never shrinks.
func (w Window) start(center, total int) (int, error) {
	if total <= 0 {
		return 0, fmt.Errorf("%w: source has no samples", ErrInvalidState)
	}
	if w.Len() > total {
		return 0, fmt.Errorf("%w: window of %d samples does not fit a %d-sample source",
			ErrInvalidState, w.Len(), total)
	}
	return min(max(center-w.Size, 0), total-w.Len()), nil
}

// centerSample converts a time in seconds to the nearest sample index. The
// result is saturated just outside [0, total] so extreme or non-finite
// times cannot overflow.
func centerSample(seconds float64, sampleRate, total int) int {
	c := math.Round(seconds * float64(sampleRate))
	switch {
	case math.IsNaN(c), c < -1:
		return -1
	case c > float64(total)+1:
		return total + 1
	}
	return int(c)
}

// WindowTable holds precomputed coefficients for one window length.
type WindowTable struct {
	Func   WindowFunc
	Coeffs []float64
	Sum    float64
}

// NewWindowTable computes the coefficients of fn over length samples.
func NewWindowTable(fn WindowFunc, length int) *WindowTable {
	coeffs := make([]float64, length)
	applyWindow(coeffs, fn)

	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return &WindowTable{Func: fn, Coeffs: coeffs, Sum: sum}
}

// applyWindow fills coeffs with the selected window. The slice is set to
// 1.0 first because the gonum window functions scale in place.
func applyWindow(coeffs []float64, fn WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch fn {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Rectangular:
		window.Rectangular(coeffs)
	default:
		window.Hann(coeffs)
	}
}
