// SPDX-License-Identifier: MIT
/*
Package fft implements an in-place radix-2 decimation-in-time FFT over
complex128 sequences whose length is a power of 2.

The spectrum path feeds it a Hann-weighted window of 2*N real samples and
keeps the first N magnitude bins. For real input the upper half is the
Hermitian mirror of the lower half, so dropping it loses nothing.

Algorithm:
 1. Bit-reversal permutation of the input indices
 2. log2(N) butterfly stages, each combining pairs (a, b) as
    a' = a + w*b and b' = a - w*b with twiddle w = e^(-2πik/size)
    (e^(+2πik/size) for the inverse)
 3. Inverse only: scale every value by 1/N

Twiddle factors are computed by recurrence within each stage, so a transform
performs no allocations and no per-butterfly trigonometry.
*/
package fft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"clipscope/pkg/bitint"
)

// ErrInvalidInput is returned when a sequence length is not a power of 2.
// It indicates a buffer sizing bug upstream, not a runtime condition.
var ErrInvalidInput = errors.New("fft: input length is not a power of two")

// Transform computes the discrete Fourier transform of x in place. The
// inverse transform is scaled by 1/len(x), so Transform(x, true) undoes
// Transform(x, false).
func Transform(x []complex128, inverse bool) error {
	n := len(x)
	if !bitint.IsPowerOfTwo(n) {
		return fmt.Errorf("%w: length %d", ErrInvalidInput, n)
	}
	if n == 1 {
		return nil
	}

	// Bit-reversal permutation.
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
		if i < j {
			x[i], x[j] = x[j], x[i]
		}
	}

	sign := -1.0
	if inverse {
		sign = 1.0
	}

	// Butterfly stages.
	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		theta := sign * 2 * math.Pi / float64(size)
		step := complex(math.Cos(theta), math.Sin(theta))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				a := start + k
				b := a + half
				t := w * x[b]
				x[b] = x[a] - t
				x[a] += t
				w *= step
			}
		}
	}

	if inverse {
		scale := complex(1/float64(n), 0)
		for i := range x {
			x[i] *= scale
		}
	}
	return nil
}

// Magnitude transforms x in place and writes |X[k]| for the first len(out)
// bins into out. out may be shorter than x; it may not be longer.
func Magnitude(x []complex128, out []float64, inverse bool) error {
	if len(out) > len(x) {
		return fmt.Errorf("%w: %d output bins requested from a %d-point transform",
			ErrInvalidInput, len(out), len(x))
	}
	if err := Transform(x, inverse); err != nil {
		return err
	}
	for k := range out {
		out[k] = cmplx.Abs(x[k])
	}
	return nil
}

// Stages returns the number of butterfly stages for an n-point transform.
func Stages(n int) (int, error) {
	if !bitint.IsPowerOfTwo(n) {
		return 0, fmt.Errorf("%w: length %d", ErrInvalidInput, n)
	}
	return bitint.Log2(n), nil
}
