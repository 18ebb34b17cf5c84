// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"clipscope/internal/source"
)

const (
	testSampleRate = 44100
	testSize       = 1024
	tolerance      = 1e-12
)

func newTestClip(t testing.TB, samples []float64) *source.Clip {
	t.Helper()
	clip, err := source.NewClip("test", testSampleRate, samples)
	if err != nil {
		t.Fatalf("NewClip() error = %v", err)
	}
	return clip
}
