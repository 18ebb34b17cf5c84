// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"

	"clipscope/pkg/utils"
)

func newTestAmplitude(t testing.TB, cfg AmplitudeConfig) *AmplitudeAnalyzer {
	t.Helper()
	a, err := NewAmplitudeAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAmplitudeAnalyzer() error = %v", err)
	}
	return a
}

func TestEnvelopeSilentClip(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
	}{
		{"Window 1024", 1024},
		{"Window 8192", 8192},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := newTestClip(t, make([]float64, testSampleRate))
			a := newTestAmplitude(t, AmplitudeConfig{WindowSize: tt.windowSize, Scale: 5, Weighted: true})

			env, err := a.Envelope(clip, 20)
			if err != nil {
				t.Fatalf("Envelope() error = %v", err)
			}
			if len(env) != 20 {
				t.Fatalf("len(Envelope()) = %d, want 20", len(env))
			}
			for i, v := range env {
				if v != 0 {
					t.Errorf("env[%d] = %g, want 0", i, v)
				}
			}
		})
	}
}

func TestEnvelopeLength(t *testing.T) {
	tests := []struct {
		name       string
		samples    int
		resolution int
		want       int
	}{
		{"One Second", testSampleRate, 20, 20},
		{"Half Rounds Up", testSampleRate * 3 / 2, 15, 23},
		{"Fractional", testSampleRate + testSampleRate/10, 20, 22},
		{"High Resolution", testSampleRate * 2, 100, 200},
	}
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 256, Scale: 1, Weighted: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := newTestClip(t, make([]float64, tt.samples))
			env, err := a.Envelope(clip, tt.resolution)
			if err != nil {
				t.Fatal(err)
			}
			if len(env) != tt.want {
				t.Errorf("len(Envelope()) = %d, want %d", len(env), tt.want)
			}
		})
	}
}

func TestEnvelopeRejectsResolution(t *testing.T) {
	clip := newTestClip(t, make([]float64, testSampleRate))
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 256, Scale: 1})
	for _, res := range []int{0, -20} {
		if _, err := a.Envelope(clip, res); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Envelope(res %d) error = %v, want ErrInvalidConfiguration", res, err)
		}
	}
}

func TestAmplitudeWindowLargerThanClip(t *testing.T) {
	tests := []struct {
		name    string
		samples int
	}{
		{"Short Clip", 1000},
		{"Empty Clip", 0},
	}
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 1024, Scale: 1})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := newTestClip(t, make([]float64, tt.samples))
			if _, err := a.Instant(clip, 0); !errors.Is(err, ErrInvalidState) {
				t.Errorf("Instant() error = %v, want ErrInvalidState", err)
			}
			// round(20 * duration) is 0 here, so no lattice point is read.
			env, err := a.Envelope(clip, 20)
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("Envelope() error = %v, want ErrInvalidState", err)
			}
			if env != nil {
				t.Errorf("Envelope() = %v, want nil", env)
			}
		})
	}
}

func TestInstantImpulse(t *testing.T) {
	const (
		center = testSampleRate / 2
		scale  = 5.0
	)
	clip := newTestClip(t, utils.GenerateImpulse(testSampleRate, center))
	seconds := float64(center) / testSampleRate

	t.Run("Weighted", func(t *testing.T) {
		a := newTestAmplitude(t, AmplitudeConfig{WindowSize: testSize, Scale: scale, Weighted: true})
		var sum float64
		for i := range 2 * testSize {
			sum += Coefficient(i, 2*testSize)
		}
		want := Coefficient(testSize, 2*testSize) / sum * scale

		got, err := a.Instant(clip, seconds)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("Instant() = %g, want %g", got, want)
		}
	})

	t.Run("Unweighted", func(t *testing.T) {
		a := newTestAmplitude(t, AmplitudeConfig{WindowSize: testSize, Scale: scale, Weighted: false})
		want := 1.0 / (2 * testSize) * scale

		got, err := a.Instant(clip, seconds)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-15 {
			t.Errorf("Instant() = %g, want %g", got, want)
		}
	})
}

func TestInstantConstantSignal(t *testing.T) {
	// A constant |x| reads as that value times scale whatever the weighting.
	clip := newTestClip(t, utils.GenerateConstant(testSampleRate, -0.25))
	for _, weighted := range []bool{true, false} {
		a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 2048, Scale: 2, Weighted: weighted})
		got, err := a.Instant(clip, 0.3)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-0.5) > 1e-12 {
			t.Errorf("Instant(weighted=%v) = %g, want 0.5", weighted, got)
		}
	}
}

func TestInstantMatchesEnvelope(t *testing.T) {
	const resolution = 20
	clip := newTestClip(t, utils.GenerateComplexWave(3*testSampleRate, testSampleRate))
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 4096, Scale: 5, Weighted: true})

	env, err := a.Envelope(clip, resolution)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range env {
		got, err := a.Instant(clip, float64(i)/resolution)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > tolerance {
			t.Errorf("Instant(%d/%d) = %g, envelope[%d] = %g", i, resolution, got, i, want)
		}
	}
}

func TestInstantLinearInScale(t *testing.T) {
	clip := newTestClip(t, utils.GenerateSineWave(testSampleRate, testSampleRate, 440, 0.8))
	base := newTestAmplitude(t, AmplitudeConfig{WindowSize: 2048, Scale: 1, Weighted: true})
	scaled := newTestAmplitude(t, AmplitudeConfig{WindowSize: 2048, Scale: 3.5, Weighted: true})

	for _, sec := range []float64{0, 0.25, 0.5, 0.99} {
		b, _ := base.Instant(clip, sec)
		s, _ := scaled.Instant(clip, sec)
		if math.Abs(s-3.5*b) > 1e-12 {
			t.Errorf("Instant(%v) with scale 3.5 = %g, want %g", sec, s, 3.5*b)
		}
	}
}

func TestInstantClampsOutOfRangeTimes(t *testing.T) {
	clip := newTestClip(t, utils.GenerateComplexWave(testSampleRate, testSampleRate))
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 2048, Scale: 1, Weighted: true})

	first, _ := a.Instant(clip, 0)
	last, _ := a.Instant(clip, 1)

	tests := []struct {
		name    string
		seconds float64
		want    float64
	}{
		{"Negative", -5, first},
		{"Inside Left Margin", 0.01, first},
		{"Past End", 100, last},
		{"Infinite", math.Inf(1), last},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Instant(clip, tt.seconds)
			if err != nil {
				t.Fatalf("Instant(%v) error = %v", tt.seconds, err)
			}
			if got != tt.want {
				t.Errorf("Instant(%v) = %g, want %g", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestInstantHotPath(t *testing.T) {
	clip := newTestClip(t, utils.GenerateComplexWave(testSampleRate, testSampleRate))
	a := newTestAmplitude(t, AmplitudeConfig{WindowSize: 8192, Scale: 5, Weighted: true})

	_, _ = a.Instant(clip, 0.5)
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = a.Instant(clip, 0.5)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Instant, got %.1f", allocs)
	}
}

func BenchmarkEnvelope(b *testing.B) {
	clip := newTestClip(b, utils.GenerateComplexWave(10*testSampleRate, testSampleRate))
	a := newTestAmplitude(b, AmplitudeConfig{WindowSize: 8192, Scale: 5, Weighted: true})

	b.ReportAllocs()
	for b.Loop() {
		_, _ = a.Envelope(clip, 20)
	}
}
