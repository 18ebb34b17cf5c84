// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestNewWindow(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
		wantErr   bool
	}{
		{"Exact Power", 1024, 1024, false},
		{"Round Up", 1000, 1024, false},
		{"Round Down", 700, 512, false},
		{"Tie Rounds Up", 1536, 2048, false},
		{"One", 1, 1, false},
		{"Zero", 0, 0, true},
		{"Negative", -8, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWindow(tt.requested)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("NewWindow(%d) error = %v, want ErrInvalidConfiguration", tt.requested, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewWindow(%d) unexpected error: %v", tt.requested, err)
			}
			if w.Size != tt.want || w.Len() != 2*tt.want {
				t.Errorf("NewWindow(%d) = {Size %d, Len %d}, want Size %d", tt.requested, w.Size, w.Len(), tt.want)
			}
		})
	}
}

func TestWindowStart(t *testing.T) {
	w := Window{Size: 4} // Len 8.
	tests := []struct {
		name   string
		center int
		total  int
		want   int
	}{
		{"Centred", 10, 100, 6},
		{"Clamped Left", 2, 100, 0},
		{"Before Start", -1, 100, 0},
		{"Clamped Right", 98, 100, 92},
		{"Past End", 101, 100, 92},
		{"Exact Fit", 4, 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.start(tt.center, tt.total)
			if err != nil {
				t.Fatalf("start(%d, %d) error = %v", tt.center, tt.total, err)
			}
			if got != tt.want {
				t.Errorf("start(%d, %d) = %d, want %d", tt.center, tt.total, got, tt.want)
			}
			if got < 0 || got+w.Len() > tt.total {
				t.Errorf("window [%d, %d) escapes [0, %d)", got, got+w.Len(), tt.total)
			}
		})
	}

	for _, total := range []int{0, 7} {
		if _, err := w.start(0, total); !errors.Is(err, ErrInvalidState) {
			t.Errorf("start(0, %d) error = %v, want ErrInvalidState", total, err)
		}
	}
}

func TestCenterSampleSaturates(t *testing.T) {
	tests := []struct {
		seconds float64
		want    int
	}{
		{0, 0},
		{0.5, 22050},
		{-3, -1},
		{1e300, 44101},
		{math.Inf(1), 44101},
		{math.Inf(-1), -1},
		{math.NaN(), -1},
	}
	for _, tt := range tests {
		if got := centerSample(tt.seconds, testSampleRate, testSampleRate); got != tt.want {
			t.Errorf("centerSample(%v) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestBinFrequency(t *testing.T) {
	w := Window{Size: testSize}
	if got := w.BinFrequency(0, testSampleRate); got != 0 {
		t.Errorf("BinFrequency(0) = %f, want 0", got)
	}
	want := 93.0 * testSampleRate / 2048
	if got := w.BinFrequency(93, testSampleRate); math.Abs(got-want) > tolerance {
		t.Errorf("BinFrequency(93) = %f, want %f", got, want)
	}
}

func TestCoefficient(t *testing.T) {
	const length = 2048
	if c := Coefficient(0, length); math.Abs(c) > tolerance {
		t.Errorf("Coefficient(0) = %g, want 0", c)
	}
	if c := Coefficient(length-1, length); math.Abs(c) > tolerance {
		t.Errorf("Coefficient(last) = %g, want 0", c)
	}
	for i := range length / 2 {
		if d := Coefficient(i, length) - Coefficient(length-1-i, length); math.Abs(d) > 1e-9 {
			t.Fatalf("window is not symmetric at %d (diff %g)", i, d)
		}
	}
}

func TestWindowTableHannMatchesCoefficient(t *testing.T) {
	const length = 512
	table := NewWindowTable(Hann, length)

	var sum float64
	for i := range length {
		c := Coefficient(i, length)
		sum += c
		if math.Abs(table.Coeffs[i]-c) > 1e-12 {
			t.Fatalf("Coeffs[%d] = %g, want %g", i, table.Coeffs[i], c)
		}
	}
	if math.Abs(table.Sum-sum) > 1e-9 {
		t.Errorf("Sum = %g, want %g", table.Sum, sum)
	}
}

func TestWindowTableRectangular(t *testing.T) {
	table := NewWindowTable(Rectangular, 64)
	if table.Sum != 64 {
		t.Errorf("rectangular Sum = %f, want 64", table.Sum)
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		input   string
		want    WindowFunc
		wantErr bool
	}{
		{"", Hann, false},
		{"Hann", Hann, false},
		{" blackman ", Blackman, false},
		{"BlackmanNuttall", BlackmanNuttall, false},
		{"none", Rectangular, false},
		{"triangle", Hann, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	for fn := Hann; fn <= Rectangular; fn++ {
		if got, err := ParseWindowFunc(fn.String()); err != nil || got != fn {
			t.Errorf("ParseWindowFunc(%q) = %v, %v; want %v", fn.String(), got, err, fn)
		}
	}
}
