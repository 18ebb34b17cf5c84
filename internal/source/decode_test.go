// SPDX-License-Identifier: MIT
package source

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// encodeFLAC writes a 16-bit stereo stream with left on the first channel
// and silence on the second, in blocks of blockSize samples.
func encodeFLAC(t *testing.T, left []int32, blockSize int) []byte {
	t.Helper()
	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    testSampleRate,
		NChannels:     2,
		BitsPerSample: 16,
		NSamples:      uint64(len(left)),
	}
	var buf bytes.Buffer
	enc, err := flac.NewEncoder(&buf, info)
	if err != nil {
		t.Fatalf("flac.NewEncoder() error = %v", err)
	}
	for offset := 0; offset < len(left); offset += blockSize {
		n := min(blockSize, len(left)-offset)
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        testSampleRate,
				Channels:          frame.ChannelsLR,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: append([]int32(nil), left[offset:offset+n]...), NSamples: n},
				{SubHeader: frame.SubHeader{Pred: frame.PredVerbatim}, Samples: make([]int32, n), NSamples: n},
			},
		}
		if err := enc.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("flac Close() error = %v", err)
	}
	return buf.Bytes()
}

// silentMP3 returns MPEG-1 Layer III frames (128 kbit/s, 44.1 kHz, stereo)
// whose side info and main data are all zero, which decode to silence.
func silentMP3(frames int) []byte {
	const frameLen = 417
	out := make([]byte, frames*frameLen)
	for i := range frames {
		copy(out[i*frameLen:], []byte{0xFF, 0xFB, 0x90, 0x00})
	}
	return out
}

func TestDownmixPCM(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		channels int
		bitDepth int
		want     []float64
		wantErr  bool
	}{
		{"Mono 16-bit", []int{16384, -32768}, 1, 16, []float64{0.5, -1}, false},
		{"Stereo 16-bit", []int{16384, 0, -16384, -16384}, 2, 16, []float64{0.25, -0.5}, false},
		{"Unsigned 8-bit", []int{128, 255, 0}, 1, 8, []float64{0, 127.0 / 128.0, -1}, false},
		{"Partial Frame Dropped", []int{16384, 16384, 5}, 2, 16, []float64{0.5}, false},
		{"Zero Channels", []int{1, 2}, 0, 16, nil, true},
		{"Zero Bit Depth", []int{1, 2}, 1, 0, nil, true},
		{"Oversized Bit Depth", []int{1, 2}, 1, 64, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := downmixPCM(tt.data, tt.channels, tt.bitDepth)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("downmixPCM() = %v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("downmixPCM() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("sample %d = %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeFLACDownmixesStereo(t *testing.T) {
	left := make([]int32, 2500)
	for i := range left {
		left[i] = int32(i*13%32768 - 16384)
	}
	data := encodeFLAC(t, left, 1024)

	got, rate, err := decodeFLAC(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decodeFLAC() error = %v", err)
	}
	if rate != testSampleRate {
		t.Errorf("rate = %d, want %d", rate, testSampleRate)
	}
	if len(got) != len(left) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(left))
	}
	for i, v := range left {
		want := float64(v) / 32768 / 2
		if math.Abs(got[i]-want) > 1e-12 {
			t.Fatalf("sample %d = %f, want %f", i, got[i], want)
		}
	}
}

func TestLoadFileFLAC(t *testing.T) {
	left := []int32{0, 8192, 16384, 8192, 0, -8192, -16384, -8192}
	path := filepath.Join(t.TempDir(), "ramp.flac")
	if err := os.WriteFile(path, encodeFLAC(t, left, 16), 0o644); err != nil {
		t.Fatal(err)
	}

	clip, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if clip.Len() != len(left) || clip.Name() != "ramp" {
		t.Errorf("clip = %q with %d samples, want ramp with %d", clip.Name(), clip.Len(), len(left))
	}
}

func TestDecodeMP3Silence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.mp3")
	if err := os.WriteFile(path, silentMP3(20), 0o644); err != nil {
		t.Fatal(err)
	}

	clip, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if clip.SampleRate() != testSampleRate {
		t.Errorf("SampleRate() = %d, want %d", clip.SampleRate(), testSampleRate)
	}
	if clip.Len() == 0 {
		t.Fatal("decoded no samples")
	}
	if clip.Name() != "silence" {
		t.Errorf("Name() = %q, want the file name for an untagged MP3", clip.Name())
	}
	samples := make([]float64, clip.Len())
	if err := clip.ReadSamples(0, samples); err != nil {
		t.Fatal(err)
	}
	for i, v := range samples {
		if v != 0 {
			t.Fatalf("sample %d = %f, want silence", i, v)
		}
	}
}

func TestDecodeMP3Invalid(t *testing.T) {
	if _, _, err := decodeMP3(bytes.NewReader([]byte("not an mp3 stream"))); err == nil {
		t.Error("expected error for garbage MP3 data")
	}
}

func TestLoadFileOGG(t *testing.T) {
	// One second of mono Vorbis at 44.1 kHz peaking just under 0.83.
	clip, err := LoadFile(filepath.Join("testdata", "vorbis.ogg"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if clip.SampleRate() != testSampleRate {
		t.Errorf("SampleRate() = %d, want %d", clip.SampleRate(), testSampleRate)
	}
	if clip.Len() != testSampleRate {
		t.Fatalf("Len() = %d, want %d", clip.Len(), testSampleRate)
	}

	samples := make([]float64, clip.Len())
	if err := clip.ReadSamples(0, samples); err != nil {
		t.Fatal(err)
	}
	var peak float64
	for _, v := range samples {
		peak = max(peak, math.Abs(v))
	}
	if math.Abs(peak-0.829) > 0.01 {
		t.Errorf("peak = %f, want about 0.829", peak)
	}
}

func TestDecodeOGGInvalid(t *testing.T) {
	if _, _, err := decodeOGG(bytes.NewReader([]byte("OggS but not really"))); err == nil {
		t.Error("expected error for garbage Vorbis data")
	}
}
