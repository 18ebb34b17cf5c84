// SPDX-License-Identifier: MIT
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// ErrUnsupportedFormat is returned for file extensions no decoder handles.
var ErrUnsupportedFormat = errors.New("source: unsupported audio format")

// SupportedExtensions lists the file extensions LoadFile understands.
var SupportedExtensions = []string{".wav", ".mp3", ".flac", ".ogg"}

// LoadFile decodes an audio file into a mono Clip. The format is chosen by
// extension. Multi-channel audio is downmixed by averaging the channels of
// each frame, and integer PCM is normalised to [-1, 1).
func LoadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		samples []float64
		rate    int
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		samples, rate, err = decodeWAV(f)
	case ".mp3":
		samples, rate, err = decodeMP3(f)
	case ".flac":
		samples, rate, err = decodeFLAC(f)
	case ".ogg":
		samples, rate, err = decodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("source: decoding %s: %w", path, err)
	}

	return NewClip(ReadTitle(path), rate, samples)
}

// --- WAV ---

func decodeWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file")
	}
	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("WAV encoding %d is not integer PCM", dec.WavAudioFormat)
	}

	var buf *audio.IntBuffer
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	out, err := downmixPCM(buf.Data, buf.Format.NumChannels, int(dec.BitDepth))
	if err != nil {
		return nil, 0, err
	}
	return out, buf.Format.SampleRate, nil
}

// downmixPCM averages interleaved integer PCM into mono, normalised by the
// bit depth's full scale. 8-bit data is unsigned.
func downmixPCM(data []int, channels, bitDepth int) ([]float64, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("invalid bit depth %d", bitDepth)
	}
	fullScale := float64(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(data[i*channels+ch]-offset) / fullScale
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}

// --- MP3 ---

// go-mp3 always produces 16-bit little-endian stereo.
func decodeMP3(r io.Reader) ([]float64, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, err
	}

	const frameSize = 4
	frames := len(raw) / frameSize
	out := make([]float64, frames)
	for i := range frames {
		left := int16(binary.LittleEndian.Uint16(raw[i*frameSize:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*frameSize+2:]))
		out[i] = (float64(left) + float64(right)) / (2 * 32768.0)
	}
	return out, dec.SampleRate(), nil
}

// --- FLAC ---

func decodeFLAC(r io.Reader) ([]float64, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	if channels <= 0 || info.BitsPerSample == 0 {
		return nil, 0, fmt.Errorf("invalid FLAC stream: %d channels, %d bits", channels, info.BitsPerSample)
	}
	fullScale := float64(int64(1) << (info.BitsPerSample - 1))
	out := make([]float64, 0, info.NSamples)

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			var sum float64
			for ch := range channels {
				sum += float64(frame.Subframes[ch].Samples[i]) / fullScale
			}
			out = append(out, sum/float64(channels))
		}
	}
	return out, int(info.SampleRate), nil
}

// --- OGG Vorbis ---

func decodeOGG(r io.Reader) ([]float64, int, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}

	channels := format.Channels
	if channels <= 0 {
		return nil, 0, fmt.Errorf("invalid channel count %d", channels)
	}
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += float64(data[i*channels+ch])
		}
		out[i] = sum / float64(channels)
	}
	return out, format.SampleRate, nil
}
