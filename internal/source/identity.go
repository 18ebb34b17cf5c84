// SPDX-License-Identifier: MIT
package source

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/cespare/xxhash/v2"
)

const fingerprintChunk = 4096

// Fingerprint returns a content hash of src (sample rate and every sample),
// used to key cached envelopes. Two sources with identical audio share a
// fingerprint regardless of where they were loaded from.
func Fingerprint(src Source) (string, error) {
	d := xxhash.New()

	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], uint64(src.SampleRate()))
	_, _ = d.Write(word[:])

	chunk := make([]float64, fingerprintChunk)
	raw := make([]byte, 8*fingerprintChunk)
	for start := 0; start < src.Len(); start += fingerprintChunk {
		n := min(fingerprintChunk, src.Len()-start)
		if err := src.ReadSamples(start, chunk[:n]); err != nil {
			return "", fmt.Errorf("source: fingerprinting: %w", err)
		}
		for i, s := range chunk[:n] {
			binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(s))
		}
		_, _ = d.Write(raw[:n*8])
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}

// ReadTitle returns a display name for an audio file: the ID3 title (with
// artist when present) for tagged MP3s, otherwise the base file name without
// its extension.
func ReadTitle(path string) string {
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return fallback
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fallback
	}
	defer tag.Close()

	title := strings.TrimSpace(tag.Title())
	if title == "" {
		return fallback
	}
	if artist := strings.TrimSpace(tag.Artist()); artist != "" {
		return artist + " - " + title
	}
	return title
}
