// SPDX-License-Identifier: MIT
/*
Package cache stores precomputed amplitude envelopes so a clip is only
swept once per analysis configuration.

An envelope is a pure function of the clip's samples and the settings that
shape it, so the Key carries the clip fingerprint and every one of those
settings. Changing any of them misses the cache and forces a recompute.
*/
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"clipscope/internal/analysis"
	"clipscope/internal/config"
)

// ErrMiss is returned by Get when no envelope is stored under the key.
var ErrMiss = errors.New("cache: miss")

// Key identifies one envelope.
type Key struct {
	Fingerprint string  // source.Fingerprint of the clip.
	WindowSize  int     // Effective (snapped) window size.
	Resolution  int     // Envelope points per second.
	Weighted    bool    // Hann weighting on.
	Scale       float64 // Amplitude scale.
}

// String returns the storage key, e.g.
// "clipscope:envelope:9f86d081884c7d65:w8192:r20:h0:s5".
func (k Key) String() string {
	weighted := 0
	if k.Weighted {
		weighted = 1
	}
	return fmt.Sprintf("clipscope:envelope:%s:w%d:r%d:h%d:s%s",
		k.Fingerprint, k.WindowSize, k.Resolution, weighted,
		strconv.FormatFloat(k.Scale, 'g', -1, 64))
}

// Store is an envelope cache.
type Store interface {
	// Get returns the envelope stored under key, or ErrMiss.
	Get(ctx context.Context, key Key) (analysis.WaveformBuffer, error)
	// Put stores a copy of envelope under key.
	Put(ctx context.Context, key Key, envelope analysis.WaveformBuffer) error
	Close() error
}

// New returns the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheNone, "":
		return Nop{}, nil
	case config.CacheMemory:
		return NewMemory(cfg.TTL), nil
	case config.CacheRedis:
		return NewRedis(ctx, RedisOptions{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("%w: cache backend %q", analysis.ErrInvalidConfiguration, cfg.Backend)
	}
}

// Nop is a Store that never holds anything.
type Nop struct{}

// Get implements Store.
func (Nop) Get(context.Context, Key) (analysis.WaveformBuffer, error) { return nil, ErrMiss }

// Put implements Store.
func (Nop) Put(context.Context, Key, analysis.WaveformBuffer) error { return nil }

// Close implements Store.
func (Nop) Close() error { return nil }
