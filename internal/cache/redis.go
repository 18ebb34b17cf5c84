// SPDX-License-Identifier: MIT
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clipscope/internal/analysis"
	applog "clipscope/internal/log"

	"github.com/go-redis/redis/v8"
)

// RedisOptions configures a Redis store.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration // 0 keeps entries forever.
}

// Redis is a Store backed by a Redis server, shared between processes.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*Redis)(nil)

// envelopeRecord is the JSON value stored per key.
type envelopeRecord struct {
	Key      string    `json:"key"`
	Values   []float64 `json:"values"`
	StoredAt int64     `json:"stored_at"`
}

// NewRedis connects to the server and verifies it with a PING.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", opts.Address, err)
	}
	applog.With("cache").Infof("Connected to redis at %s (db %d)", opts.Address, opts.DB)
	return &Redis{rdb: rdb, ttl: opts.TTL}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key Key) (analysis.WaveformBuffer, error) {
	b, err := r.rdb.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	return decodeEnvelope(key, b)
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, key Key, envelope analysis.WaveformBuffer) error {
	b, err := encodeEnvelope(key, envelope, time.Now())
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, key.String(), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

func encodeEnvelope(key Key, envelope analysis.WaveformBuffer, now time.Time) ([]byte, error) {
	b, err := json.Marshal(envelopeRecord{Key: key.String(), Values: envelope, StoredAt: now.Unix()})
	if err != nil {
		return nil, fmt.Errorf("cache: encoding envelope: %w", err)
	}
	return b, nil
}

// decodeEnvelope parses a stored record. A record written under another key
// is treated as a miss.
func decodeEnvelope(key Key, b []byte) (analysis.WaveformBuffer, error) {
	var rec envelopeRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("cache: decoding envelope %s: %w", key, err)
	}
	if rec.Key != key.String() {
		return nil, ErrMiss
	}
	return analysis.WaveformBuffer(rec.Values), nil
}
