// SPDX-License-Identifier: MIT
package cache

import (
	"context"
	"sync"
	"time"

	"clipscope/internal/analysis"
)

type memoryEntry struct {
	envelope analysis.WaveformBuffer
	expires  time.Time // Zero means never.
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// Compile-time checks for interface implementation.
var (
	_ Store = (*Memory)(nil)
	_ Store = Nop{}
)

// NewMemory returns an empty Memory store. A ttl of 0 keeps entries until
// Close.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key Key) (analysis.WaveformBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key.String()
	e, ok := m.entries[k]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, k)
		return nil, ErrMiss
	}
	return append(analysis.WaveformBuffer(nil), e.envelope...), nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key Key, envelope analysis.WaveformBuffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{envelope: append(analysis.WaveformBuffer(nil), envelope...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key.String()] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close implements Store and drops every entry.
func (m *Memory) Close() error {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
	return nil
}
