// SPDX-License-Identifier: MIT
/*
Package playback provides the playback clocks that tell the engine where the
playhead is.

The engine never owns time: on every tick it asks its Clock for the current
position and analyses the window around it. Manual is set directly (CLI
one-shot queries, tests), Timeline is advanced by the host loop, and
audio.Player derives the position from the frames it has written to the
output device.
*/
package playback

import (
	"math"
	"sync"
	"sync/atomic"
)

// Clock reports the current playback position in seconds.
type Clock interface {
	Now() float64
}

// Controller is a Clock the user can drive: seek, pause and resume.
type Controller interface {
	Clock
	Seek(seconds float64)
	SetPaused(paused bool)
	Paused() bool
	Duration() float64
}

// Compile-time checks for interface implementation.
var (
	_ Clock      = (*Manual)(nil)
	_ Controller = (*Timeline)(nil)
)

// Manual is a Clock whose position is set explicitly.
type Manual struct {
	bits atomic.Uint64
}

// NewManual returns a Manual clock positioned at seconds.
func NewManual(seconds float64) *Manual {
	m := &Manual{}
	m.Set(seconds)
	return m
}

// Set moves the clock to seconds.
func (m *Manual) Set(seconds float64) {
	m.bits.Store(math.Float64bits(seconds))
}

// Now implements Clock.
func (m *Manual) Now() float64 {
	return math.Float64frombits(m.bits.Load())
}

// Timeline is a Clock advanced by the host loop. The position stays within
// [0, duration]; with looping enabled it wraps to the start instead of
// stopping at the end.
type Timeline struct {
	mu       sync.Mutex
	duration float64
	position float64
	paused   bool
	loop     bool
}

// NewTimeline returns a Timeline for a clip of duration seconds.
func NewTimeline(duration float64, loop bool) *Timeline {
	return &Timeline{duration: max(duration, 0), loop: loop}
}

// Now implements Clock.
func (t *Timeline) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Duration returns the clip length in seconds.
func (t *Timeline) Duration() float64 { return t.duration }

// Advance moves the playhead forward by delta seconds unless paused and
// returns the new position. Negative deltas are ignored.
func (t *Timeline) Advance(delta float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused || delta <= 0 || math.IsNaN(delta) {
		return t.position
	}

	next := t.position + delta
	switch {
	case next < t.duration:
		t.position = next
	case t.loop && t.duration > 0:
		t.position = math.Mod(next, t.duration)
	default:
		t.position = t.duration
	}
	return t.position
}

// Seek moves the playhead to seconds, clamped to [0, duration].
func (t *Timeline) Seek(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if math.IsNaN(seconds) {
		return
	}
	t.position = min(max(seconds, 0), t.duration)
}

// SetPaused pauses or resumes the timeline.
func (t *Timeline) SetPaused(paused bool) {
	t.mu.Lock()
	t.paused = paused
	t.mu.Unlock()
}

// Paused reports whether the timeline is paused.
func (t *Timeline) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// Done reports whether a non-looping timeline has reached the end.
func (t *Timeline) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.loop && t.position >= t.duration
}
