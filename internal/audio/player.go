// SPDX-License-Identifier: MIT
/*
Package audio plays clips through a PortAudio output device.

The Player is also the playback clock for audible sessions: its position is
the number of frames handed to the device, so the analysis follows what the
listener hears rather than wall time.

Thread Safety:
- The stream callback runs on a PortAudio thread
- Position and pause state are atomics shared with the UI goroutine
- The callback reuses a preallocated scratch buffer
*/
package audio

import (
	"fmt"
	"math"
	"sync/atomic"

	"clipscope/internal/config"
	applog "clipscope/internal/log"
	"clipscope/internal/playback"
	"clipscope/internal/source"

	"github.com/gordonklaus/portaudio"
)

// Compile-time check for interface implementation.
var _ playback.Controller = (*Player)(nil)

// Player streams a mono source to an output device.
type Player struct {
	src  source.Source
	loop bool
	log  applog.Logger

	frame  atomic.Int64
	paused atomic.Bool

	scratch []float64
	stream  *portaudio.Stream
}

func newPlayer(src source.Source, loop bool, framesPerBuffer int) *Player {
	return &Player{
		src:     src,
		loop:    loop,
		log:     applog.With("audio"),
		scratch: make([]float64, max(framesPerBuffer, 1)),
	}
}

// Open starts playing src on the configured output device. PortAudio must
// already be initialised. Close stops the stream.
func Open(src source.Source, cfg config.PlaybackConfig) (*Player, error) {
	device, err := OutputDevice(cfg.OutputDevice)
	if err != nil {
		return nil, err
	}

	p := newPlayer(src, cfg.Loop, cfg.FramesPerBuffer)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   device,
			Latency:  device.DefaultHighOutputLatency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      float64(src.SampleRate()),
	}

	stream, err := portaudio.OpenStream(params, p.fill)
	if err != nil {
		return nil, fmt.Errorf("audio: opening output stream on %s: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("audio: starting output stream: %w", err)
	}
	p.stream = stream
	p.log.Infof("Playing %d Hz mono on %s (buffer %d frames)", src.SampleRate(), device.Name, cfg.FramesPerBuffer)
	return p, nil
}

// fill is the stream callback. It copies the next len(out) samples into out,
// wrapping when looping and padding with silence past the end or while
// paused. A concurrent Seek wins over the position fill computed.
func (p *Player) fill(out []float32) {
	if p.paused.Load() {
		clear(out)
		return
	}
	if len(out) > len(p.scratch) {
		p.scratch = make([]float64, len(out))
	}

	start := p.frame.Load()
	pos := int(start)
	total := p.src.Len()
	n := 0
	for n < len(out) {
		if pos >= total {
			if !p.loop || total == 0 {
				break
			}
			pos = 0
		}
		chunk := min(len(out)-n, total-pos)
		buf := p.scratch[:chunk]
		if err := p.src.ReadSamples(pos, buf); err != nil {
			break
		}
		for i, s := range buf {
			out[n+i] = float32(s)
		}
		n += chunk
		pos += chunk
	}
	clear(out[n:])
	p.frame.CompareAndSwap(start, int64(pos))
}

// Now implements playback.Clock.
func (p *Player) Now() float64 {
	return float64(p.frame.Load()) / float64(p.src.SampleRate())
}

// Duration returns the clip length in seconds.
func (p *Player) Duration() float64 { return source.Duration(p.src) }

// Seek moves the playhead to seconds, clamped to the clip.
func (p *Player) Seek(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}
	seconds = min(max(seconds, 0), p.Duration())
	p.frame.Store(min(int64(math.Round(seconds*float64(p.src.SampleRate()))), int64(p.src.Len())))
}

// SetPaused pauses or resumes output. A paused stream keeps running and
// plays silence.
func (p *Player) SetPaused(paused bool) { p.paused.Store(paused) }

// Paused reports whether output is paused.
func (p *Player) Paused() bool { return p.paused.Load() }

// Done reports whether a non-looping player has reached the end.
func (p *Player) Done() bool {
	return !p.loop && p.frame.Load() >= int64(p.src.Len())
}

// Close stops and closes the output stream.
func (p *Player) Close() error {
	if p.stream == nil {
		return nil
	}
	stream := p.stream
	p.stream = nil
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("audio: stopping output stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("audio: closing output stream: %w", err)
	}
	return nil
}
