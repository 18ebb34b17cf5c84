// SPDX-License-Identifier: MIT
/*
Package engine drives the analysis core from a host loop.

The host calls Tick(delta) once per logical frame. Each tick reads the
playhead from the Clock, optionally computes the instant amplitude, samples
the precomputed envelope, runs the time-step gated spectrum and publishes
one transport.Update to every sink. The engine is otherwise dormant: it owns
no goroutines and must be driven from a single goroutine.
*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"clipscope/internal/analysis"
	"clipscope/internal/cache"
	"clipscope/internal/config"
	applog "clipscope/internal/log"
	"clipscope/internal/playback"
	"clipscope/internal/source"
	"clipscope/internal/transport"
	"clipscope/pkg/build"

	"github.com/google/uuid"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCache stores computed envelopes in store.
func WithCache(store cache.Store) Option {
	return func(e *Engine) { e.cache = store }
}

// WithSession overrides the generated session id.
func WithSession(id string) Option {
	return func(e *Engine) { e.session = id }
}

// WithBands replaces the default band layout.
func WithBands(bands []analysis.FrequencyBand) Option {
	return func(e *Engine) { e.bands = analysis.NewBandEnergyProcessor(bands) }
}

// Engine runs amplitude and spectrum analysis for one clip at a time.
type Engine struct {
	cfg     config.AnalysisConfig
	session string
	log     applog.Logger

	src         source.Source
	clipName    string
	fingerprint string
	clock       playback.Clock
	sinks       []transport.Transport
	cache       cache.Store

	amplitude *analysis.AmplitudeAnalyzer
	spectrum  *analysis.SpectrumAnalyzer
	bands     *analysis.BandEnergyProcessor

	waveform      analysis.WaveformBuffer
	lastAmplitude float64
	lastSpectrum  []float64
	sequence      uint64
}

// New creates an Engine. It has no source or clock yet; Tick fails with
// analysis.ErrInvalidConfiguration until both are set.
func New(cfg config.AnalysisConfig, opts ...Option) (*Engine, error) {
	e := &Engine{
		session: uuid.NewString(),
		log:     applog.With("engine"),
		cache:   cache.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bands == nil {
		e.bands = analysis.NewBandEnergyProcessor(nil)
	}
	if err := e.configure(cfg); err != nil {
		return nil, err
	}
	e.log.Debugf("Session %s created by %s", e.session, build.Current().Summary())
	return e, nil
}

// configure (re)builds the analyzers for cfg.
func (e *Engine) configure(cfg config.AnalysisConfig) error {
	if cfg.WaveformResolution <= 0 {
		return fmt.Errorf("%w: waveform resolution %d", analysis.ErrInvalidConfiguration, cfg.WaveformResolution)
	}
	amp, err := analysis.NewAmplitudeAnalyzer(cfg.Amplitude())
	if err != nil {
		return fmt.Errorf("engine: amplitude analyzer: %w", err)
	}
	spec, err := analysis.NewSpectrumAnalyzer(cfg.Spectrum())
	if err != nil {
		return fmt.Errorf("engine: spectrum analyzer: %w", err)
	}
	e.cfg = cfg
	e.amplitude = amp
	e.spectrum = spec
	return nil
}

// Session returns the engine's session id, sent with every message.
func (e *Engine) Session() string { return e.session }

// Config returns the active analysis configuration.
func (e *Engine) Config() config.AnalysisConfig { return e.cfg }

// AmplitudeWindow returns the effective amplitude window.
func (e *Engine) AmplitudeWindow() analysis.Window { return e.amplitude.Window() }

// SpectrumWindow returns the effective spectrum window.
func (e *Engine) SpectrumWindow() analysis.Window { return e.spectrum.Window() }

// SetSource switches the engine to src. Any envelope computed for the
// previous clip is discarded.
func (e *Engine) SetSource(src source.Source) {
	e.src = src
	e.clipName = ""
	if named, ok := src.(interface{ Name() string }); ok {
		e.clipName = named.Name()
	}
	e.fingerprint = ""
	e.waveform = nil
	e.lastAmplitude = 0
	e.lastSpectrum = nil
	if src != nil {
		e.log.Infof("Source %q: %d samples at %d Hz (%.2fs)",
			e.clipName, src.Len(), src.SampleRate(), source.Duration(src))
	}
}

// Source returns the current source, or nil.
func (e *Engine) Source() source.Source { return e.src }

// SetClock sets the playback clock read on every tick.
func (e *Engine) SetClock(clock playback.Clock) { e.clock = clock }

// AddSink registers a transport that receives every published message.
func (e *Engine) AddSink(t transport.Transport) { e.sinks = append(e.sinks, t) }

// Reconfigure applies cfg. Analyzers are rebuilt at the new sizes, and the
// envelope is dropped when a setting that shapes it changed.
func (e *Engine) Reconfigure(cfg config.AnalysisConfig) error {
	prev := e.cfg
	if err := e.configure(cfg); err != nil {
		return err
	}
	if envelopeSettingsChanged(prev, cfg) && e.waveform != nil {
		e.log.Infof("Envelope settings changed, discarding the current waveform")
		e.waveform = nil
	}
	if prev.SpectrumSize != cfg.SpectrumSize {
		e.lastSpectrum = nil
	}
	return nil
}

func envelopeSettingsChanged(a, b config.AnalysisConfig) bool {
	return a.WindowSize != b.WindowSize ||
		a.WaveformResolution != b.WaveformResolution ||
		a.AmplitudeScale != b.AmplitudeScale ||
		a.UseWindowCoefficient != b.UseWindowCoefficient
}

// ComputeWaveform computes the envelope of the current source, or loads it
// from the cache, and publishes it to every sink. ctx bounds cache I/O only;
// the computation itself always runs to completion.
func (e *Engine) ComputeWaveform(ctx context.Context) (analysis.WaveformBuffer, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: no source", analysis.ErrInvalidConfiguration)
	}

	key, err := e.cacheKey()
	if err != nil {
		return nil, err
	}

	cached := true
	wf, err := e.cache.Get(ctx, key)
	switch {
	case err == nil:
		e.log.Debugf("Envelope cache hit for %s", key)
	case errors.Is(err, cache.ErrMiss):
		cached = false
	default:
		e.log.Warnf("Envelope cache read failed, recomputing: %v", err)
		cached = false
	}

	if !cached {
		wf, err = e.amplitude.Envelope(e.src, e.cfg.WaveformResolution)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Put(ctx, key, wf); err != nil {
			e.log.Warnf("Envelope cache write failed: %v", err)
		}
	}

	e.waveform = wf
	e.log.Infof("Waveform ready: %d points, peak %.4f, mean %.4f (cached %v)", len(wf), wf.Peak(), wf.Mean(), cached)
	e.publish(&transport.Waveform{
		Type:       transport.TypeWaveform,
		Session:    e.session,
		Clip:       e.clipName,
		Duration:   source.Duration(e.src),
		Resolution: e.cfg.WaveformResolution,
		Values:     wf,
		Cached:     cached,
	})
	return wf, nil
}

func (e *Engine) cacheKey() (cache.Key, error) {
	if _, ok := e.cache.(cache.Nop); !ok && e.fingerprint == "" {
		fp, err := source.Fingerprint(e.src)
		if err != nil {
			return cache.Key{}, err
		}
		e.fingerprint = fp
	}
	return cache.Key{
		Fingerprint: e.fingerprint,
		WindowSize:  e.amplitude.Window().Size,
		Resolution:  e.cfg.WaveformResolution,
		Weighted:    e.cfg.UseWindowCoefficient,
		Scale:       e.cfg.AmplitudeScale,
	}, nil
}

// Waveform returns the current envelope, nil before ComputeWaveform.
func (e *Engine) Waveform() analysis.WaveformBuffer { return e.waveform }

// SampleWaveform interpolates the current envelope at seconds. It returns 0
// without an envelope.
func (e *Engine) SampleWaveform(seconds float64) float64 {
	if e.waveform == nil || e.src == nil {
		return 0
	}
	return analysis.Sample(e.waveform, source.Duration(e.src), seconds)
}

// Tick advances the engine by delta seconds of host time and publishes an
// Update for the clock's current position.
func (e *Engine) Tick(delta float64) (*transport.Update, error) {
	if e.src == nil || e.clock == nil {
		return nil, fmt.Errorf("%w: tick needs a source and a clock", analysis.ErrInvalidConfiguration)
	}

	now := e.clock.Now()
	e.sequence++
	u := &transport.Update{
		Type:     transport.TypeUpdate,
		Session:  e.session,
		Sequence: e.sequence,
		Time:     now,
	}

	if e.cfg.ComputeAmplitudeAtRuntime {
		amp, err := e.amplitude.Instant(e.src, now)
		if err != nil {
			return nil, err
		}
		e.lastAmplitude = amp
		u.Amplitude = amp
	}
	u.Envelope = e.SampleWaveform(now)

	frame, err := e.spectrum.Tick(e.src, now, delta)
	if err != nil {
		return nil, err
	}
	if frame != nil {
		e.applyFrame(u, frame)
	}

	e.publish(u)
	return u, nil
}

func (e *Engine) applyFrame(u *transport.Update, frame *analysis.SpectrumFrame) {
	if e.cfg.GateThreshold > 0 && frame.Amplitude < e.cfg.GateThreshold {
		e.log.Debugf("Frame at %.3fs gated (amplitude %.5f < %.5f)", frame.Time, frame.Amplitude, e.cfg.GateThreshold)
		return
	}
	// Published slices are handed to asynchronous transports, so each
	// update gets its own.
	u.Spectrum = frame.Display(nil, e.cfg.SpectrumScale, e.cfg.SpectrumDisplayRange)
	u.SpectrumAmplitude = frame.Amplitude
	levels := e.bands.Process(frame, e.spectrum.Window(), e.src.SampleRate())
	u.Bands = append([]analysis.BandLevel(nil), levels...)
	e.lastSpectrum = u.Spectrum
}

// Frame returns a copy of the last raw spectrum frame, before display
// shaping and gating. It is nil before the first computed frame.
func (e *Engine) Frame() *analysis.SpectrumFrame {
	f := e.spectrum.Frame()
	if f == nil {
		return nil
	}
	return f.Clone()
}

// Amplitude returns the last runtime amplitude.
func (e *Engine) Amplitude() float64 { return e.lastAmplitude }

// Spectrum returns a copy of the last published (display-shaped) spectrum,
// nil before the first.
func (e *Engine) Spectrum() []float64 {
	if e.lastSpectrum == nil {
		return nil
	}
	return append([]float64(nil), e.lastSpectrum...)
}

func (e *Engine) publish(msg any) {
	for _, sink := range e.sinks {
		if err := sink.Send(msg); err != nil {
			e.log.Warnf("Sink %T failed: %v", sink, err)
		}
	}
}

// Close closes every sink and the cache.
func (e *Engine) Close() error {
	var errs []error
	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.sinks = nil
	if err := e.cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
