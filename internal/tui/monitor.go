// SPDX-License-Identifier: MIT
/*
Package tui implements the terminal monitor for a playing clip.

The Monitor is a Bubble Tea model that owns the host loop. Every tick it
advances a host-driven clock, calls Engine.Tick and redraws. All engine
calls happen on the Bubble Tea update goroutine.
*/
package tui

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"clipscope/internal/analysis"
	"clipscope/internal/engine"
	applog "clipscope/internal/log"
	"clipscope/internal/playback"
	"clipscope/internal/source"
	"clipscope/internal/transport"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	spectrumHeight = 8
	maxBars        = 64
	defaultWidth   = 80
	peakDecay      = 0.995
)

// Advancer is a clock moved forward by the host loop, such as
// playback.Timeline. Clocks driven by an output device do not implement it.
type Advancer interface {
	Advance(delta float64) float64
}

// Finisher reports whether playback has reached the end.
type Finisher interface {
	Done() bool
}

type tickMsg time.Time

// Monitor is the Bubble Tea model for a playing clip.
type Monitor struct {
	engine   *engine.Engine
	clock    playback.Controller
	title    string
	interval time.Duration
	keys     keyMap
	log      applog.Logger

	width    int
	lastTick time.Time
	last     *transport.Update
	bands    []analysis.BandLevel
	status   string
	err      error

	targets []float64
	bars    []float64
	vel     []float64
	spring  harmonica.Spring
	peak    float64
}

// NewMonitor creates a monitor ticking eng tickRate times per second. The
// engine must already have a source, and clock must be the engine's clock.
func NewMonitor(eng *engine.Engine, clock playback.Controller, title string, tickRate int) *Monitor {
	tickRate = max(tickRate, 1)
	return &Monitor{
		engine:   eng,
		clock:    clock,
		title:    title,
		interval: time.Second / time.Duration(tickRate),
		keys:     defaultKeyMap(),
		log:      applog.With("tui"),
		width:    defaultWidth,
		spring:   harmonica.NewSpring(harmonica.FPS(tickRate), 8.0, 0.6),
	}
}

// Run starts the monitor full screen and blocks until the user quits or a
// non-looping clip ends. Log output goes to logPath while the monitor owns
// the screen, or is dropped when logPath is empty.
func Run(m *Monitor, logPath string) error {
	restore, err := redirectLog(logPath)
	if err != nil {
		return err
	}
	defer restore()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// redirectLog points applog at logPath (io.Discard when empty) and returns
// a func that restores the previous output.
func redirectLog(logPath string) (func(), error) {
	prev := applog.Output()
	if logPath == "" {
		applog.SetOutput(io.Discard)
		return func() { applog.SetOutput(prev) }, nil
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tui: opening log file: %w", err)
	}
	applog.SetOutput(f)
	return func() {
		applog.SetOutput(prev)
		_ = f.Close()
	}, nil
}

func (m *Monitor) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m *Monitor) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 1)

	case tickMsg:
		return m, m.step(time.Time(msg))

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// step runs one host tick at now.
func (m *Monitor) step(now time.Time) tea.Cmd {
	delta := m.interval.Seconds()
	if !m.lastTick.IsZero() {
		delta = now.Sub(m.lastTick).Seconds()
	}
	m.lastTick = now

	if adv, ok := m.clock.(Advancer); ok {
		adv.Advance(delta)
	}
	if m.clock.Paused() {
		delta = 0
	}

	u, err := m.engine.Tick(delta)
	if err != nil {
		m.err = err
		m.log.Errorf("Tick failed: %v", err)
		return tea.Quit
	}
	m.last = u
	if u.HasSpectrum() {
		m.setTargets(u.Spectrum)
		m.bands = u.Bands
	}
	m.animate()

	if fin, ok := m.clock.(Finisher); ok && fin.Done() {
		return tea.Quit
	}
	return m.tick()
}

// setTargets folds a spectrum into bar targets on a log scale normalised by
// a slowly decaying peak.
func (m *Monitor) setTargets(spectrum []float64) {
	n := m.barCount()
	if len(m.targets) != n {
		m.targets = make([]float64, n)
		m.bars = make([]float64, n)
		m.vel = make([]float64, n)
	}
	resampleBars(m.targets, spectrum)

	m.peak *= peakDecay
	for i, v := range m.targets {
		m.targets[i] = math.Log1p(max(v, 0))
		m.peak = max(m.peak, m.targets[i])
	}
	if m.peak > 0 {
		for i := range m.targets {
			m.targets[i] /= m.peak
		}
	}
}

// animate moves every bar one spring step towards its target.
func (m *Monitor) animate() {
	for i := range m.bars {
		m.bars[i], m.vel[i] = m.spring.Update(m.bars[i], m.vel[i], m.targets[i])
	}
}

func (m *Monitor) barCount() int {
	return min(max((m.width-2)/2, 1), maxBars)
}

func (m *Monitor) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Pause):
		m.clock.SetPaused(!m.clock.Paused())

	case key.Matches(msg, m.keys.Back):
		m.clock.Seek(m.clock.Now() - SeekStep)

	case key.Matches(msg, m.keys.Forward):
		m.clock.Seek(m.clock.Now() + SeekStep)

	case key.Matches(msg, m.keys.Restart):
		m.clock.Seek(0)

	case key.Matches(msg, m.keys.Recompute):
		m.recompute()
	}
	return nil
}

func (m *Monitor) recompute() {
	start := time.Now()
	w, err := m.engine.ComputeWaveform(context.Background())
	if err != nil {
		m.status = "waveform: " + err.Error()
		m.log.Warnf("Recomputing waveform failed: %v", err)
		return
	}
	m.status = fmt.Sprintf("waveform: %d points in %s", len(w), time.Since(start).Round(time.Millisecond))
}

// View implements tea.Model.
func (m *Monitor) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	var sb strings.Builder
	width := max(m.width-2, 1)
	now := m.clock.Now()
	duration := m.clock.Duration()

	state := "playing"
	if m.clock.Paused() {
		state = "paused"
	}
	sb.WriteString(titleStyle.Render(m.title))
	sb.WriteString("  ")
	sb.WriteString(infoStyle.Render(fmt.Sprintf("%s / %s  %s", formatTime(now), formatTime(duration), state)))
	sb.WriteString("\n\n")

	position := 0.0
	if duration > 0 {
		position = now / duration
	}
	if w := m.engine.Waveform(); w != nil {
		sb.WriteString(renderEnvelope(w, width, position))
	} else {
		sb.WriteString(dimStyle.Render("no waveform (press w)"))
	}
	sb.WriteString("\n\n")

	bars := m.bars
	if bars == nil {
		bars = make([]float64, m.barCount())
	}
	for _, row := range renderBars(bars, spectrumHeight) {
		sb.WriteString(barStyle.Render(row))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	var level, envelope float64
	if m.last != nil {
		level, envelope = m.last.Amplitude, m.last.Envelope
	}
	if !m.engine.Config().ComputeAmplitudeAtRuntime {
		level = envelope
	}
	sb.WriteString(fmt.Sprintf("amp %5.3f ", level))
	sb.WriteString(renderMeter(level, max(width-10, 1)))
	sb.WriteByte('\n')

	if len(m.bands) > 0 {
		parts := make([]string, len(m.bands))
		for i, b := range m.bands {
			parts[i] = fmt.Sprintf("%s %.2f", b.Name, b.Level)
		}
		sb.WriteString(dimStyle.Render(strings.Join(parts, "  ")))
		sb.WriteByte('\n')
	}

	if m.status != "" {
		sb.WriteString(infoStyle.Render(m.status))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render(m.keys.help()))
	return sb.String()
}

// ClipTitle picks the monitor title for src, falling back to name.
func ClipTitle(src source.Source, name string) string {
	if named, ok := src.(interface{ Name() string }); ok && named.Name() != "" {
		return named.Name()
	}
	return name
}
