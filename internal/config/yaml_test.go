// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipscope/internal/analysis"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	want := Default()
	if cfg.Analysis != want.Analysis || cfg.Playback != want.Playback {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	for _, content := range []string{"analysis: [unclosed", "analysis:\n  window_size: big\n"} {
		path := writeTempFile(t, "config.yaml", content)
		_, err := LoadConfig(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
			t.Errorf("expected unmarshal error for %q, got %v", content, err)
		}
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "config.yaml", `
log_level: debug
analysis:
  window_size: 1000
  use_window_coefficient: true
  time_step: 0.05
  window_function: blackman
playback:
  tick_rate: 30
  loop: true
cache:
  backend: redis
  redis_address: cache:6379
  ttl: 1h
transport:
  udp:
    enabled: true
    target_address: 10.0.0.2:9000
    send_interval: 20ms
`)

	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	a := cfg.Analysis
	if a.WindowSize != 1000 || !a.UseWindowCoefficient || a.TimeStep != 0.05 || a.WindowFunction != "blackman" {
		t.Errorf("analysis section not applied: %+v", a)
	}
	// Unset keys keep their defaults.
	if a.WaveformResolution != DefaultWaveformResolution || a.SpectrumSize != DefaultSpectrumSize {
		t.Errorf("defaults lost: %+v", a)
	}
	if cfg.Playback.TickRate != 30 || !cfg.Playback.Loop {
		t.Errorf("playback section not applied: %+v", cfg.Playback)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddress != "cache:6379" || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache section not applied: %+v", cfg.Cache)
	}
	udp := cfg.Transport.UDP
	if !udp.Enabled || udp.TargetAddress != "10.0.0.2:9000" || udp.SendInterval != 20*time.Millisecond {
		t.Errorf("udp section not applied: %+v", udp)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_WINDOW_SIZE", "2048")
	t.Setenv("ENV_TIME_STEP", "0.25")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_DEBUG", "not-a-bool")

	cfg, err := load("", "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Analysis.WindowSize != 2048 {
		t.Errorf("WindowSize = %d, want 2048", cfg.Analysis.WindowSize)
	}
	if cfg.Analysis.TimeStep != 0.25 {
		t.Errorf("TimeStep = %v, want 0.25", cfg.Analysis.TimeStep)
	}
	if !cfg.Transport.UDP.Enabled || cfg.Transport.UDP.SendInterval != 10*time.Millisecond {
		t.Errorf("UDP = %+v, want enabled at 10ms", cfg.Transport.UDP)
	}
	if cfg.Debug {
		t.Error("unparseable ENV_DEBUG should be ignored")
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	envFile := writeTempFile(t, ".env", "ENV_SPECTRUM_SIZE=512\nENV_CACHE_BACKEND=none\nENV_WS_ADDRESS=0.0.0.0:9999\n")
	t.Setenv("ENV_WS_ADDRESS", "127.0.0.1:7000")

	cfg, err := load("", envFile)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Analysis.SpectrumSize != 512 {
		t.Errorf("SpectrumSize = %d, want 512", cfg.Analysis.SpectrumSize)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
	// The process environment wins over the file.
	if cfg.Transport.WebSocket.Address != "127.0.0.1:7000" {
		t.Errorf("WebSocket.Address = %q, want the process env value", cfg.Transport.WebSocket.Address)
	}
	if _, ok := os.LookupEnv("ENV_SPECTRUM_SIZE"); ok {
		t.Error("env file leaked into the process environment")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "config.yaml", "analysis:\n  spectrum_display_range: 1.5\n")
	_, err := LoadConfig(path)
	if !errors.Is(err, analysis.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Log Level", func(c *Config) { c.LogLevel = "loud" }},
		{"Zero Window", func(c *Config) { c.Analysis.WindowSize = 0 }},
		{"Huge Window", func(c *Config) { c.Analysis.WindowSize = MaxWindowSize + 1 }},
		{"Zero Spectrum", func(c *Config) { c.Analysis.SpectrumSize = 0 }},
		{"Zero Resolution", func(c *Config) { c.Analysis.WaveformResolution = 0 }},
		{"Negative Scale", func(c *Config) { c.Analysis.AmplitudeScale = -1 }},
		{"Negative Step", func(c *Config) { c.Analysis.TimeStep = -0.1 }},
		{"Negative Spectrum Scale", func(c *Config) { c.Analysis.SpectrumScale = -2 }},
		{"Zero Display Range", func(c *Config) { c.Analysis.SpectrumDisplayRange = 0 }},
		{"Unknown Window", func(c *Config) { c.Analysis.WindowFunction = "kaiser" }},
		{"Negative Gate", func(c *Config) { c.Analysis.GateThreshold = -0.5 }},
		{"Zero Tick Rate", func(c *Config) { c.Playback.TickRate = 0 }},
		{"Negative Start", func(c *Config) { c.Playback.StartTime = -1 }},
		{"Bad Device", func(c *Config) { c.Playback.OutputDevice = -2 }},
		{"Bad Buffer", func(c *Config) { c.Playback.FramesPerBuffer = 0 }},
		{"Unknown Cache", func(c *Config) { c.Cache.Backend = "disk" }},
		{"Redis Without Address", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddress = "" }},
		{"WebSocket Path", func(c *Config) { c.Transport.WebSocket.Enabled = true; c.Transport.WebSocket.Path = "ws" }},
		{"UDP Missing Port", func(c *Config) { c.Transport.UDP.Enabled = true; c.Transport.UDP.TargetAddress = "localhost" }},
		{"UDP Zero Interval", func(c *Config) { c.Transport.UDP.Enabled = true; c.Transport.UDP.SendInterval = 0 }},
	}

	base := Default()
	if err := base.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, analysis.ErrInvalidConfiguration) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestDefaultSpectrumWeightingIsHann(t *testing.T) {
	t.Parallel()
	for _, name := range []string{DefaultWindowFunction, ""} {
		a := Default().Analysis
		a.WindowFunction = name
		if got := a.Spectrum().Window; got != analysis.Hann {
			t.Errorf("Spectrum().Window for %q = %v, want Hann", name, got)
		}
	}
}

func TestAnalysisConversions(t *testing.T) {
	t.Parallel()
	a := Default().Analysis
	a.UseWindowCoefficient = true
	a.WindowFunction = "hamming"

	amp := a.Amplitude()
	if amp.WindowSize != DefaultWindowSize || amp.Scale != DefaultAmplitudeScale || !amp.Weighted {
		t.Errorf("Amplitude() = %+v", amp)
	}
	spec := a.Spectrum()
	if spec.Size != DefaultSpectrumSize || spec.TimeStep != DefaultTimeStep || spec.Window != analysis.Hamming {
		t.Errorf("Spectrum() = %+v", spec)
	}
}
