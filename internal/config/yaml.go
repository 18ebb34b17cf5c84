// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"clipscope/internal/analysis"
	applog "clipscope/internal/log"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Amplitude and spectrum analysis settings.
	Playback  PlaybackConfig  `yaml:"playback"`  // Host loop and audible playback settings.
	Cache     CacheConfig     `yaml:"cache"`     // Envelope cache settings.
	Transport TransportConfig `yaml:"transport"` // Visual sink settings.
}

// AnalysisConfig holds the analysis engine's tunables.
type AnalysisConfig struct {
	WindowSize                int     `yaml:"window_size"`                  // Amplitude window size, snapped to the nearest power of two.
	WaveformResolution        int     `yaml:"waveform_resolution"`          // Envelope points per second.
	AmplitudeScale            float64 `yaml:"amplitude_scale"`              // Gain applied to every amplitude.
	UseWindowCoefficient      bool    `yaml:"use_window_coefficient"`       // Hann-weight amplitude windows.
	ComputeAmplitudeAtRuntime bool    `yaml:"compute_amplitude_at_runtime"` // Compute an instant amplitude every tick.
	SpectrumSize              int     `yaml:"spectrum_size"`                // Spectrum bins, snapped to the nearest power of two.
	TimeStep                  float64 `yaml:"time_step"`                    // Seconds between spectrum frames.
	SpectrumScale             float64 `yaml:"spectrum_scale"`               // Gain applied to published bins.
	SpectrumDisplayRange      float64 `yaml:"spectrum_display_range"`       // Fraction of bins published, (0, 1].
	WindowFunction            string  `yaml:"window_function"`              // Spectrum weighting ("hann", "hamming", ...).
	GateThreshold             float64 `yaml:"gate_threshold"`               // Suppress frames quieter than this (0 disables).
}

// PlaybackConfig holds settings for the host tick loop and audible output.
type PlaybackConfig struct {
	TickRate        int     `yaml:"tick_rate"`         // Engine ticks per second.
	StartTime       float64 `yaml:"start_time"`        // Initial playhead in seconds.
	Loop            bool    `yaml:"loop"`              // Wrap to the start at the end of the clip.
	Audible         bool    `yaml:"audible"`           // Play the clip through the output device.
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index for output (-1 for default).
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio frames per buffer.
}

// CacheConfig holds settings for the envelope cache.
type CacheConfig struct {
	Backend       string        `yaml:"backend"`        // "memory", "redis" or "none".
	RedisAddress  string        `yaml:"redis_address"`  // host:port of the Redis server.
	RedisPassword string        `yaml:"redis_password"` // Optional Redis password.
	RedisDB       int           `yaml:"redis_db"`       // Redis database number.
	TTL           time.Duration `yaml:"ttl"`            // Expiry of cached envelopes (0 keeps them forever).
}

// TransportConfig holds settings related to sending analysis results to consumers.
type TransportConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket"`
	UDP       UDPConfig       `yaml:"udp"`
	LogFrames bool            `yaml:"log_frames"` // Log every update at debug level.
}

// WebSocketConfig configures the WebSocket broadcaster.
type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // Listen address (e.g., "localhost:8080").
	Path    string `yaml:"path"`    // Upgrade endpoint (e.g., "/ws").
}

// UDPConfig configures the UDP spectrum sink.
type UDPConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TargetAddress string        `yaml:"target_address"` // Target address and port (e.g., "127.0.0.1:9090").
	SendInterval  time.Duration `yaml:"send_interval"`  // Minimum interval between packets.
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides (process environment first, then a ".env" file if present) and validates
// the final configuration.
func LoadConfig(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"config.yaml", "clipscope.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	dotenv, err := readEnvFile(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	cfg.applyEnvOverrides(func(key string) (string, bool) {
		if val, ok := os.LookupEnv(key); ok {
			return val, true
		}
		val, ok := dotenv[key]
		return val, ok
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// readEnvFile parses a dotenv file without touching the process
// environment. A missing file is not an error.
func readEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	envs, err := godotenv.Read(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return envs, nil
}

// Validate checks every section and returns the first problem found,
// wrapping analysis.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", analysis.ErrInvalidConfiguration, fmt.Sprintf(format, args...))
	}

	if _, ok := applog.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return invalid("log_level %q is not a known level", c.LogLevel)
	}

	// Analysis Validation
	a := c.Analysis
	if a.WindowSize <= 0 || a.WindowSize > MaxWindowSize {
		return invalid("analysis.window_size must be in [1, %d], got %d", MaxWindowSize, a.WindowSize)
	}
	if a.SpectrumSize <= 0 || a.SpectrumSize > MaxWindowSize {
		return invalid("analysis.spectrum_size must be in [1, %d], got %d", MaxWindowSize, a.SpectrumSize)
	}
	if a.WaveformResolution <= 0 {
		return invalid("analysis.waveform_resolution must be positive, got %d", a.WaveformResolution)
	}
	if a.AmplitudeScale < 0 {
		return invalid("analysis.amplitude_scale must not be negative, got %v", a.AmplitudeScale)
	}
	if a.TimeStep < 0 {
		return invalid("analysis.time_step must not be negative, got %v", a.TimeStep)
	}
	if a.SpectrumScale < 0 {
		return invalid("analysis.spectrum_scale must not be negative, got %v", a.SpectrumScale)
	}
	if a.SpectrumDisplayRange <= 0 || a.SpectrumDisplayRange > 1 {
		return invalid("analysis.spectrum_display_range must be in (0, 1], got %v", a.SpectrumDisplayRange)
	}
	if _, err := analysis.ParseWindowFunc(a.WindowFunction); err != nil {
		return invalid("analysis.window_function: %v", err)
	}
	if a.GateThreshold < 0 {
		return invalid("analysis.gate_threshold must not be negative, got %v", a.GateThreshold)
	}

	// Playback Validation
	p := c.Playback
	if p.TickRate <= 0 || p.TickRate > MaxTickRate {
		return invalid("playback.tick_rate must be in [1, %d], got %d", MaxTickRate, p.TickRate)
	}
	if p.StartTime < 0 {
		return invalid("playback.start_time must not be negative, got %v", p.StartTime)
	}
	if p.OutputDevice < MinDeviceID {
		return invalid("playback.output_device must be >= %d, got %d", MinDeviceID, p.OutputDevice)
	}
	if p.FramesPerBuffer <= 0 || p.FramesPerBuffer > MaxBufferFrames {
		return invalid("playback.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, p.FramesPerBuffer)
	}

	// Cache Validation
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddress == "" {
			return invalid("cache.redis_address must be set for the redis backend")
		}
	default:
		return invalid("cache.backend %q must be one of none, memory, redis", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}

	// Transport Validation
	if ws := c.Transport.WebSocket; ws.Enabled {
		if ws.Address == "" {
			return invalid("transport.websocket.address must be set when the websocket is enabled")
		}
		if !strings.HasPrefix(ws.Path, "/") {
			return invalid("transport.websocket.path %q must start with '/'", ws.Path)
		}
	}
	if udp := c.Transport.UDP; udp.Enabled {
		if udp.TargetAddress == "" {
			return invalid("transport.udp.target_address must be set when UDP is enabled")
		}
		if !strings.Contains(udp.TargetAddress, ":") {
			return invalid("transport.udp.target_address '%s' appears invalid (missing port?)", udp.TargetAddress)
		}
		if udp.SendInterval <= 0 {
			return invalid("transport.udp.send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// applyEnvOverrides applies ENV_* overrides found through lookup. Values
// that fail to parse are ignored with a warning.
func (cfg *Config) applyEnvOverrides(lookup func(string) (string, bool)) {
	log := applog.With("config")

	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := lookup("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			log.Infof("Overriding debug from env: %v", bVal)
		} else {
			log.Warnf("Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := lookup("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		log.Infof("Overriding log_level from env: %s", val)
	}

	// ENV_{...}
	// These are specific to the analysis engine.

	// ENV_WINDOW_SIZE
	if val, ok := lookup("ENV_WINDOW_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.WindowSize = n
			log.Infof("Overriding analysis.window_size from env: %d", n)
		} else {
			log.Warnf("Ignoring ENV_WINDOW_SIZE=%q: %v", val, err)
		}
	}
	// ENV_SPECTRUM_SIZE
	if val, ok := lookup("ENV_SPECTRUM_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.SpectrumSize = n
			log.Infof("Overriding analysis.spectrum_size from env: %d", n)
		} else {
			log.Warnf("Ignoring ENV_SPECTRUM_SIZE=%q: %v", val, err)
		}
	}
	// ENV_TIME_STEP
	if val, ok := lookup("ENV_TIME_STEP"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Analysis.TimeStep = f
			log.Infof("Overriding analysis.time_step from env: %v", f)
		} else {
			log.Warnf("Ignoring ENV_TIME_STEP=%q: %v", val, err)
		}
	}

	// ENV_CACHE_{...} / ENV_REDIS_{...}
	// These are specific to the envelope cache.

	// ENV_CACHE_BACKEND
	if val, ok := lookup("ENV_CACHE_BACKEND"); ok {
		cfg.Cache.Backend = strings.ToLower(val)
		log.Infof("Overriding cache.backend from env: %s", val)
	}
	// ENV_REDIS_ADDRESS
	if val, ok := lookup("ENV_REDIS_ADDRESS"); ok {
		cfg.Cache.RedisAddress = val
		log.Infof("Overriding cache.redis_address from env: %s", val)
	}

	// ENV_WS_{...} / ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_WS_ADDRESS
	if val, ok := lookup("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocket.Address = val
		log.Infof("Overriding transport.websocket.address from env: %s", val)
	}
	// ENV_UDP_ENABLED
	if val, ok := lookup("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDP.Enabled = bVal
			log.Infof("Overriding transport.udp.enabled from env: %v", bVal)
		} else {
			log.Warnf("Ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := lookup("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDP.TargetAddress = val
		log.Infof("Overriding transport.udp.target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := lookup("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDP.SendInterval = dur
			log.Infof("Overriding transport.udp.send_interval from env: %s", dur)
		} else {
			log.Warnf("Ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
}
