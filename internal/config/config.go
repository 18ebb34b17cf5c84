// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults for
// the analysis engine.
const (
	// Amplitude analysis defaults.
	DefaultWindowSize         = 8192 // Samples either side of the playhead.
	DefaultWaveformResolution = 20   // Envelope points per second.
	DefaultAmplitudeScale     = 5.0

	// Spectrum analysis defaults.
	DefaultSpectrumSize         = 1024
	DefaultTimeStep             = 0.1 // Seconds between spectrum frames.
	DefaultSpectrumScale        = 1.0
	DefaultSpectrumDisplayRange = 1.0
	DefaultWindowFunction       = "hann"

	// Playback defaults.
	DefaultTickRate        = 60 // Host ticks per second.
	DefaultDeviceID        = MinDeviceID
	DefaultFramesPerBuffer = 512

	// Cache defaults.
	DefaultCacheBackend = CacheMemory
	DefaultRedisAddress = "127.0.0.1:6379"
	DefaultCacheTTL     = 24 * time.Hour

	// Transport defaults.
	DefaultWebSocketAddress = "localhost:8080"
	DefaultWebSocketPath    = "/ws"
	DefaultUDPTarget        = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz.

	// Limits.
	MinDeviceID     = -1 // -1 represents the system default device.
	MaxWindowSize   = 1 << 16
	MaxTickRate     = 1000
	MaxBufferFrames = 8192
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			WindowSize:           DefaultWindowSize,
			WaveformResolution:   DefaultWaveformResolution,
			AmplitudeScale:       DefaultAmplitudeScale,
			SpectrumSize:         DefaultSpectrumSize,
			TimeStep:             DefaultTimeStep,
			SpectrumScale:        DefaultSpectrumScale,
			SpectrumDisplayRange: DefaultSpectrumDisplayRange,
			WindowFunction:       DefaultWindowFunction,
		},
		Playback: PlaybackConfig{
			TickRate:        DefaultTickRate,
			OutputDevice:    DefaultDeviceID,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Cache: CacheConfig{
			Backend:      DefaultCacheBackend,
			RedisAddress: DefaultRedisAddress,
			TTL:          DefaultCacheTTL,
		},
		Transport: TransportConfig{
			WebSocket: WebSocketConfig{
				Address: DefaultWebSocketAddress,
				Path:    DefaultWebSocketPath,
			},
			UDP: UDPConfig{
				TargetAddress: DefaultUDPTarget,
				SendInterval:  DefaultUDPSendInterval,
			},
		},
	}
}
