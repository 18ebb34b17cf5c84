// SPDX-License-Identifier: MIT
package transport

import (
	applog "clipscope/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary
// of every message at debug level.
type LoggingTransport struct {
	log applog.Logger
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	lt := &LoggingTransport{log: applog.With("transport")}
	lt.log.Infof("Using LoggingTransport")
	return lt
}

// Send logs the received data.
func (lt *LoggingTransport) Send(data any) error {
	switch msg := data.(type) {
	case *Update:
		if msg.HasSpectrum() {
			lt.log.Debugf("update #%d t=%.3fs amp=%.4f env=%.4f spectrum=%d bins (amp %.4f)",
				msg.Sequence, msg.Time, msg.Amplitude, msg.Envelope, len(msg.Spectrum), msg.SpectrumAmplitude)
		} else {
			lt.log.Debugf("update #%d t=%.3fs amp=%.4f env=%.4f",
				msg.Sequence, msg.Time, msg.Amplitude, msg.Envelope)
		}
	case *Waveform:
		lt.log.Debugf("waveform %q: %d points at %d/s over %.2fs (cached %v)",
			msg.Clip, len(msg.Values), msg.Resolution, msg.Duration, msg.Cached)
	default:
		lt.log.Debugf("message (%T): %+v", data, data)
	}
	return nil // Logging transport never fails to "send"
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	lt.log.Debugf("Close called.")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
