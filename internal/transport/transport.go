// SPDX-License-Identifier: MIT
/*
Package transport delivers analysis results to visual consumers.

The engine publishes two kinds of message to every registered Transport: a
Waveform once per envelope computation and an Update once per tick.
Transports must be safe for concurrent use and must not block the caller;
slow consumers lose messages rather than stall the tick.
*/
package transport

import "errors"

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: closed")

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Retainer is implemented by messages a transport should keep and replay to
// consumers that connect later.
type Retainer interface {
	Retain() bool
}
