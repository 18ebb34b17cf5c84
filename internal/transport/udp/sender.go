// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"net"
	"sync"
	"time"

	applog "clipscope/internal/log"
	"clipscope/internal/transport"
)

// writeTimeout bounds a single datagram write; a stalled socket drops the
// packet instead of holding up the tick.
const writeTimeout = 50 * time.Millisecond

// Stats counts datagram traffic since the sender was created.
type Stats struct {
	Packets uint64 // Datagrams written.
	Bytes   uint64 // Payload bytes written.
	Errors  uint64 // Failed writes.
}

// UDPSender writes datagrams to one connected peer.
type UDPSender struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	stats  Stats
	closed bool
	log    applog.Logger
}

// NewUDPSender connects to targetAddress ("host:port"). No packets are
// exchanged; UDP only fixes the peer.
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("udp: resolving target %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("udp: dialing %s: %w", addr, err)
	}

	s := &UDPSender{conn: conn, log: applog.With("udp")}
	s.log.Infof("Sending spectrum packets %s -> %s", conn.LocalAddr(), conn.RemoteAddr())
	return s, nil
}

// Send writes data as one datagram. It fails with transport.ErrClosed after
// Close.
func (s *UDPSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return transport.ErrClosed
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := s.conn.Write(data)
	if err != nil {
		s.stats.Errors++
		return fmt.Errorf("udp: writing %d byte packet: %w", len(data), err)
	}
	s.stats.Packets++
	s.stats.Bytes += uint64(n)
	return nil
}

// Stats returns a snapshot of the traffic counters.
func (s *UDPSender) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the socket. Closing twice is a no-op.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("udp: closing socket: %w", err)
	}
	return nil
}
