// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"clipscope/internal/transport"
)

// MaxBins is the largest bin count a packet can carry.
const MaxBins = math.MaxUint16

// HeaderSize is the fixed packet header length in bytes.
const HeaderSize = 4 + 8 + 4 + 4 + 2

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Playback Time     | float32        | 4            | Seconds into the clip   |
| Amplitude         | float32        | 4            | Frame mean |x|          |
| Bin Count         | uint16         | 2            | Number of floats (N)    |
| Bins              | []float32      | N * 4        | Display spectrum bins   |
+-----------------------------------------------------------------------------+

Visual Layout:

|<- 4 B ->|<--- 8 B --->|<- 4 B ->|<- 4 B ->|<- 2 B ->|<--- N * 4 B --->|
+---------+-------------+---------+---------+---------+-----------------+
|   Seq   |  Timestamp  |  Time   |  Ampl.  |  Count  |      Bins       |
| (uint32)|   (int64)   |(float32)|(float32)| (uint16)|  (N * float32)  |
+---------+-------------+---------+---------+---------+-----------------+
*/

// Packet is a decoded spectrum datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Time      float32
	Amplitude float32
	Bins      []float32
}

// Sink is a transport.Transport that forwards spectrum updates as binary
// UDP packets, at most one per interval. Updates without a spectrum frame
// and all other messages are ignored.
type Sink struct {
	sender   *UDPSender
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	last        time.Time
	sequenceNum uint32
	f32         []float32     // Reused float32 conversion buffer.
	packet      *bytes.Buffer // Reused packet buffer.
}

var _ transport.Transport = (*Sink)(nil)

// NewSink creates a Sink sending to targetAddress. An interval <= 0 sends
// every frame.
func NewSink(targetAddress string, interval time.Duration) (*Sink, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Sink{
		sender:   sender,
		interval: interval,
		now:      time.Now,
		packet:   new(bytes.Buffer),
	}, nil
}

// Send implements transport.Transport.
func (s *Sink) Send(data any) error {
	u, ok := data.(*transport.Update)
	if !ok || !u.HasSpectrum() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.interval > 0 && !s.last.IsZero() && now.Sub(s.last) < s.interval {
		return nil
	}
	s.last = now
	s.sequenceNum++

	if err := s.encode(now, u); err != nil {
		return err
	}
	if err := s.sender.Send(s.packet.Bytes()); err != nil {
		return err
	}
	s.sender.log.Debugf("Sent packet %d (%d bytes)", s.sequenceNum, s.packet.Len())
	return nil
}

func (s *Sink) encode(now time.Time, u *transport.Update) error {
	n := min(len(u.Spectrum), MaxBins)
	if cap(s.f32) < n {
		s.f32 = make([]float32, n)
	}
	s.f32 = s.f32[:n]
	for i := range s.f32 {
		s.f32[i] = float32(u.Spectrum[i])
	}

	s.packet.Reset()
	if err := writePacket(s.packet, Packet{
		Sequence:  s.sequenceNum,
		Timestamp: now.UnixNano(),
		Time:      float32(u.Time),
		Amplitude: float32(u.SpectrumAmplitude),
		Bins:      s.f32,
	}); err != nil {
		return fmt.Errorf("udp: packing packet %d: %w", s.sequenceNum, err)
	}
	return nil
}

// Close implements transport.Transport.
func (s *Sink) Close() error {
	st := s.sender.Stats()
	s.sender.log.Infof("Closing after %d packets (%d bytes, %d errors)", st.Packets, st.Bytes, st.Errors)
	return s.sender.Close()
}

func writePacket(buf *bytes.Buffer, p Packet) error {
	if len(p.Bins) > MaxBins {
		return fmt.Errorf("%d bins exceed the packet limit of %d", len(p.Bins), MaxBins)
	}
	// Chain error checks for cleaner code.
	err := binary.Write(buf, binary.BigEndian, p.Sequence)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Timestamp)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Time)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Amplitude)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(p.Bins)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, p.Bins)
	}
	return err
}

// DecodePacket parses a datagram produced by Sink.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("udp: packet of %d bytes is shorter than the %d-byte header", len(b), HeaderSize)
	}
	p := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:])),
		Time:      math.Float32frombits(binary.BigEndian.Uint32(b[12:])),
		Amplitude: math.Float32frombits(binary.BigEndian.Uint32(b[16:])),
	}
	n := int(binary.BigEndian.Uint16(b[20:]))
	if len(b) != HeaderSize+4*n {
		return Packet{}, fmt.Errorf("udp: packet declares %d bins but carries %d bytes of payload", n, len(b)-HeaderSize)
	}
	p.Bins = make([]float32, n)
	for i := range p.Bins {
		p.Bins[i] = math.Float32frombits(binary.BigEndian.Uint32(b[HeaderSize+4*i:]))
	}
	return p, nil
}
