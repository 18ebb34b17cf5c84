// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"clipscope/internal/transport"
)

func listenTest(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receiveTest(t *testing.T, conn *net.UDPConn) Packet {
	t.Helper()
	buf := make([]byte, 65536)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP() error = %v", err)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	return p
}

func TestPacketEncoding(t *testing.T) {
	want := Packet{
		Sequence:  42,
		Timestamp: 1700000000123456789,
		Time:      12.5,
		Amplitude: 0.25,
		Bins:      []float32{0, 1.5, -2, 1024},
	}
	buf := new(bytes.Buffer)
	if err := writePacket(buf, want); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != HeaderSize+4*len(want.Bins) {
		t.Fatalf("packet length = %d, want %d", buf.Len(), HeaderSize+4*len(want.Bins))
	}
	// Sequence number leads, big-endian.
	if !bytes.Equal(buf.Bytes()[:4], []byte{0, 0, 0, 42}) {
		t.Errorf("sequence bytes = %v", buf.Bytes()[:4])
	}

	got, err := DecodePacket(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Sequence != want.Sequence || got.Timestamp != want.Timestamp ||
		got.Time != want.Time || got.Amplitude != want.Amplitude || len(got.Bins) != len(want.Bins) {
		t.Fatalf("DecodePacket() = %+v, want %+v", got, want)
	}
	for i := range want.Bins {
		if got.Bins[i] != want.Bins[i] {
			t.Errorf("bin %d = %v, want %v", i, got.Bins[i], want.Bins[i])
		}
	}
}

func TestDecodePacketRejectsMalformed(t *testing.T) {
	buf := new(bytes.Buffer)
	_ = writePacket(buf, Packet{Bins: []float32{1, 2}})
	b := buf.Bytes()

	for name, data := range map[string][]byte{
		"Short Header":     b[:HeaderSize-1],
		"Truncated Bins":   b[:len(b)-1],
		"Trailing Garbage": append(append([]byte(nil), b...), 0),
	} {
		if _, err := DecodePacket(data); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSinkSendsSpectrumUpdates(t *testing.T) {
	listener := listenTest(t)
	sink, err := NewSink(listener.LocalAddr().String(), 0)
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	defer sink.Close()

	// Ignored: no frame, or not an update at all.
	if err := sink.Send(&transport.Update{Time: 1}); err != nil {
		t.Fatal(err)
	}
	if err := sink.Send(&transport.Waveform{Values: []float64{1}}); err != nil {
		t.Fatal(err)
	}

	update := &transport.Update{Time: 2.5, SpectrumAmplitude: 0.5, Spectrum: []float64{3, 2, 1}}
	for range 2 {
		if err := sink.Send(update); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	first := receiveTest(t, listener)
	if first.Sequence != 1 || first.Time != 2.5 || first.Amplitude != 0.5 || len(first.Bins) != 3 || first.Bins[0] != 3 {
		t.Errorf("first packet = %+v", first)
	}
	if second := receiveTest(t, listener); second.Sequence != 2 {
		t.Errorf("second packet sequence = %d, want 2", second.Sequence)
	}
}

func TestSinkThrottles(t *testing.T) {
	listener := listenTest(t)
	sink, err := NewSink(listener.LocalAddr().String(), 30*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	now := time.Unix(100, 0)
	sink.now = func() time.Time { return now }
	update := &transport.Update{Spectrum: []float64{1}}

	_ = sink.Send(update) // Sent, seq 1.
	now = now.Add(10 * time.Millisecond)
	_ = sink.Send(update) // Throttled.
	now = now.Add(25 * time.Millisecond)
	_ = sink.Send(update) // Sent, seq 2.

	if p := receiveTest(t, listener); p.Sequence != 1 {
		t.Errorf("first packet sequence = %d, want 1", p.Sequence)
	}
	p := receiveTest(t, listener)
	if p.Sequence != 2 || p.Timestamp != now.UnixNano() {
		t.Errorf("second packet = {seq %d, ts %d}, want {2, %d}", p.Sequence, p.Timestamp, now.UnixNano())
	}
}

func TestSenderClosed(t *testing.T) {
	listener := listenTest(t)
	s, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := s.Stats(); got.Packets != 1 || got.Bytes != 3 || got.Errors != 0 {
		t.Errorf("Stats() = %+v, want 1 packet of 3 bytes", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Send([]byte{1}); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewUDPSenderBadAddress(t *testing.T) {
	if _, err := NewUDPSender("not-an-address"); err == nil {
		t.Error("expected error for address without port")
	}
}
