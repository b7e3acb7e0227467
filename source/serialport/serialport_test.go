package serialport

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-wave/acquire"
)

// fakePort is a scripted serial.Port: Read hands out the queued bytes and
// then behaves like a timed-out read until more are queued.
type fakePort struct {
	serial.Port

	mu     sync.Mutex
	queue  []byte
	err    error
	closed bool
}

func (p *fakePort) feed(b []byte) {
	p.mu.Lock()
	p.queue = append(p.queue, b...)
	p.mu.Unlock()
}

func (p *fakePort) failWith(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if p.err != nil && len(p.queue) == 0 {
		err := p.err
		p.mu.Unlock()
		return 0, err
	}
	n := copy(b, p.queue)
	p.queue = p.queue[n:]
	p.mu.Unlock()

	if n == 0 {
		time.Sleep(time.Millisecond)
	}
	return n, nil
}

func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (p *fakePort) ResetInputBuffer() error            { return nil }

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func packet(t *testing.T, stop []byte, values ...float32) []byte {
	t.Helper()
	b := make([]byte, 0, 4*len(values)+len(stop))
	for _, v := range values {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return append(b, stop...)
}

func testSource(t *testing.T, channels int) (*Source, *fakePort) {
	t.Helper()
	port := &fakePort{}
	// Start mid-stream so the reader has to resync before the first packet.
	port.feed([]byte("\r\n"))

	s, err := newSource(port, Config{
		PortName: "fake",
		BaudRate: 115200,
		Channels: channels,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("newSource: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, port
}

func readValue(t *testing.T, s *Source, channelID int) float64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := s.Read(ctx, channelID)
	if err != nil {
		t.Fatalf("Read(channel %d): %v", channelID, err)
	}
	return v
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero baud rate", Config{BaudRate: 0, Channels: 1}},
		{"no channels", Config{BaudRate: 9600, Channels: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newSource(&fakePort{}, tt.cfg, nil); err == nil {
				t.Fatalf("newSource(%+v) expected error", tt.cfg)
			}
		})
	}
}

func TestReadDecodesPackets(t *testing.T) {
	s, port := testSource(t, 2)

	port.feed(packet(t, DefaultStopSequence, 1.25, -2.5))

	if got := readValue(t, s, 0); got != 1.25 {
		t.Fatalf("channel 0 = %v, want 1.25", got)
	}
	if got := readValue(t, s, 1); got != -2.5 {
		t.Fatalf("channel 1 = %v, want -2.5", got)
	}
}

func TestReadHandsOutEachValueOnce(t *testing.T) {
	s, port := testSource(t, 1)

	port.feed(packet(t, DefaultStopSequence, 3.0))
	if got := readValue(t, s, 0); got != 3.0 {
		t.Fatalf("first read = %v, want 3.0", got)
	}

	// Same packet must not be handed out twice; with no new packet the
	// second read times out.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Read(ctx, 0); !errors.Is(err, acquire.ErrReadTimeout) {
		t.Fatalf("stale read error = %v, want %v", err, acquire.ErrReadTimeout)
	}
}

func TestResyncAfterFramingError(t *testing.T) {
	s, port := testSource(t, 1)

	// A torn packet (wrong terminator) followed by a good one.
	bad := packet(t, []byte("xx"), 9.0)
	port.feed(bad)
	port.feed(packet(t, DefaultStopSequence, 4.5))
	// Padding so the resync scan finds a boundary even if it consumed
	// part of the good packet.
	port.feed(packet(t, DefaultStopSequence, 4.5))

	if got := readValue(t, s, 0); got != 4.5 {
		t.Fatalf("post-resync read = %v, want 4.5", got)
	}
}

func TestChannelOutOfRange(t *testing.T) {
	s, _ := testSource(t, 2)

	ctx := context.Background()
	if _, err := s.Read(ctx, 2); err == nil {
		t.Fatal("Read(channel 2) expected error")
	}
	if _, err := s.Read(ctx, -1); err == nil {
		t.Fatal("Read(channel -1) expected error")
	}
}

func TestPortFailureReportsUnavailable(t *testing.T) {
	s, port := testSource(t, 1)

	port.failWith(errors.New("device removed"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := s.Read(ctx, 0); !errors.Is(err, acquire.ErrSourceUnavailable) {
		t.Fatalf("Read after port failure = %v, want %v", err, acquire.ErrSourceUnavailable)
	}
}

func TestCloseUnblocksRead(t *testing.T) {
	s, _ := testSource(t, 1)

	done := make(chan error, 1)
	go func() {
		_, err := s.Read(context.Background(), 0)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, acquire.ErrSourceUnavailable) {
			t.Fatalf("Read after Close = %v, want %v", err, acquire.ErrSourceUnavailable)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not return after Close")
	}
}
