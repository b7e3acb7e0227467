package serialport

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-wave/acquire"
)

// DefaultStopSequence terminates each packet on the wire.
var DefaultStopSequence = []byte{'\r', '\n'}

const defaultReadTimeout = 5 * time.Millisecond

// Config describes the wire format of a serial wave sensor: one packet per
// sampling tick carrying a little-endian float32 per channel, terminated by
// a stop sequence.
type Config struct {
	PortName string
	BaudRate int
	// Channels is the number of values per packet; channel ids are 0-based.
	Channels int
	// StopSequence defaults to "\r\n".
	StopSequence []byte
	// ReadTimeout bounds each low-level port read; defaults to 5 ms.
	ReadTimeout time.Duration
}

func (c *Config) normalize() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("serialport: baud rate must be > 0: %d", c.BaudRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("serialport: at least one channel required: %d", c.Channels)
	}
	if len(c.StopSequence) == 0 {
		c.StopSequence = DefaultStopSequence
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	return nil
}

// OutOfSyncError reports a packet whose stop sequence did not match; the
// reader resynchronizes on the next stop sequence.
type OutOfSyncError struct {
	Packet []byte
}

func (e *OutOfSyncError) Error() string {
	return fmt.Sprintf("serialport: bad stop sequence in packet: %v", e.Packet)
}

// Source adapts a serial wave sensor to the acquire.Source contract. A
// background reader keeps the freshest decoded value per channel; Read hands
// each value out once and reports a gap when no new packet arrived in time.
type Source struct {
	port       serial.Port
	logger     *zap.Logger
	cfg        Config
	packetSize int

	mu     sync.Mutex
	latest []float64
	fresh  []bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open connects to the configured port and starts the background reader.
func Open(cfg Config, logger *zap.Logger) (*Source, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.PortName, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.PortName, err)
	}
	return newSource(port, cfg, logger)
}

// newSource wires an already opened port; split from Open for tests.
func newSource(port serial.Port, cfg Config, logger *zap.Logger) (*Source, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, fmt.Errorf("serialport: set read timeout: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("serialport: reset input buffer: %w", err)
	}

	s := &Source{
		port:       port,
		logger:     logger,
		cfg:        cfg,
		packetSize: 4*cfg.Channels + len(cfg.StopSequence),
		latest:     make([]float64, cfg.Channels),
		fresh:      make([]bool, cfg.Channels),
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Read returns the freshest value for the channel, waiting until a new
// packet arrives or the context expires. An expired context is reported as
// acquire.ErrReadTimeout so the caller records a gap; a closed or failed
// port is reported as acquire.ErrSourceUnavailable.
func (s *Source) Read(ctx context.Context, channelID int) (float64, error) {
	if channelID < 0 || channelID >= s.cfg.Channels {
		return 0, fmt.Errorf("serialport: channel %d out of range [0, %d)", channelID, s.cfg.Channels)
	}

	for {
		s.mu.Lock()
		if s.fresh[channelID] {
			s.fresh[channelID] = false
			v := s.latest[channelID]
			s.mu.Unlock()
			return v, nil
		}
		s.mu.Unlock()

		select {
		case <-s.notify:
		case <-ctx.Done():
			return 0, acquire.ErrReadTimeout
		case <-s.done:
			return 0, acquire.ErrSourceUnavailable
		}
	}
}

// Close stops the background reader and closes the port.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}

// run is the background reader: resync, then read packets until closed.
func (s *Source) run() {
	buf := make([]byte, s.packetSize)
	s.resync()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.readPacket(buf); err != nil {
			if oos, ok := err.(*OutOfSyncError); ok {
				s.logger.Warn("serial packet out of sync, resyncing",
					zap.String("port", s.cfg.PortName),
					zap.ByteString("packet", oos.Packet),
				)
				s.resync()
				continue
			}
			select {
			case <-s.done:
			default:
				s.logger.Error("serial port failed", zap.String("port", s.cfg.PortName), zap.Error(err))
				s.closeOnce.Do(func() {
					close(s.done)
					_ = s.port.Close()
				})
			}
			return
		}

		s.store(buf)
	}
}

// readPacket fills buf with exactly one packet and validates its terminator.
func (s *Source) readPacket(buf []byte) error {
	count := 0
	for count < s.packetSize {
		select {
		case <-s.done:
			return acquire.ErrSourceUnavailable
		default:
		}

		n, err := s.port.Read(buf[count:])
		if err != nil {
			return err
		}
		count += n
	}

	if !bytes.Equal(buf[s.packetSize-len(s.cfg.StopSequence):], s.cfg.StopSequence) {
		packet := make([]byte, s.packetSize)
		copy(packet, buf)
		return &OutOfSyncError{Packet: packet}
	}
	return nil
}

// store decodes the per-channel float32 payload and wakes waiting readers.
func (s *Source) store(packet []byte) {
	s.mu.Lock()
	for i := range s.cfg.Channels {
		bits := binary.LittleEndian.Uint32(packet[i*4:])
		s.latest[i] = float64(math.Float32frombits(bits))
		s.fresh[i] = true
	}
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// resync discards bytes until the end of a stop sequence so the next read
// starts on a packet boundary.
func (s *Source) resync() {
	last := s.cfg.StopSequence[len(s.cfg.StopSequence)-1]
	one := make([]byte, 1)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(one)
		if err != nil {
			return
		}
		if n == 1 && one[0] == last {
			return
		}
	}
}
