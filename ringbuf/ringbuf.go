package ringbuf

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-wave/core"
)

// Buffer is a bounded FIFO ring of samples for a single channel. When full,
// Append evicts the oldest sample first. All methods are safe for concurrent
// use; the expected pattern is a single writer (the ingest loop) and any
// number of snapshot readers.
type Buffer struct {
	mu        sync.Mutex
	channelID int
	data      []core.Sample
	head      int // index of the next write position
	length    int // number of valid samples
}

// New returns an empty Buffer for the given channel.
// Capacity must be > 0.
func New(channelID, capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ringbuf: capacity must be > 0: %d", capacity)
	}
	return &Buffer{
		channelID: channelID,
		data:      make([]core.Sample, capacity),
	}, nil
}

// ChannelID returns the channel this buffer belongs to.
func (b *Buffer) ChannelID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channelID
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length
}

// IsFull reports whether the next Append will evict the oldest sample.
func (b *Buffer) IsFull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.length == len(b.data)
}

// Append inserts one sample, evicting the oldest sample when full.
func (b *Buffer) Append(s core.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.head] = s
	b.head = (b.head + 1) % len(b.data)
	if b.length < len(b.data) {
		b.length++
	}
}

// Snapshot returns a copy of the most recent n samples in time order.
// If n <= 0 or n exceeds the current length, all available samples are
// returned. The result never aliases internal storage.
func (b *Buffer) Snapshot(n int) []core.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.length {
		n = b.length
	}
	if n == 0 {
		return nil
	}

	out := make([]core.Sample, n)

	// The newest sample sits just before head; walk back n positions.
	start := (b.head - n + len(b.data)) % len(b.data)
	for i := range n {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}

// Clear discards all samples while keeping the capacity.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.length = 0
}
