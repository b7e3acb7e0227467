// Package ringbuf provides the bounded per-channel sample buffer used by the
// acquisition runtime. The buffer is a pure FIFO: insertion order equals time
// order as long as the single producer appends in time order, and eviction
// always removes the oldest sample. Snapshots are defensive copies so a
// concurrent append can never mutate data already handed to a caller.
package ringbuf
