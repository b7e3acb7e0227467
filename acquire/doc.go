// Package acquire runs a wave-acquisition session: a producer goroutine that
// polls an abstract sample source at the configured rate, applies per-channel
// calibration and fills bounded ring buffers, and a consumer goroutine that
// periodically snapshots the buffers to compute wave statistics and signal
// quality. A Controller owns both loops and the Stopped/Running/Paused/Error
// state machine; callers interact only through control commands, read-only
// queries and a typed event stream.
//
// Failure policy: anything attributable to a single tick or a single channel
// (read timeouts, decode errors) is isolated, logged and recorded as a gap.
// Only configuration errors and control-surface misuse surface as errors to
// the caller; a permanently unavailable source moves the session to the
// Error state instead of crashing.
package acquire
