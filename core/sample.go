package core

// Sample is one timestamped reading on a single channel. The timestamp is
// monotonic seconds since the start of the acquisition session. A Sample is
// immutable once created; components exchange copies, never shared pointers.
type Sample struct {
	ChannelID  int
	Timestamp  float64
	Raw        float64
	Calibrated float64
}

// Calibrated extracts the calibrated values of samples into dst, reusing its
// capacity if possible, and returns the resulting slice.
func Calibrated(dst []float64, samples []Sample) []float64 {
	dst = EnsureLen(dst, len(samples))
	for i := range samples {
		dst[i] = samples[i].Calibrated
	}
	return dst
}

// Timestamps extracts the timestamps of samples into dst, reusing its
// capacity if possible, and returns the resulting slice.
func Timestamps(dst []float64, samples []Sample) []float64 {
	dst = EnsureLen(dst, len(samples))
	for i := range samples {
		dst[i] = samples[i].Timestamp
	}
	return dst
}
