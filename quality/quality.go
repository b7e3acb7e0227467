package quality

import (
	"sync/atomic"

	"github.com/cwbudde/algo-wave/core"
)

// DefaultMinWindow is the snapshot length below which the SNR estimate is
// reported as 0 instead of being computed.
const DefaultMinWindow = 32

// smoothingSpan is the moving-average length used to split a snapshot into
// signal and high-frequency residual.
const smoothingSpan = 5

// maxSNRdB caps the SNR estimate when the residual vanishes entirely, so a
// perfectly smooth window reports a finite value.
const maxSNRdB = 300.0

// Snapshot holds the per-channel signal-quality metrics of one evaluation
// tick. It is a transient value recomputed from the then-current buffer
// contents; no history is kept here.
type Snapshot struct {
	ChannelID          int
	SNRdB              float64
	SaturationFraction float64 // in [0, 1]
	GapCount           int64
	SampleCount        int
}

// GapCounter accumulates skipped ingest ticks for one channel. Record is
// called by the producer, Drain by the evaluator; both are lock-free.
type GapCounter struct {
	n atomic.Int64
}

// Record counts one skipped tick.
func (g *GapCounter) Record() {
	g.n.Add(1)
}

// Drain returns the count accumulated since the previous Drain and resets it.
func (g *GapCounter) Drain() int64 {
	return g.n.Swap(0)
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRange declares the physical measurement range used for saturation
// detection. Ignored unless max > min.
func WithRange(min, max float64) Option {
	return func(m *Monitor) {
		if max > min {
			m.rangeMin, m.rangeMax = min, max
			m.hasRange = true
		}
	}
}

// WithSaturationTolerance sets how close to a range bound a calibrated value
// must be to count as saturated. Negative values are ignored.
func WithSaturationTolerance(tol float64) Option {
	return func(m *Monitor) {
		if tol >= 0 {
			m.tolerance = tol
		}
	}
}

// WithMinWindow overrides the minimum snapshot length for SNR estimation.
func WithMinWindow(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.minWindow = n
		}
	}
}

// Monitor derives signal-quality metrics from buffer snapshots. A Monitor is
// stateless across evaluations apart from the configuration it carries, so a
// single Monitor may serve several channels with the same declared range.
type Monitor struct {
	rangeMin  float64
	rangeMax  float64
	hasRange  bool
	tolerance float64
	minWindow int
}

// NewMonitor returns a Monitor with the given options applied.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{minWindow: DefaultMinWindow}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Evaluate computes quality metrics for one channel snapshot. gaps is the
// number of skipped ticks drained from the channel's GapCounter. Short
// snapshots yield SNRdB = 0 with SampleCount reflecting the shortfall.
func (m *Monitor) Evaluate(channelID int, snapshot []core.Sample, gaps int64) Snapshot {
	s := Snapshot{
		ChannelID:   channelID,
		GapCount:    gaps,
		SampleCount: len(snapshot),
	}
	if len(snapshot) == 0 {
		return s
	}

	values := core.Calibrated(nil, snapshot)
	s.SNRdB = m.snr(values)
	s.SaturationFraction = m.saturation(values)
	return s
}

// snr estimates signal-to-noise in dB. The signal is a short moving average
// of the snapshot; the noise is the high-frequency residual left after
// subtracting it.
func (m *Monitor) snr(values []float64) float64 {
	if len(values) < m.minWindow {
		return 0
	}

	smoothed := movingAverage(values, smoothingSpan)

	noise := make([]float64, len(values))
	for i := range values {
		noise[i] = values[i] - smoothed[i]
	}

	mean := core.Mean(smoothed)
	for i := range smoothed {
		smoothed[i] -= mean
	}

	signalRMS := core.RMS(smoothed)
	noiseRMS := core.RMS(noise)
	if noiseRMS == 0 {
		return maxSNRdB
	}
	return core.RatioTodB(signalRMS / noiseRMS)
}

// saturation returns the fraction of values within tolerance of a declared
// range bound, or 0 when no range is declared.
func (m *Monitor) saturation(values []float64) float64 {
	if !m.hasRange {
		return 0
	}

	saturated := 0
	for _, v := range values {
		if v >= m.rangeMax-m.tolerance || v <= m.rangeMin+m.tolerance {
			saturated++
		}
	}
	return float64(saturated) / float64(len(values))
}

// movingAverage returns the centered moving average of values with the given
// span, shrinking the window near the edges.
func movingAverage(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	half := span / 2
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(values) {
			hi = len(values) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}
