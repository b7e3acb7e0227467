package wave

import (
	"sort"

	"github.com/cwbudde/algo-wave/core"
	"github.com/cwbudde/algo-wave/spectrum"
)

// DefaultMinSamples is the window length below which results are flagged as
// computed from insufficient data.
const DefaultMinSamples = 256

// HsConvention selects how the significant wave height is derived. The
// literature is not consistent here, so the variant is explicit configuration
// rather than an assumed equivalence.
type HsConvention int

const (
	// HsWaves averages the top third of detected zero-crossing wave heights.
	HsWaves HsConvention = iota
	// HsValues derives Hs from the top third of sample displacements instead
	// of detected waves.
	HsValues
)

// Flags qualify a Statistics result. A flagged result is still valid data;
// short or irregular windows degrade confidence, they never fail.
type Flags struct {
	InsufficientData bool // fewer samples than the configured minimum
	LowConfidence    bool // fewer than 3 detected waves
	NoCrossings      bool // no mean-level crossings; period stats undefined
}

// Statistics holds the wave parameters of one analysis window. Each result
// is self-contained: it depends only on the snapshot it was computed from.
type Statistics struct {
	WindowStart float64
	WindowEnd   float64
	SampleCount int

	WaveCount     int
	CrossingCount int // mean-level crossings in either direction

	HMax         float64
	HMin         float64
	HMean        float64
	HSignificant float64

	TMean         float64
	TPeak         float64
	TZeroCrossing float64

	SpectralPeakFrequency float64
	SpectralPeakAmplitude float64
	Spectral              spectrum.Model

	Flags Flags
}

// Option configures the analysis.
type Option func(*config)

type config struct {
	minSamples   int
	hsConvention HsConvention
	spectralKind spectrum.Kind
	window       spectrum.Window
}

// WithMinSamples overrides the insufficient-data threshold.
func WithMinSamples(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.minSamples = n
		}
	}
}

// WithHsConvention selects the significant-height variant.
func WithHsConvention(hc HsConvention) Option {
	return func(c *config) {
		c.hsConvention = hc
	}
}

// WithSpectralModel requests a parametric spectral fit in addition to the
// measured FFT peak. The fit is best effort and falls back to the measured
// spectrum.
func WithSpectralModel(k spectrum.Kind) Option {
	return func(c *config) {
		c.spectralKind = k
	}
}

// WithWindow selects the FFT taper for the spectral estimate.
func WithWindow(w spectrum.Window) Option {
	return func(c *config) {
		c.window = w
	}
}

// Analyze computes zero-crossing and spectral wave statistics over a
// time-ordered snapshot of calibrated samples. Partial results with flags are
// preferred over failure: short windows, missing crossings or degenerate
// spectra flag the result instead of erroring.
func Analyze(samples []core.Sample, opts ...Option) Statistics {
	cfg := config{minSamples: DefaultMinSamples, window: spectrum.WindowHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var s Statistics
	s.SampleCount = len(samples)
	s.Flags.InsufficientData = len(samples) < cfg.minSamples
	if len(samples) == 0 {
		s.Flags.NoCrossings = true
		s.Flags.LowConfidence = true
		return s
	}

	s.WindowStart = samples[0].Timestamp
	s.WindowEnd = samples[len(samples)-1].Timestamp

	values := core.Calibrated(nil, samples)
	times := core.Timestamps(nil, samples)
	mean := core.Mean(values)

	waves, crossings := segment(values, times, mean)
	s.WaveCount = len(waves)
	s.CrossingCount = crossings

	if len(waves) > 0 {
		heights := make([]float64, len(waves))
		periods := make([]float64, len(waves))
		for i, w := range waves {
			heights[i] = w.height
			periods[i] = w.period
		}

		s.HMax = maxOf(heights)
		s.HMin = minOf(heights)
		s.HMean = core.Mean(heights)
		s.TMean = core.Mean(periods)

		if len(waves) < 3 {
			s.HSignificant = s.HMean
			s.Flags.LowConfidence = true
		} else {
			switch cfg.hsConvention {
			case HsValues:
				s.HSignificant = significantFromValues(values, mean)
			default:
				s.HSignificant = significantFromWaves(heights)
			}
		}
	} else {
		s.Flags.LowConfidence = true
	}

	duration := s.WindowEnd - s.WindowStart
	if crossings > 0 && duration > 0 {
		s.TZeroCrossing = 2 * duration / float64(crossings)
	} else {
		s.Flags.NoCrossings = true
	}

	if len(samples) >= 2 && duration > 0 {
		sampleRate := float64(len(samples)-1) / duration
		est, err := spectrum.Compute(values, sampleRate, spectrum.WithWindow(cfg.window))
		if err == nil && est.PeakBin > 0 {
			s.SpectralPeakFrequency = est.PeakFrequency
			s.SpectralPeakAmplitude = est.PeakAmplitude
			s.TPeak = 1 / est.PeakFrequency
			s.Spectral = spectrum.FitModel(est, cfg.spectralKind)
		}
	}

	return s
}

// waveSegment is one wave between two consecutive mean-level up-crossings.
type waveSegment struct {
	height float64 // max - min within the segment
	period float64 // time between the bounding up-crossings
}

// segment detects mean-level crossings and cuts the record into waves.
// Crossing times are linearly interpolated between the bracketing samples.
func segment(values, times []float64, mean float64) ([]waveSegment, int) {
	var (
		waves       []waveSegment
		crossings   int
		upIdx       = -1 // sample index just after the previous up-crossing
		upTime      float64
		firstUpSeen bool
	)

	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]

		up := prev < mean && cur >= mean
		down := prev >= mean && cur < mean
		if !up && !down {
			continue
		}
		crossings++

		if !up {
			continue
		}

		t := crossTime(times[i-1], times[i], prev, cur, mean)
		if firstUpSeen {
			segMin, segMax := values[upIdx], values[upIdx]
			for j := upIdx; j <= i; j++ {
				if values[j] > segMax {
					segMax = values[j]
				}
				if values[j] < segMin {
					segMin = values[j]
				}
			}
			waves = append(waves, waveSegment{height: segMax - segMin, period: t - upTime})
		}
		firstUpSeen = true
		upIdx = i - 1
		upTime = t
	}

	return waves, crossings
}

func crossTime(t0, t1, v0, v1, level float64) float64 {
	if v1 == v0 {
		return t0
	}
	return t0 + (level-v0)/(v1-v0)*(t1-t0)
}

// significantFromWaves averages the top third of the sorted wave-height
// list, boundary wave included. Ties keep their original order.
func significantFromWaves(heights []float64) float64 {
	sorted := make([]float64, len(heights))
	copy(sorted, heights)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	k := len(sorted)/3 + 1
	if k > len(sorted) {
		k = len(sorted)
	}
	return core.Mean(sorted[:k])
}

// significantFromValues is the sample-value variant: twice the mean crest
// displacement of the top third of samples above the mean level.
func significantFromValues(values []float64, mean float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	k := len(sorted)/3 + 1
	if k > len(sorted) {
		k = len(sorted)
	}
	return 2 * (core.Mean(sorted[:k]) - mean)
}

func maxOf(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(data []float64) float64 {
	m := data[0]
	for _, v := range data[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
