package acquire

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-wave/spectrum"
	"github.com/cwbudde/algo-wave/stats/wave"
)

// Config describes one acquisition session. It is passed explicitly at
// construction; the core holds no process-wide mutable state.
type Config struct {
	// SamplingRateHz is the producer tick rate. Must be > 0.
	SamplingRateHz float64
	// ChannelIDs lists the active channels. Must be non-empty and free of
	// duplicates.
	ChannelIDs []int
	// BufferCapacity is the per-channel ring capacity in samples. Must be > 0.
	BufferCapacity int

	// StatisticsWindowSeconds is the trailing window the consumer analyzes.
	// Must be > 0.
	StatisticsWindowSeconds float64
	// StatisticsIntervalSeconds is the consumer tick; defaults to 0.5 s.
	StatisticsIntervalSeconds float64

	// SaturationTolerance is the distance to a physical range bound within
	// which a sample counts as saturated. Must be >= 0.
	SaturationTolerance float64
	// PhysicalRangeMin/Max declare the sensor's physical range for
	// saturation detection. Ignored unless Max > Min.
	PhysicalRangeMin float64
	PhysicalRangeMax float64

	// HsConvention selects the significant-height variant.
	HsConvention wave.HsConvention
	// SpectralModel optionally requests a parametric spectral fit.
	SpectralModel spectrum.Kind
	// Window selects the FFT taper for spectral estimates.
	Window spectrum.Window
}

// Validate checks the configuration, wrapping ErrInvalidConfiguration.
func (c Config) Validate() error {
	if c.SamplingRateHz <= 0 {
		return fmt.Errorf("%w: sampling rate must be > 0: %f", ErrInvalidConfiguration, c.SamplingRateHz)
	}
	if len(c.ChannelIDs) == 0 {
		return fmt.Errorf("%w: at least one channel required", ErrInvalidConfiguration)
	}
	seen := make(map[int]struct{}, len(c.ChannelIDs))
	for _, id := range c.ChannelIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate channel id %d", ErrInvalidConfiguration, id)
		}
		seen[id] = struct{}{}
	}
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("%w: buffer capacity must be > 0: %d", ErrInvalidConfiguration, c.BufferCapacity)
	}
	if c.StatisticsWindowSeconds <= 0 {
		return fmt.Errorf("%w: statistics window must be > 0: %f", ErrInvalidConfiguration, c.StatisticsWindowSeconds)
	}
	if c.StatisticsIntervalSeconds < 0 {
		return fmt.Errorf("%w: statistics interval must be >= 0: %f", ErrInvalidConfiguration, c.StatisticsIntervalSeconds)
	}
	if c.SaturationTolerance < 0 {
		return fmt.Errorf("%w: saturation tolerance must be >= 0: %f", ErrInvalidConfiguration, c.SaturationTolerance)
	}
	return nil
}

// samplingInterval returns the producer tick duration.
func (c Config) samplingInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.SamplingRateHz)
}

// statisticsInterval returns the consumer tick duration.
func (c Config) statisticsInterval() time.Duration {
	if c.StatisticsIntervalSeconds <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.StatisticsIntervalSeconds * float64(time.Second))
}

// windowSamples returns the trailing snapshot length for analysis.
func (c Config) windowSamples() int {
	n := int(c.StatisticsWindowSeconds * c.SamplingRateHz)
	if n < 1 {
		n = 1
	}
	if n > c.BufferCapacity {
		n = c.BufferCapacity
	}
	return n
}
