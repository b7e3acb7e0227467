// Package testutil provides deterministic signal builders and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-wave/core"
)

// Sine generates a deterministic sine wave.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// SineSamples generates a sampled sinusoid record with monotonic timestamps
// and identity calibration.
func SineSamples(channelID int, freqHz, sampleRate, amplitude float64, length int) []core.Sample {
	out := make([]core.Sample, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		v := amplitude * math.Sin(step*float64(i))
		out[i] = core.Sample{
			ChannelID:  channelID,
			Timestamp:  float64(i) / sampleRate,
			Raw:        v,
			Calibrated: v,
		}
	}
	return out
}

// Noise generates white noise with a fixed seed for reproducibility.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}
