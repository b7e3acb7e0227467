package spectrum

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-wave/core"
)

// Window identifies the taper applied before the FFT. The set is closed and
// resolved at configuration time; there is no runtime registry.
type Window int

const (
	WindowHann Window = iota
	WindowRectangular
	WindowHamming
	WindowBlackman
)

// String returns the lowercase window name.
func (w Window) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowRectangular:
		return "rectangular"
	case WindowHamming:
		return "hamming"
	case WindowBlackman:
		return "blackman"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// Estimate is a one-sided magnitude spectrum of a detrended, windowed record.
type Estimate struct {
	SampleRate    float64
	FFTSize       int
	BinWidth      float64   // Hz per bin
	Magnitude     []float64 // bins 0..Nyquist, amplitude-normalized
	PeakBin       int       // peak excluding DC, in (0, Nyquist)
	PeakFrequency float64
	PeakAmplitude float64
}

// Option configures spectral estimation.
type Option func(*config)

type config struct {
	window  Window
	fftSize int
}

// WithWindow selects the taper. The default is Hann.
func WithWindow(w Window) Option {
	return func(c *config) {
		c.window = w
	}
}

// WithFFTSize forces the FFT size instead of the next power of two above the
// record length. Values smaller than the record are ignored.
func WithFFTSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.fftSize = n
		}
	}
}

// Compute detrends and windows a copy of values, runs a forward FFT and
// returns the one-sided amplitude spectrum with its peak. The record itself
// is never modified. At least 2 samples and a positive sample rate are
// required.
func Compute(values []float64, sampleRate float64, opts ...Option) (Estimate, error) {
	if len(values) < 2 {
		return Estimate{}, fmt.Errorf("spectrum: at least 2 samples required: %d", len(values))
	}
	if sampleRate <= 0 {
		return Estimate{}, fmt.Errorf("spectrum: sample rate must be > 0: %f", sampleRate)
	}

	cfg := config{window: WindowHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fftSize := core.NextPowerOf2(len(values))
	if cfg.fftSize >= len(values) {
		fftSize = core.NextPowerOf2(cfg.fftSize)
	}

	windowed := make([]float64, len(values))
	copy(windowed, values)
	core.Detrend(windowed)

	coeffs := coefficients(cfg.window, len(values))
	vecmath.MulBlockInPlace(windowed, coeffs)

	coherentGain := 0.0
	for _, c := range coeffs {
		coherentGain += c
	}
	if coherentGain == 0 {
		return Estimate{}, fmt.Errorf("spectrum: window %s has zero coherent gain", cfg.window)
	}

	inData := make([]complex128, fftSize)
	for i, v := range windowed {
		inData[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Estimate{}, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return Estimate{}, fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)
	for i := range binCount {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	magnitude := make([]float64, binCount)
	vecmath.Magnitude(magnitude, re, im)

	// Single-sided amplitude normalization: compensate window loss and the
	// split across positive/negative frequencies.
	scale := 2 / coherentGain
	for i := range magnitude {
		magnitude[i] *= scale
	}
	magnitude[0] /= 2

	est := Estimate{
		SampleRate: sampleRate,
		FFTSize:    fftSize,
		BinWidth:   sampleRate / float64(fftSize),
		Magnitude:  magnitude,
	}

	// Peak search in (0, Nyquist), DC and Nyquist bins excluded.
	for i := 1; i < binCount-1; i++ {
		if magnitude[i] > est.PeakAmplitude {
			est.PeakAmplitude = magnitude[i]
			est.PeakBin = i
		}
	}
	if est.PeakBin > 0 {
		est.PeakFrequency = float64(est.PeakBin) * est.BinWidth
	}

	return est, nil
}

// coefficients generates symmetric window coefficients.
func coefficients(w Window, length int) []float64 {
	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out
	}

	n := float64(length - 1)
	for i := range out {
		x := float64(i) / n
		switch w {
		case WindowRectangular:
			out[i] = 1
		case WindowHamming:
			out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*x)
		case WindowBlackman:
			out[i] = 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
		default: // Hann
			out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*x)
		}
	}
	return out
}
