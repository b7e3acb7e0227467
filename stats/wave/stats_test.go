package wave

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-wave/core"
	"github.com/cwbudde/algo-wave/internal/testutil"
	"github.com/cwbudde/algo-wave/spectrum"
)

// sineRecord builds a sampled sinusoid record with monotonic timestamps.
func sineRecord(freq, amplitude, sampleRate float64, n int) []core.Sample {
	return testutil.SineSamples(1, freq, sampleRate, amplitude, n)
}

func TestSignificantHeightLaw(t *testing.T) {
	// Six waves with heights 1..6: Hs is the mean of [4 5 6] = 5.0.
	heights := []float64{1, 2, 3, 4, 5, 6}

	if got := significantFromWaves(heights); math.Abs(got-5.0) > 1e-12 {
		t.Fatalf("Hs = %v, want 5.0", got)
	}
}

func TestSignificantHeightStableTies(t *testing.T) {
	heights := []float64{2, 2, 2, 2, 2, 2}

	if got := significantFromWaves(heights); got != 2 {
		t.Fatalf("Hs = %v, want 2", got)
	}
}

func TestAnalyzeSinusoid(t *testing.T) {
	const (
		freq       = 0.5
		amplitude  = 1.25
		sampleRate = 10.0
		n          = 600 // 60 s, 30 full waves
	)
	s := Analyze(sineRecord(freq, amplitude, sampleRate, n))

	if s.Flags.InsufficientData {
		t.Fatal("600 samples must not be flagged insufficient")
	}
	if s.Flags.LowConfidence || s.Flags.NoCrossings {
		t.Fatalf("unexpected flags: %+v", s.Flags)
	}
	if s.WaveCount < 28 || s.WaveCount > 30 {
		t.Fatalf("wave count = %d, want ~29", s.WaveCount)
	}

	wantHeight := 2 * amplitude
	for name, got := range map[string]float64{
		"HMax": s.HMax, "HMean": s.HMean, "HSignificant": s.HSignificant,
	} {
		if math.Abs(got-wantHeight) > 0.1 {
			t.Fatalf("%s = %v, want ~%v", name, got, wantHeight)
		}
	}

	wantPeriod := 1 / freq
	if math.Abs(s.TMean-wantPeriod) > 0.05 {
		t.Fatalf("TMean = %v, want ~%v", s.TMean, wantPeriod)
	}
	if math.Abs(s.TZeroCrossing-wantPeriod) > 0.1 {
		t.Fatalf("TZeroCrossing = %v, want ~%v", s.TZeroCrossing, wantPeriod)
	}

	binWidth := sampleRate / float64(core.NextPowerOf2(n))
	if math.Abs(s.SpectralPeakFrequency-freq) > binWidth {
		t.Fatalf("spectral peak = %v, want %v within one bin", s.SpectralPeakFrequency, freq)
	}
	if math.Abs(s.TPeak-wantPeriod) > 0.2 {
		t.Fatalf("TPeak = %v, want ~%v", s.TPeak, wantPeriod)
	}

	if s.WindowStart != 0 || math.Abs(s.WindowEnd-float64(n-1)/sampleRate) > 1e-9 {
		t.Fatalf("window [%v, %v] unexpected", s.WindowStart, s.WindowEnd)
	}
}

func TestAnalyzeEmptyAndShortWindows(t *testing.T) {
	s := Analyze(nil)
	if !s.Flags.InsufficientData || !s.Flags.NoCrossings {
		t.Fatalf("empty window flags: %+v", s.Flags)
	}
	if s.SampleCount != 0 {
		t.Fatalf("sample count = %d, want 0", s.SampleCount)
	}

	// 100 samples < default 256: flagged, but statistics still computed.
	s = Analyze(sineRecord(1.0, 1, 20, 100))
	if !s.Flags.InsufficientData {
		t.Fatal("short window must be flagged insufficient")
	}
	if s.WaveCount == 0 {
		t.Fatal("short window must still detect waves")
	}
}

func TestAnalyzeFewWavesFallsBackToMean(t *testing.T) {
	// A single full wave: Hs must equal HMean and confidence drops.
	s := Analyze(sineRecord(0.5, 1, 10, 45), WithMinSamples(10))

	if s.WaveCount >= 3 {
		t.Fatalf("wave count = %d, want < 3", s.WaveCount)
	}
	if !s.Flags.LowConfidence {
		t.Fatal("want low-confidence flag with fewer than 3 waves")
	}
	if s.HSignificant != s.HMean {
		t.Fatalf("Hs = %v, want HMean %v", s.HSignificant, s.HMean)
	}
}

func TestAnalyzeConstantSignal(t *testing.T) {
	samples := make([]core.Sample, 300)
	for i := range samples {
		samples[i] = core.Sample{Timestamp: float64(i) * 0.1, Calibrated: 4.2}
	}

	s := Analyze(samples)
	if !s.Flags.NoCrossings {
		t.Fatal("constant signal must flag no crossings")
	}
	if s.WaveCount != 0 || s.TZeroCrossing != 0 {
		t.Fatalf("constant signal: waves=%d Tz=%v", s.WaveCount, s.TZeroCrossing)
	}
}

func TestAnalyzeHsValueConvention(t *testing.T) {
	s := Analyze(sineRecord(0.5, 1, 10, 600), WithHsConvention(HsValues))

	// The value-based variant approximates 2x the mean top-third crest of a
	// sinusoid; it differs from the wave-based Hs but stays in its vicinity.
	if s.HSignificant < 1.5 || s.HSignificant > 2.1 {
		t.Fatalf("value-convention Hs = %v, outside plausible range", s.HSignificant)
	}
}

func TestAnalyzeParametricModel(t *testing.T) {
	s := Analyze(sineRecord(0.2, 1, 4, 1024), WithSpectralModel(spectrum.KindJONSWAP))

	if s.Spectral.Kind != spectrum.KindJONSWAP && s.Spectral.Kind != spectrum.KindMeasuredFFT {
		t.Fatalf("spectral kind = %v, want jonswap or measured fallback", s.Spectral.Kind)
	}
	if s.Spectral.PeakFrequency <= 0 {
		t.Fatalf("spectral model peak frequency = %v", s.Spectral.PeakFrequency)
	}
}
