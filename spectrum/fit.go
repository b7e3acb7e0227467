package spectrum

import (
	"fmt"
	"math"
)

// Kind identifies a spectral model family.
type Kind int

const (
	KindMeasuredFFT Kind = iota
	KindJONSWAP
	KindPiersonMoskowitz
	KindGodaSVD
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindMeasuredFFT:
		return "measured_fft"
	case KindJONSWAP:
		return "jonswap"
	case KindPiersonMoskowitz:
		return "pierson_moskowitz"
	case KindGodaSVD:
		return "goda_svd"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Model is a parametric description of a wave spectrum. Parameters are keyed
// by name; the set of keys depends on the Kind.
type Model struct {
	Kind          Kind
	Parameters    map[string]float64
	PeakFrequency float64
	PeakAmplitude float64
}

// FitModel fits a parametric model of the requested kind against a measured
// estimate by least squares. Fitting is best effort: any degenerate input or
// failure to converge yields the measured-FFT model instead of an error.
func FitModel(est Estimate, kind Kind) Model {
	measured := Model{
		Kind:          KindMeasuredFFT,
		PeakFrequency: est.PeakFrequency,
		PeakAmplitude: est.PeakAmplitude,
	}

	if kind == KindMeasuredFFT || est.PeakBin <= 0 || est.PeakFrequency <= 0 {
		return measured
	}

	switch kind {
	case KindJONSWAP:
		gamma, scale, ok := fitShape(est, 1.0, 7.0, 0.25)
		if !ok {
			return measured
		}
		return shapeModel(est, KindJONSWAP, gamma, scale)

	case KindPiersonMoskowitz:
		// Pierson-Moskowitz is the gamma = 1 member of the JONSWAP family.
		_, scale, ok := fitShape(est, 1.0, 1.0, 1.0)
		if !ok {
			return measured
		}
		return shapeModel(est, KindPiersonMoskowitz, 1.0, scale)

	case KindGodaSVD:
		qp, ok := peakedness(est)
		if !ok {
			return measured
		}
		// Goda's empirical relation between spectral peakedness and the
		// peak-enhancement factor, clamped to the usual JONSWAP range.
		gamma := clamp(2.2*qp-1.4, 1.0, 7.0)
		scale, ok := fitScale(est, gamma)
		if !ok {
			return measured
		}
		m := shapeModel(est, KindGodaSVD, gamma, scale)
		m.Parameters["peakedness"] = qp
		return m
	}

	return measured
}

// jonswapShape evaluates the unscaled JONSWAP spectral shape at frequency f
// for peak frequency fp and peak-enhancement factor gamma.
func jonswapShape(f, fp, gamma float64) float64 {
	if f <= 0 {
		return 0
	}
	sigma := 0.07
	if f > fp {
		sigma = 0.09
	}
	d := (f - fp) / (sigma * fp)
	b := math.Exp(-0.5 * d * d)
	return math.Pow(f, -5) * math.Exp(-1.25*math.Pow(fp/f, 4)) * math.Pow(gamma, b)
}

// fitShape grid-searches gamma in [lo, hi] and solves the optimal linear
// scale in closed form for each candidate, minimizing squared residual
// against the measured magnitudes.
func fitShape(est Estimate, lo, hi, step float64) (gamma, scale float64, ok bool) {
	bestResidual := math.Inf(1)
	for g := lo; g <= hi+step/2; g += step {
		s, sOK := fitScale(est, g)
		if !sOK {
			continue
		}
		r := residual(est, g, s)
		if r < bestResidual {
			bestResidual = r
			gamma = g
			scale = s
		}
	}
	return gamma, scale, !math.IsInf(bestResidual, 1)
}

// fitScale returns the least-squares linear scale for a fixed gamma.
func fitScale(est Estimate, gamma float64) (float64, bool) {
	fp := est.PeakFrequency
	var num, den float64
	for i := 1; i < len(est.Magnitude); i++ {
		f := float64(i) * est.BinWidth
		s := jonswapShape(f, fp, gamma)
		num += est.Magnitude[i] * s
		den += s * s
	}
	if den == 0 {
		return 0, false
	}
	scale := num / den
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return 0, false
	}
	return scale, true
}

func residual(est Estimate, gamma, scale float64) float64 {
	fp := est.PeakFrequency
	sum := 0.0
	for i := 1; i < len(est.Magnitude); i++ {
		f := float64(i) * est.BinWidth
		d := est.Magnitude[i] - scale*jonswapShape(f, fp, gamma)
		sum += d * d
	}
	return sum
}

// peakedness computes Goda's spectral peakedness parameter Qp from the
// measured magnitude spectrum.
func peakedness(est Estimate) (float64, bool) {
	var m0, q float64
	df := est.BinWidth
	for i := 1; i < len(est.Magnitude); i++ {
		f := float64(i) * df
		s := est.Magnitude[i] * est.Magnitude[i]
		m0 += s * df
		q += f * s * s * df
	}
	if m0 == 0 {
		return 0, false
	}
	qp := 2 * q / (m0 * m0)
	if math.IsNaN(qp) || math.IsInf(qp, 0) || qp <= 0 {
		return 0, false
	}
	return qp, true
}

func shapeModel(est Estimate, kind Kind, gamma, scale float64) Model {
	fp := est.PeakFrequency
	return Model{
		Kind: kind,
		Parameters: map[string]float64{
			"gamma": gamma,
			"scale": scale,
		},
		PeakFrequency: fp,
		PeakAmplitude: scale * jonswapShape(fp, fp, gamma),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
