// Package spectrum estimates the frequency content of a wave record. Compute
// produces a one-sided amplitude spectrum of the detrended, windowed record
// and locates the spectral peak in (0, Nyquist); FitModel optionally fits a
// parametric wave-spectrum model (JONSWAP, Pierson-Moskowitz, Goda) against
// the measured estimate, falling back to the measured spectrum when the fit
// degenerates.
package spectrum
