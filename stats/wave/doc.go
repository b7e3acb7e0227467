// Package wave computes zero-crossing wave statistics over a snapshot of
// calibrated samples: wave heights and periods from mean-level up-crossing
// segmentation, significant wave height, zero-crossing and spectral peak
// periods. Every computation is stateless with respect to prior windows.
package wave
