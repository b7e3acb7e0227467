// Package calib fits and applies per-channel voltage-to-height calibration
// models. Fitting uses closed-form ordinary least squares over reference
// points collected during a calibration session; applying a model is a pure
// O(1) linear mapping suitable for the per-sample hot path.
package calib
