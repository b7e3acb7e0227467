package calib

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Fit quality thresholds on the coefficient of determination.
const (
	marginalRSquared = 0.995
	rejectedRSquared = 0.95
)

var (
	// ErrInsufficientData indicates fewer than two usable calibration points.
	ErrInsufficientData = errors.New("calib: at least 2 calibration points required")
	// ErrDegenerate indicates zero variance in the measured voltages, which
	// makes the regression ill-defined.
	ErrDegenerate = errors.New("calib: measured voltages have zero variance")
)

// Point is a single calibration reference: a known physical height and the
// voltage the sensor reported for it.
type Point struct {
	ReferenceHeight float64
	MeasuredVoltage float64
}

// Quality grades the goodness of fit of a Model. A poor fit is informational,
// never an error: the caller decides whether to re-acquire points.
type Quality int

const (
	QualityGood Quality = iota
	QualityMarginal
	QualityRejected
)

// String returns the lowercase grade name.
func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityMarginal:
		return "marginal"
	case QualityRejected:
		return "rejected"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// Model is a fitted voltage-to-height linear model. A Model is immutable;
// recalibration produces a new Model rather than mutating an existing one.
type Model struct {
	Slope      float64
	Intercept  float64
	RSquared   float64
	RMSE       float64
	PointCount int
	Quality    Quality
	FittedAt   time.Time
}

// Apply converts a raw voltage to a physical height.
func (m Model) Apply(rawVoltage float64) float64 {
	return m.Slope*rawVoltage + m.Intercept
}

// Fit computes an ordinary-least-squares model
//
//	referenceHeight = Slope * measuredVoltage + Intercept
//
// from the given points using the closed-form sums. It requires at least two
// points and non-identical voltages; goodness of fit is reported through the
// Quality grade, not through errors.
func Fit(points []Point) (Model, error) {
	n := len(points)
	if n < 2 {
		return Model{}, fmt.Errorf("%w: got %d", ErrInsufficientData, n)
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.MeasuredVoltage
		sumY += p.ReferenceHeight
		sumXY += p.MeasuredVoltage * p.ReferenceHeight
		sumXX += p.MeasuredVoltage * p.MeasuredVoltage
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return Model{}, ErrDegenerate
	}

	slope := (fn*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / fn

	meanY := sumY / fn
	var ssRes, ssTot float64
	for _, p := range points {
		predicted := slope*p.MeasuredVoltage + intercept
		residual := p.ReferenceHeight - predicted
		ssRes += residual * residual
		dev := p.ReferenceHeight - meanY
		ssTot += dev * dev
	}

	// All reference heights identical: the fit is exact whenever the
	// residuals vanish, otherwise it explains nothing.
	rSquared := 1.0
	if ssTot > 0 {
		rSquared = 1 - ssRes/ssTot
	} else if ssRes > 0 {
		rSquared = 0
	}

	m := Model{
		Slope:      slope,
		Intercept:  intercept,
		RSquared:   rSquared,
		RMSE:       math.Sqrt(ssRes / fn),
		PointCount: n,
		Quality:    gradeFit(rSquared),
		FittedAt:   time.Now(),
	}
	return m, nil
}

func gradeFit(rSquared float64) Quality {
	switch {
	case rSquared < rejectedRSquared:
		return QualityRejected
	case rSquared < marginalRSquared:
		return QualityMarginal
	default:
		return QualityGood
	}
}
