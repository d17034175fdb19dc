// Package cvar implements the Cornish-Fisher adjusted Conditional
// Value-at-Risk estimate used as the optimization objective.
package cvar

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/BrunoAngeletti/UTDT/internal/dataset"
	"github.com/BrunoAngeletti/UTDT/pkg/formulas"
)

// Cornish-Fisher adjustment coefficients, calibrated for the 5% tail
// (confidence 0.95). They are not valid for other confidence levels.
const (
	cfSkewCoeff     = -0.2741
	cfSkewSqCoeff   = -0.1225
	cfKurtosisCoeff = 0.0711
)

// Estimator computes the Cornish-Fisher adjusted portfolio CVaR for a
// fixed confidence level. The estimate is pure: identical inputs always
// produce the identical value.
type Estimator struct {
	confidence float64
	z          float64 // standard normal quantile at alpha
	gaussianY  float64 // pdf(z) / alpha
}

// NewEstimator creates an estimator for the given confidence level
// (e.g., 0.95). Levels other than 0.95 are accepted but logged, because the
// Cornish-Fisher coefficients are calibrated for the 5% tail only.
func NewEstimator(confidence float64, log zerolog.Logger) (*Estimator, error) {
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence %v outside (0, 1)", confidence)
	}

	if confidence != 0.95 {
		log.Warn().
			Float64("confidence", confidence).
			Msg("Cornish-Fisher coefficients are calibrated for confidence 0.95; estimates at other levels are approximate")
	}

	alpha := 1.0 - confidence
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	z := normal.Quantile(alpha)

	return &Estimator{
		confidence: confidence,
		z:          z,
		gaussianY:  normal.Prob(z) / alpha,
	}, nil
}

// Confidence returns the configured confidence level.
func (e *Estimator) Confidence() float64 { return e.confidence }

// Estimate computes the negated Cornish-Fisher CVaR of the weighted
// portfolio over the sample: a large positive value means high tail risk,
// so a minimizer drives actual risk down.
//
// Degenerate samples (zero variance, too few observations for the higher
// moments) produce a finite result: undefined moments are substituted
// with 0, and a zero stddev collapses the estimate to the negated mean.
func (e *Estimator) Estimate(sample *dataset.ReturnMatrix, weights []float64) (float64, error) {
	series, err := sample.PortfolioReturns(weights)
	if err != nil {
		return 0, err
	}
	return e.EstimateSeries(series), nil
}

// EstimateSeries computes the negated Cornish-Fisher CVaR of an already
// collapsed portfolio return series.
func (e *Estimator) EstimateSeries(series []float64) float64 {
	mu := formulas.Mean(series)
	sigma := formulas.StdDev(series)
	skew := formulas.Skewness(series)
	kurt := formulas.ExcessKurtosis(series)

	factor := 1.0 + cfSkewCoeff*skew + cfSkewSqCoeff*skew*skew + cfKurtosisCoeff*kurt
	cvarCF := -e.gaussianY * factor

	return -(mu + sigma*cvarCF)
}
