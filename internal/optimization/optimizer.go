package optimization

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrunoAngeletti/UTDT/internal/cvar"
	"github.com/BrunoAngeletti/UTDT/internal/dataset"
)

// WeightOptimizer minimizes the Cornish-Fisher CVaR estimate over the
// long-only weight simplex for a single in-sample window.
type WeightOptimizer struct {
	estimator *cvar.Estimator
	solver    Solver
	log       zerolog.Logger
}

// NewWeightOptimizer creates a weight optimizer backed by the given solver.
func NewWeightOptimizer(estimator *cvar.Estimator, solver Solver, log zerolog.Logger) *WeightOptimizer {
	return &WeightOptimizer{
		estimator: estimator,
		solver:    solver,
		log:       log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize finds the weight vector minimizing the CVaR estimate over the
// sample, starting from uniform weights. When the solver fails to converge
// it logs a warning and falls back to the uniform vector with its
// recomputed CVaR: a single window's non-convergence never aborts a
// backtest. The returned error covers structural problems only.
func (o *WeightOptimizer) Optimize(sample *dataset.ReturnMatrix) ([]float64, float64, error) {
	if sample == nil || sample.Rows() == 0 {
		return nil, 0, fmt.Errorf("empty in-sample window")
	}
	n := sample.NumAssets()

	objective := func(w []float64) float64 {
		series, err := sample.PortfolioReturns(w)
		if err != nil {
			// Unreachable: the solver only proposes vectors of length n.
			return 0
		}
		return o.estimator.EstimateSeries(series)
	}

	weights, err := o.solver.Minimize(Problem{
		Objective: objective,
		Initial:   UniformWeights(n),
	})
	if err != nil {
		o.log.Warn().
			Err(err).
			Int("assets", n).
			Int("observations", sample.Rows()).
			Msg("Solver did not converge, falling back to uniform weights")
		weights = UniformWeights(n)
	}

	return weights, objective(weights), nil
}
