package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VaRRow holds the Value at Risk estimates for one tail probability.
type VaRRow struct {
	Alpha      float64 `json:"alpha"`
	Parametric float64 `json:"parametric"`
	Historical float64 `json:"historical"`
	MonteCarlo float64 `json:"monte_carlo"`
}

// ParametricVaR calculates Value at Risk assuming normally distributed
// returns: mean + stddev * z(alpha). The result is reported as a positive
// loss magnitude.
//
// Args:
//   - returns: Historical returns (negative for losses)
//   - alpha: Tail probability (e.g., 0.05 for 95% confidence)
func ParametricVaR(returns []float64, alpha float64) float64 {
	if len(returns) == 0 || alpha <= 0 || alpha >= 1 {
		return 0.0
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(alpha)
	v := Mean(returns) + StdDev(returns)*z
	return math.Abs(v)
}

// HistoricalVaR calculates Value at Risk as the empirical alpha-quantile of
// the return sample, reported as a positive loss magnitude.
func HistoricalVaR(returns []float64, alpha float64) float64 {
	if len(returns) == 0 || alpha <= 0 || alpha >= 1 {
		return 0.0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return math.Abs(stat.Quantile(alpha, stat.Empirical, sorted, nil))
}

// MonteCarloVaR calculates Value at Risk by simulating returns from a normal
// distribution fitted to the sample, then taking the empirical alpha-quantile
// of the simulated returns. Reported as a positive loss magnitude.
func MonteCarloVaR(returns []float64, alpha float64, simulations int) float64 {
	if len(returns) == 0 || alpha <= 0 || alpha >= 1 || simulations <= 0 {
		return 0.0
	}

	normal := distuv.Normal{
		Mu:    Mean(returns),
		Sigma: math.Max(StdDev(returns), 1e-10),
	}

	simulated := make([]float64, simulations)
	for i := range simulated {
		simulated[i] = normal.Rand()
	}
	sort.Float64s(simulated)

	return math.Abs(stat.Quantile(alpha, stat.Empirical, simulated, nil))
}

// VaRSummary calculates parametric, historical and Monte Carlo VaR for a set
// of tail probabilities (e.g., 0.01, 0.05, 0.10).
func VaRSummary(returns []float64, alphas []float64, simulations int) []VaRRow {
	rows := make([]VaRRow, 0, len(alphas))
	for _, alpha := range alphas {
		rows = append(rows, VaRRow{
			Alpha:      alpha,
			Parametric: ParametricVaR(returns, alpha),
			Historical: HistoricalVaR(returns, alpha),
			MonteCarlo: MonteCarloVaR(returns, alpha, simulations),
		})
	}
	return rows
}
