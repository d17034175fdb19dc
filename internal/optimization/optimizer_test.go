package optimization

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrunoAngeletti/UTDT/internal/cvar"
	"github.com/BrunoAngeletti/UTDT/internal/dataset"
)

func matrixFromColumns(t *testing.T, columns map[string][]float64, order []string) *dataset.ReturnMatrix {
	t.Helper()
	rowsCount := len(columns[order[0]])
	dates := make([]time.Time, rowsCount)
	rows := make([][]float64, rowsCount)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rowsCount; i++ {
		dates[i] = base.AddDate(0, 0, i)
		row := make([]float64, len(order))
		for j, name := range order {
			row[j] = columns[name][i]
		}
		rows[i] = row
	}
	m, err := dataset.New(dates, order, rows)
	require.NoError(t, err)
	return m
}

func newOptimizer(t *testing.T) *WeightOptimizer {
	t.Helper()
	estimator, err := cvar.NewEstimator(0.95, zerolog.Nop())
	require.NoError(t, err)
	return NewWeightOptimizer(estimator, NewGonumSolver(), zerolog.Nop())
}

func assertSimplex(t *testing.T, weights []float64) {
	t.Helper()
	sum := 0.0
	for i, w := range weights {
		assert.GreaterOrEqual(t, w, 0.0, "weight %d below 0", i)
		assert.LessOrEqual(t, w, 1.0, "weight %d above 1", i)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

// alternating builds a return series flipping between +amp and -amp so the
// sample has nonzero variance.
func alternating(n int, amp float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = amp
		} else {
			s[i] = -amp
		}
	}
	return s
}

func TestOptimize_ReturnsFeasibleSimplexVector(t *testing.T) {
	m := matrixFromColumns(t, map[string][]float64{
		"A": alternating(60, 0.01),
		"B": alternating(60, 0.05),
		"C": alternating(60, 0.02),
	}, []string{"A", "B", "C"})

	weights, risk, err := newOptimizer(t).Optimize(m)
	require.NoError(t, err)
	require.Len(t, weights, 3)
	assertSimplex(t, weights)
	assert.NotZero(t, risk)
}

func TestOptimize_PrefersLowerRiskAsset(t *testing.T) {
	// Asset A gains 1% every day; asset B loses 1% every day. The entire
	// loss tail sits in B, so the optimizer should concentrate on A and
	// beat the equal-weight baseline.
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = 0.01
		b[i] = -0.01
	}
	m := matrixFromColumns(t, map[string][]float64{"A": a, "B": b}, []string{"A", "B"})

	opt := newOptimizer(t)
	weights, risk, err := opt.Optimize(m)
	require.NoError(t, err)
	assertSimplex(t, weights)

	assert.Greater(t, weights[0], 0.9, "expected weight concentrated on the gaining asset")

	estimator, err := cvar.NewEstimator(0.95, zerolog.Nop())
	require.NoError(t, err)
	baseline, err := estimator.Estimate(m, UniformWeights(2))
	require.NoError(t, err)
	assert.Less(t, risk, baseline, "optimized CVaR should beat the equal-weight baseline")
}

func TestOptimize_IdenticalColumnsStillFeasible(t *testing.T) {
	// All columns equal: CVaR is invariant to the weights, but the result
	// must still be a feasible simplex vector.
	col := alternating(40, 0.02)
	m := matrixFromColumns(t, map[string][]float64{"A": col, "B": col, "C": col}, []string{"A", "B", "C"})

	estimator, err := cvar.NewEstimator(0.95, zerolog.Nop())
	require.NoError(t, err)

	weights, risk, err := newOptimizer(t).Optimize(m)
	require.NoError(t, err)
	assertSimplex(t, weights)

	uniformRisk, err := estimator.Estimate(m, UniformWeights(3))
	require.NoError(t, err)
	assert.InDelta(t, uniformRisk, risk, 1e-6)
}

type failingSolver struct{}

func (failingSolver) Minimize(Problem) ([]float64, error) {
	return nil, fmt.Errorf("iteration budget exhausted")
}

func TestOptimize_FallsBackToUniformOnSolverFailure(t *testing.T) {
	m := matrixFromColumns(t, map[string][]float64{
		"A": alternating(30, 0.01),
		"B": alternating(30, 0.03),
	}, []string{"A", "B"})

	estimator, err := cvar.NewEstimator(0.95, zerolog.Nop())
	require.NoError(t, err)
	opt := NewWeightOptimizer(estimator, failingSolver{}, zerolog.Nop())

	weights, risk, err := opt.Optimize(m)
	require.NoError(t, err, "non-convergence must not surface as an error")
	assert.Equal(t, UniformWeights(2), weights)

	uniformRisk, err := estimator.Estimate(m, UniformWeights(2))
	require.NoError(t, err)
	assert.Equal(t, uniformRisk, risk)
}

func TestOptimize_EmptyWindowIsStructuralError(t *testing.T) {
	_, _, err := newOptimizer(t).Optimize(nil)
	assert.Error(t, err)
}

func TestGonumSolver_SimpleQuadratic(t *testing.T) {
	// Minimize sum((w_i - target_i)^2) over the simplex; the minimum is at
	// the feasible target itself.
	target := []float64{0.7, 0.2, 0.1}
	solver := NewGonumSolver()

	weights, err := solver.Minimize(Problem{
		Objective: func(w []float64) float64 {
			var v float64
			for i := range w {
				d := w[i] - target[i]
				v += d * d
			}
			return v
		},
		Initial: UniformWeights(3),
	})
	require.NoError(t, err)
	assertSimplex(t, weights)
	for i := range target {
		assert.InDelta(t, target[i], weights[i], 0.02)
	}
}

func TestNormalizeSimplex(t *testing.T) {
	assert.Equal(t, []float64{0.5, 0.5}, normalizeSimplex([]float64{1, 1}))
	assert.Equal(t, []float64{0.5, 0.5}, normalizeSimplex([]float64{0, 0}))

	w := normalizeSimplex([]float64{0.2, 0.3, 0.5})
	assertSimplex(t, w)
}
