package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametricVaR(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		alpha   float64
		want    float64
		tol     float64
	}{
		{
			// mean 0, stddev known; VaR = |mean + std * z(0.05)|, z ≈ -1.6449
			name:    "zero mean symmetric sample",
			returns: []float64{-0.02, -0.01, 0.0, 0.01, 0.02},
			alpha:   0.05,
			want:    0.0158114 * 1.6449,
			tol:     0.001,
		},
		{
			name:    "empty returns",
			returns: []float64{},
			alpha:   0.05,
			want:    0.0,
			tol:     1e-9,
		},
		{
			name:    "invalid alpha",
			returns: []float64{-0.01, 0.01},
			alpha:   1.5,
			want:    0.0,
			tol:     1e-9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParametricVaR(tt.returns, tt.alpha), tt.tol)
		})
	}
}

func TestHistoricalVaR(t *testing.T) {
	returns := []float64{-0.10, -0.05, -0.02, 0.0, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25}

	// The 5% empirical quantile sits at the worst observation
	assert.InDelta(t, 0.10, HistoricalVaR(returns, 0.05), 0.01)
	assert.Equal(t, 0.0, HistoricalVaR(nil, 0.05))
}

func TestMonteCarloVaR(t *testing.T) {
	// Simulated from N(0, 0.01): the 5% quantile is ~1.645 stddevs below 0.
	// Monte Carlo, so allow a generous tolerance.
	returns := []float64{-0.02, -0.015, -0.01, -0.005, 0.0, 0.005, 0.01, 0.015, 0.02, 0.0}
	v := MonteCarloVaR(returns, 0.05, 50000)

	expected := ParametricVaR(returns, 0.05)
	assert.InDelta(t, expected, v, expected*0.15)

	assert.Equal(t, 0.0, MonteCarloVaR(returns, 0.05, 0))
}

func TestVaRSummary(t *testing.T) {
	returns := []float64{-0.03, -0.02, -0.01, 0.0, 0.01, 0.02, 0.03, 0.01, -0.01, 0.02}
	rows := VaRSummary(returns, []float64{0.01, 0.05, 0.10}, 10000)

	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.GreaterOrEqual(t, row.Parametric, 0.0)
		assert.GreaterOrEqual(t, row.Historical, 0.0)
		assert.GreaterOrEqual(t, row.MonteCarlo, 0.0)
	}

	// Deeper tails imply larger parametric VaR
	assert.Greater(t, rows[0].Parametric, rows[2].Parametric)
}
