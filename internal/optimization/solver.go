// Package optimization finds long-only, fully-invested portfolio weights
// that minimize the Cornish-Fisher CVaR estimate.
package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Problem describes a minimization over the long-only weight simplex:
// minimize Objective(w) subject to sum(w) = 1 and 0 <= w_i <= 1, starting
// from Initial.
type Problem struct {
	Objective func(w []float64) float64
	Initial   []float64
}

// Solver is the capability required by the weight optimizer. Implementations
// return a feasible simplex vector or an error when they fail to converge.
type Solver interface {
	Minimize(p Problem) ([]float64, error)
}

// GonumSolver solves the simplex-constrained problem with gonum/optimize,
// handling the bounds by clamp-projection and the sum constraint with a
// quadratic penalty. Nelder-Mead is attempted first, then BFGS.
type GonumSolver struct {
	// PenaltyWeight scales the quadratic penalty on sum(w) - 1.
	PenaltyWeight float64
	// MaxIterations bounds the solver's major iterations per attempt.
	MaxIterations int
}

// NewGonumSolver creates a solver with the default penalty weight and
// iteration budget.
func NewGonumSolver() *GonumSolver {
	return &GonumSolver{
		PenaltyWeight: 1000.0,
		MaxIterations: 500,
	}
}

// Minimize solves the problem. A solution is returned only when one of the
// attempted methods reports a convergent status; the result is projected to
// the bounds and renormalized so components are in [0, 1] and sum to 1.
func (s *GonumSolver) Minimize(p Problem) ([]float64, error) {
	n := len(p.Initial)
	if n == 0 {
		return nil, fmt.Errorf("no initial point provided")
	}
	if p.Objective == nil {
		return nil, fmt.Errorf("no objective provided")
	}

	penaltyWeight := s.PenaltyWeight
	if penaltyWeight <= 0 {
		penaltyWeight = 1000.0
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToUnitBox(x)

			obj := p.Objective(xProj)

			// Penalty for sum constraint: (sum - 1)^2
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)

			return obj
		},
	}

	settings := &optimize.Settings{}
	if s.MaxIterations > 0 {
		settings.MajorIterations = s.MaxIterations
	}

	initial := make([]float64, n)
	copy(initial, p.Initial)

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil || !converged(result.Status) {
		// Retry with a gradient-based method (finite differences)
		result, err = optimize.Minimize(problem, initial, settings, &optimize.BFGS{})
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if !converged(result.Status) {
			return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
		}
	}

	return normalizeSimplex(projectToUnitBox(result.X)), nil
}

// converged reports whether a gonum status counts as successful convergence.
func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence:
		return true
	}
	return false
}

// projectToUnitBox clamps every component to [0, 1].
func projectToUnitBox(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0.0, math.Min(1.0, x[i]))
	}
	return proj
}

// normalizeSimplex rescales a non-negative vector so it sums to 1. A vector
// that sums to 0 falls back to uniform weights.
func normalizeSimplex(x []float64) []float64 {
	sum := 0.0
	for _, v := range x {
		sum += v
	}

	w := make([]float64, len(x))
	if sum <= 0 {
		for i := range w {
			w[i] = 1.0 / float64(len(x))
		}
		return w
	}
	for i := range x {
		w[i] = x[i] / sum
	}
	return w
}

// UniformWeights returns the equal-weight simplex vector of length n.
func UniformWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}
