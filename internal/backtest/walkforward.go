// Package backtest implements the walk-forward rebalancing engine: weights
// are re-optimized on a trailing in-sample window and evaluated on the
// following out-of-sample period, advancing through time by the step size.
package backtest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrunoAngeletti/UTDT/internal/dataset"
)

// Optimizer is the per-window capability the engine depends on: it returns
// a feasible weight vector and its CVaR estimate for an in-sample slice.
type Optimizer interface {
	Optimize(sample *dataset.ReturnMatrix) ([]float64, float64, error)
}

// RebalanceRecord is the per-window output: the date the new weights take
// effect (first out-of-sample date), the optimized weight vector in the
// matrix's asset order, and its in-sample CVaR estimate.
type RebalanceRecord struct {
	Date    time.Time `json:"date"`
	Weights []float64 `json:"weights"`
	CVaR    float64   `json:"cvar"`
}

// DatedReturn is one realized out-of-sample daily portfolio return.
type DatedReturn struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// windowResult carries one window's outputs to the aggregator.
type windowResult struct {
	record  RebalanceRecord
	returns []DatedReturn
}

// Engine runs the walk-forward loop: slice, optimize, simulate, emit.
type Engine struct {
	optimizer Optimizer
	window    int
	step      int
	workers   int
	log       zerolog.Logger
}

// NewEngine creates a walk-forward engine. window and step are counted in
// trading observations; workers > 1 enables parallel window execution.
func NewEngine(optimizer Optimizer, window, step, workers int, log zerolog.Logger) (*Engine, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window size %d must be positive", window)
	}
	if step <= 0 {
		return nil, fmt.Errorf("step size %d must be positive", step)
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		optimizer: optimizer,
		window:    window,
		step:      step,
		workers:   workers,
		log:       log.With().Str("component", "walkforward").Logger(),
	}, nil
}

// NumWindows returns the number of full in-sample windows available in a
// matrix of the given row count. Every window needs a full in-sample slice
// plus at least one out-of-sample row; only the last out-of-sample slice
// may be shorter than step.
func (e *Engine) NumWindows(rows int) int {
	if rows <= e.window {
		return 0
	}
	return (rows - e.window + e.step - 1) / e.step
}

// Run executes the walk-forward backtest over the matrix. Fewer rows than
// window + step yields an empty result, not an error; only a structurally
// invalid matrix fails.
func (e *Engine) Run(m *dataset.ReturnMatrix) (*Result, error) {
	if m == nil || m.Rows() == 0 {
		return nil, fmt.Errorf("empty return matrix")
	}

	total := m.Rows()
	count := e.NumWindows(total)

	e.log.Info().
		Int("rows", total).
		Int("assets", m.NumAssets()).
		Int("window", e.window).
		Int("step", e.step).
		Int("windows", count).
		Int("workers", e.workers).
		Msg("Starting walk-forward backtest")

	agg := NewAggregator(m.Assets(), e.window, e.step)
	if count == 0 {
		return agg.Result(), nil
	}

	if e.workers > 1 {
		if err := e.runParallel(m, count, agg); err != nil {
			return nil, err
		}
	} else {
		for i := 0; i < count; i++ {
			wr, err := e.runWindow(m, i)
			if err != nil {
				return nil, err
			}
			agg.Add(wr)
		}
	}

	return agg.Result(), nil
}

// runParallel dispatches windows to a worker pool. Windows share only the
// read-only matrix, so no locking is needed beyond collecting the results.
func (e *Engine) runParallel(m *dataset.ReturnMatrix, count int, agg *Aggregator) error {
	indexes := make(chan int)
	results := make(chan windowResult, count)
	errs := make(chan error, e.workers)

	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				wr, err := e.runWindow(m, i)
				if err != nil {
					// Keep draining so the feeder never blocks; only the
					// first error is reported.
					select {
					case errs <- err:
					default:
					}
					continue
				}
				results <- wr
			}
		}()
	}

	for i := 0; i < count; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()
	close(results)
	close(errs)

	if err := <-errs; err != nil {
		return err
	}

	collected := make([]windowResult, 0, count)
	for wr := range results {
		collected = append(collected, wr)
	}
	sort.Slice(collected, func(a, b int) bool {
		return collected[a].record.Date.Before(collected[b].record.Date)
	})
	for _, wr := range collected {
		agg.Add(wr)
	}
	return nil
}

// runWindow optimizes on the in-sample slice and simulates the chosen
// weights over the out-of-sample slice.
func (e *Engine) runWindow(m *dataset.ReturnMatrix, i int) (windowResult, error) {
	total := m.Rows()
	inStart := i * e.step
	inEnd := inStart + e.window
	outEnd := inEnd + e.step
	if outEnd > total {
		// The last out-of-sample slice may be shorter than step.
		outEnd = total
	}

	inSample, err := m.Slice(inStart, inEnd)
	if err != nil {
		return windowResult{}, fmt.Errorf("in-sample slice for window %d: %w", i, err)
	}
	outSample, err := m.Slice(inEnd, outEnd)
	if err != nil {
		return windowResult{}, fmt.Errorf("out-of-sample slice for window %d: %w", i, err)
	}

	weights, risk, err := e.optimizer.Optimize(inSample)
	if err != nil {
		return windowResult{}, fmt.Errorf("optimize window %d: %w", i, err)
	}

	e.log.Debug().
		Int("window_index", i).
		Str("rebalance_date", outSample.Date(0).Format("2006-01-02")).
		Float64("cvar", risk).
		Msg("Window optimized")

	return windowResult{
		record: RebalanceRecord{
			Date:    outSample.Date(0),
			Weights: weights,
			CVaR:    risk,
		},
		returns: simulate(outSample, weights),
	}, nil
}

// simulate compounds per-asset positions (initialized to the weights on a
// notional of 1.0) through the out-of-sample slice without rebalancing, so
// the weights drift with asset performance. The first day's realized return
// is defined as exactly 0: no prior reference value exists for the window.
func simulate(outSample *dataset.ReturnMatrix, weights []float64) []DatedReturn {
	positions := make([]float64, len(weights))
	copy(positions, weights)

	returns := make([]DatedReturn, 0, outSample.Rows())
	prev := 0.0
	for t := 0; t < outSample.Rows(); t++ {
		row := outSample.Row(t)
		value := 0.0
		for j := range positions {
			positions[j] *= 1.0 + row[j]
			value += positions[j]
		}

		dayReturn := 0.0
		if t > 0 && prev != 0 {
			dayReturn = (value - prev) / prev
		}
		returns = append(returns, DatedReturn{Date: outSample.Date(t), Return: dayReturn})
		prev = value
	}
	return returns
}
