package backtest

import (
	"sort"
	"time"
)

// Result holds the three aligned output series of one backtest run: the
// dated weights table, the dated CVaR column, and the concatenated realized
// daily-return sequence. It is a pure collection; all comparative analytics
// live downstream.
type Result struct {
	Assets     []string          `json:"assets"`
	Window     int               `json:"window"`
	Step       int               `json:"step"`
	Rebalances []RebalanceRecord `json:"rebalances"`
	Returns    []DatedReturn     `json:"returns"`
}

// RebalanceDates returns the dates at which new weights took effect.
func (r *Result) RebalanceDates() []time.Time {
	dates := make([]time.Time, len(r.Rebalances))
	for i, rec := range r.Rebalances {
		dates[i] = rec.Date
	}
	return dates
}

// CVaRSeries returns the per-window CVaR column aligned with the rebalance
// dates.
func (r *Result) CVaRSeries() []float64 {
	series := make([]float64, len(r.Rebalances))
	for i, rec := range r.Rebalances {
		series[i] = rec.CVaR
	}
	return series
}

// Aggregator collects per-window outputs in ascending window order. The
// out-of-sample slices are contiguous and non-overlapping by construction,
// so the concatenated return sequence has no gaps or duplicate dates.
type Aggregator struct {
	assets     []string
	window     int
	step       int
	rebalances []RebalanceRecord
	returns    []DatedReturn
}

// NewAggregator creates an aggregator for one run.
func NewAggregator(assets []string, window, step int) *Aggregator {
	return &Aggregator{assets: assets, window: window, step: step}
}

// Add appends one window's record and realized returns.
func (a *Aggregator) Add(wr windowResult) {
	a.rebalances = append(a.rebalances, wr.record)
	a.returns = append(a.returns, wr.returns...)
}

// Result finalizes the run, sorting both series by date.
func (a *Aggregator) Result() *Result {
	sort.Slice(a.rebalances, func(i, j int) bool {
		return a.rebalances[i].Date.Before(a.rebalances[j].Date)
	})
	sort.Slice(a.returns, func(i, j int) bool {
		return a.returns[i].Date.Before(a.returns[j].Date)
	})

	return &Result{
		Assets:     a.assets,
		Window:     a.window,
		Step:       a.step,
		Rebalances: a.rebalances,
		Returns:    a.returns,
	}
}
