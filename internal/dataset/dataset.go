// Package dataset holds the date-aligned return matrix consumed by the
// walk-forward backtest. The matrix is read-only after construction; the
// asset column order is fixed for its lifetime and every weight vector
// derived from it inherits that order.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// ReturnMatrix is an immutable table of per-asset daily returns indexed by
// ascending, unique dates.
type ReturnMatrix struct {
	dates  []time.Time
	assets []string
	rows   [][]float64
}

// New validates and builds a ReturnMatrix. It fails on an empty matrix,
// non-ascending or duplicate dates, ragged rows, and non-finite cells.
func New(dates []time.Time, assets []string, rows [][]float64) (*ReturnMatrix, error) {
	if len(dates) == 0 {
		return nil, fmt.Errorf("return matrix is empty")
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("return matrix has no asset columns")
	}
	if len(rows) != len(dates) {
		return nil, fmt.Errorf("row count %d does not match date count %d", len(rows), len(dates))
	}

	for i, row := range rows {
		if len(row) != len(assets) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(assets))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite return at row %d, asset %s", i, assets[j])
			}
		}
		if i > 0 && !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates not strictly ascending at row %d (%s)", i, dates[i].Format("2006-01-02"))
		}
	}

	return &ReturnMatrix{dates: dates, assets: assets, rows: rows}, nil
}

// Rows returns the number of observations.
func (m *ReturnMatrix) Rows() int { return len(m.dates) }

// NumAssets returns the number of asset columns.
func (m *ReturnMatrix) NumAssets() int { return len(m.assets) }

// Assets returns the ordered asset identifiers.
func (m *ReturnMatrix) Assets() []string { return m.assets }

// Date returns the date of row i.
func (m *ReturnMatrix) Date(i int) time.Time { return m.dates[i] }

// Dates returns all dates in ascending order.
func (m *ReturnMatrix) Dates() []time.Time { return m.dates }

// Row returns the per-asset returns for row i.
func (m *ReturnMatrix) Row(i int) []float64 { return m.rows[i] }

// Slice returns a view over rows [start, end). The underlying data is
// shared, which is safe because the matrix is never mutated.
func (m *ReturnMatrix) Slice(start, end int) (*ReturnMatrix, error) {
	if start < 0 || end > len(m.dates) || start >= end {
		return nil, fmt.Errorf("invalid slice [%d, %d) for %d rows", start, end, len(m.dates))
	}
	return &ReturnMatrix{
		dates:  m.dates[start:end],
		assets: m.assets,
		rows:   m.rows[start:end],
	}, nil
}

// PortfolioReturns computes the weighted portfolio return series
// (rows · weights), one scalar per observation.
func (m *ReturnMatrix) PortfolioReturns(weights []float64) ([]float64, error) {
	if len(weights) != len(m.assets) {
		return nil, fmt.Errorf("weight vector length %d does not match %d assets", len(weights), len(m.assets))
	}

	series := make([]float64, len(m.rows))
	for i, row := range m.rows {
		var r float64
		for j, w := range weights {
			r += w * row[j]
		}
		series[i] = r
	}
	return series, nil
}
