package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func testMatrix(t *testing.T, rows [][]float64) *ReturnMatrix {
	t.Helper()
	dates := make([]time.Time, len(rows))
	for i := range dates {
		dates[i] = day(i)
	}
	assets := make([]string, len(rows[0]))
	for i := range assets {
		assets[i] = string(rune('A' + i))
	}
	m, err := New(dates, assets, rows)
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	dates := []time.Time{day(0), day(1)}
	assets := []string{"A", "B"}

	tests := []struct {
		name   string
		dates  []time.Time
		assets []string
		rows   [][]float64
	}{
		{"empty matrix", nil, assets, nil},
		{"no assets", dates, nil, [][]float64{{}, {}}},
		{"row count mismatch", dates, assets, [][]float64{{0.01, 0.02}}},
		{"ragged row", dates, assets, [][]float64{{0.01, 0.02}, {0.01}}},
		{"NaN cell", dates, assets, [][]float64{{0.01, 0.02}, {math.NaN(), 0.01}}},
		{"Inf cell", dates, assets, [][]float64{{0.01, 0.02}, {math.Inf(1), 0.01}}},
		{
			"duplicate dates",
			[]time.Time{day(0), day(0)},
			assets,
			[][]float64{{0.01, 0.02}, {0.01, 0.02}},
		},
		{
			"descending dates",
			[]time.Time{day(1), day(0)},
			assets,
			[][]float64{{0.01, 0.02}, {0.01, 0.02}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dates, tt.assets, tt.rows)
			assert.Error(t, err)
		})
	}
}

func TestSlice(t *testing.T) {
	m := testMatrix(t, [][]float64{
		{0.01, 0.02},
		{0.03, 0.04},
		{0.05, 0.06},
		{0.07, 0.08},
	})

	s, err := m.Slice(1, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Rows())
	assert.Equal(t, day(1), s.Date(0))
	assert.Equal(t, []float64{0.03, 0.04}, s.Row(0))
	assert.Equal(t, m.Assets(), s.Assets())

	_, err = m.Slice(2, 2)
	assert.Error(t, err)
	_, err = m.Slice(-1, 2)
	assert.Error(t, err)
	_, err = m.Slice(0, 5)
	assert.Error(t, err)
}

func TestPortfolioReturns(t *testing.T) {
	m := testMatrix(t, [][]float64{
		{0.01, 0.03},
		{-0.02, 0.04},
	})

	series, err := m.PortfolioReturns([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.InDelta(t, 0.02, series[0], 1e-12)
	assert.InDelta(t, 0.01, series[1], 1e-12)

	_, err = m.PortfolioReturns([]float64{1.0})
	assert.Error(t, err)
}

func TestLoadReturnsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")

	content := "Date,AAPL,MSFT,SPY\n" +
		"2024-01-01,100,200,400\n" +
		"2024-01-02,110,210,404\n" +
		"2024-01-03,,220,408\n" + // incomplete row, dropped by the inner join
		"2024-01-04,121,220,412\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := LoadReturnsCSV(path, "SPY")
	require.NoError(t, err)

	// Benchmark column dropped, incomplete row dropped, first row consumed
	// by the percentage-change computation.
	assert.Equal(t, []string{"AAPL", "MSFT"}, m.Assets())
	require.Equal(t, 2, m.Rows())
	assert.InDelta(t, 0.10, m.Row(0)[0], 1e-9)
	assert.InDelta(t, 0.05, m.Row(0)[1], 1e-9)
	assert.InDelta(t, 0.10, m.Row(1)[0], 1e-9) // 110 -> 121
}

func TestLoadReturnsCSV_MissingBenchmark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	content := "Date,AAPL\n2024-01-01,100\n2024-01-02,110\n2024-01-03,121\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadReturnsCSV(path, "SPY")
	assert.Error(t, err)

	// No benchmark requested: all columns are assets.
	m, err := LoadReturnsCSV(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, m.Assets())
	assert.Equal(t, 2, m.Rows())
}
