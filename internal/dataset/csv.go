package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BrunoAngeletti/UTDT/pkg/formulas"
)

const dateLayout = "2006-01-02"

// LoadReturnsCSV reads a date-indexed price table (first column a date,
// remaining columns one price series per asset), converts each series to
// percentage-change returns and inner-joins rows against the benchmark
// column's dates. The benchmark column itself is dropped from the matrix;
// rows with any missing or unparsable cell are dropped before the return
// computation, and the first row disappears with the change calculation.
func LoadReturnsCSV(path, benchmark string) (*ReturnMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse price file: %w", err)
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("price file %s has too few rows", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("price file %s has no asset columns", path)
	}

	benchmarkCol := -1
	assets := make([]string, 0, len(header)-1)
	for i, name := range header[1:] {
		if name == benchmark {
			benchmarkCol = i + 1
			continue
		}
		assets = append(assets, name)
	}
	if benchmark != "" && benchmarkCol == -1 {
		return nil, fmt.Errorf("benchmark column %q not found in %s", benchmark, path)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("price file %s has no asset columns besides the benchmark", path)
	}

	// Inner join: keep only rows where every column (benchmark included)
	// holds a parsable price.
	var dates []time.Time
	prices := make([][]float64, len(assets))

	for rowIdx, record := range records[1:] {
		if len(record) != len(header) {
			continue
		}
		date, err := time.Parse(dateLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("bad date %q at row %d: %w", record[0], rowIdx+1, err)
		}

		row := make([]float64, 0, len(assets))
		complete := true
		for i := 1; i < len(record); i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				complete = false
				break
			}
			if i != benchmarkCol {
				row = append(row, v)
			}
		}
		if !complete {
			continue
		}

		dates = append(dates, date)
		for j, v := range row {
			prices[j] = append(prices[j], v)
		}
	}

	if len(dates) < 2 {
		return nil, fmt.Errorf("price file %s has fewer than 2 complete rows", path)
	}

	// Percentage-change returns drop the first observation.
	rows := make([][]float64, len(dates)-1)
	for i := range rows {
		rows[i] = make([]float64, len(assets))
	}
	for j := range assets {
		rets := formulas.CalculateReturns(prices[j])
		for i, r := range rets {
			rows[i][j] = r
		}
	}

	return New(dates[1:], assets, rows)
}
