package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BrunoAngeletti/UTDT/internal/backtest"
)

// ExportCSV writes the run's output triple into dir, tagged by prefix:
// weights_<prefix>.csv, cvar_<prefix>.csv and returns_<prefix>.csv.
func ExportCSV(result *backtest.Result, dir, prefix string) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	weightsRows := make([][]string, 0, len(result.Rebalances)+1)
	weightsRows = append(weightsRows, append([]string{"date"}, result.Assets...))
	for _, rec := range result.Rebalances {
		row := make([]string, 0, len(rec.Weights)+1)
		row = append(row, rec.Date.Format(dateLayout))
		for _, w := range rec.Weights {
			row = append(row, formatFloat(w))
		}
		weightsRows = append(weightsRows, row)
	}
	if err := writeCSV(filepath.Join(dir, "weights_"+prefix+".csv"), weightsRows); err != nil {
		return err
	}

	cvarRows := [][]string{{"date", "cvar"}}
	for _, rec := range result.Rebalances {
		cvarRows = append(cvarRows, []string{rec.Date.Format(dateLayout), formatFloat(rec.CVaR)})
	}
	if err := writeCSV(filepath.Join(dir, "cvar_"+prefix+".csv"), cvarRows); err != nil {
		return err
	}

	returnRows := [][]string{{"date", "return"}}
	for _, dr := range result.Returns {
		returnRows = append(returnRows, []string{dr.Date.Format(dateLayout), formatFloat(dr.Return)})
	}
	return writeCSV(filepath.Join(dir, "returns_"+prefix+".csv"), returnRows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
