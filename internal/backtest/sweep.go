package backtest

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrunoAngeletti/UTDT/internal/dataset"
)

// SweepRun couples one (window, step) configuration with its result and the
// prefix tagging its output artifacts.
type SweepRun struct {
	Prefix string
	Result *Result
}

// RunSweep executes one backtest per (window, step) combination over the
// same return matrix. Each run is tagged with a "w<window>_s<step>" prefix.
func RunSweep(
	optimizer Optimizer,
	m *dataset.ReturnMatrix,
	windows, steps []int,
	workers int,
	log zerolog.Logger,
) ([]SweepRun, error) {
	if len(windows) == 0 || len(steps) == 0 {
		return nil, fmt.Errorf("sweep requires at least one window size and one step size")
	}

	runs := make([]SweepRun, 0, len(windows)*len(steps))
	for _, window := range windows {
		for _, step := range steps {
			engine, err := NewEngine(optimizer, window, step, workers, log)
			if err != nil {
				return nil, err
			}

			result, err := engine.Run(m)
			if err != nil {
				return nil, fmt.Errorf("backtest window=%d step=%d: %w", window, step, err)
			}

			prefix := fmt.Sprintf("w%d_s%d", window, step)
			log.Info().
				Str("prefix", prefix).
				Int("rebalances", len(result.Rebalances)).
				Int("returns", len(result.Returns)).
				Msg("Sweep run complete")

			runs = append(runs, SweepRun{Prefix: prefix, Result: result})
		}
	}
	return runs, nil
}
