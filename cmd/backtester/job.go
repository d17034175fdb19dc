package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/BrunoAngeletti/UTDT/internal/backtest"
	"github.com/BrunoAngeletti/UTDT/internal/config"
	"github.com/BrunoAngeletti/UTDT/internal/cvar"
	"github.com/BrunoAngeletti/UTDT/internal/dataset"
	"github.com/BrunoAngeletti/UTDT/internal/optimization"
	"github.com/BrunoAngeletti/UTDT/internal/results"
)

// sweepJob loads the price file, runs the (window, step) sweep, persists
// each run and writes its CSV triple. Registered with the scheduler in
// serve mode; also run once at startup.
type sweepJob struct {
	cfg  *config.Config
	repo *results.Repository
	log  zerolog.Logger
}

func (j *sweepJob) Name() string { return "backtest_sweep" }

func (j *sweepJob) Run() error {
	matrix, err := dataset.LoadReturnsCSV(j.cfg.DataFile, j.cfg.Benchmark)
	if err != nil {
		return fmt.Errorf("failed to load returns: %w", err)
	}

	j.log.Info().
		Int("rows", matrix.Rows()).
		Int("assets", matrix.NumAssets()).
		Str("file", j.cfg.DataFile).
		Msg("Return matrix loaded")

	estimator, err := cvar.NewEstimator(j.cfg.Confidence, j.log)
	if err != nil {
		return err
	}
	optimizer := optimization.NewWeightOptimizer(estimator, optimization.NewGonumSolver(), j.log)

	runs, err := backtest.RunSweep(optimizer, matrix, j.cfg.WindowSizes, j.cfg.StepSizes, j.cfg.Workers, j.log)
	if err != nil {
		return err
	}

	for _, run := range runs {
		id, err := j.repo.SaveRun(run.Result, run.Prefix, j.cfg.Confidence, j.cfg.RiskFreeRate)
		if err != nil {
			return fmt.Errorf("failed to persist run %s: %w", run.Prefix, err)
		}
		if err := results.ExportCSV(run.Result, j.cfg.OutputDir, run.Prefix); err != nil {
			return fmt.Errorf("failed to export run %s: %w", run.Prefix, err)
		}
		j.log.Info().
			Str("run_id", id).
			Str("prefix", run.Prefix).
			Str("output_dir", j.cfg.OutputDir).
			Msg("Run saved and exported")
	}

	return nil
}
