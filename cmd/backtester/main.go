package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BrunoAngeletti/UTDT/internal/config"
	"github.com/BrunoAngeletti/UTDT/internal/database"
	"github.com/BrunoAngeletti/UTDT/internal/results"
	"github.com/BrunoAngeletti/UTDT/internal/scheduler"
	"github.com/BrunoAngeletti/UTDT/internal/server"
	"github.com/BrunoAngeletti/UTDT/pkg/logger"
)

func main() {
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting CVaR walk-forward backtester")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	logger.SetGlobalLogger(log)

	db, err := database.New(database.Config{
		Path:    cfg.DBPath,
		Profile: database.ProfileStandard,
		Name:    "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize results database")
	}
	defer db.Close()

	repo, err := results.NewRepository(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize results repository")
	}

	job := &sweepJob{cfg: cfg, repo: repo, log: log}
	if err := job.Run(); err != nil {
		log.Fatal().Err(err).Msg("Backtest sweep failed")
	}

	if !cfg.Serve {
		log.Info().Msg("Sweep complete")
		return
	}

	sched := scheduler.New(log)
	if cfg.Schedule != "" {
		if err := sched.AddJob(cfg.Schedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("Failed to register sweep job")
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := server.New(server.Config{
		Port: cfg.Port,
		Log:  log,
		Repo: repo,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}
