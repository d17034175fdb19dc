// Package config loads the backtester configuration from environment
// variables, with optional .env support.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration. Risk-free rate and trading days
// are explicit fields rather than ambient constants so multiple backtests
// with different assumptions can coexist.
type Config struct {
	DataFile  string // CSV price table (date column + one column per asset)
	Benchmark string // Benchmark column used for date alignment (dropped from the matrix)
	OutputDir string // Directory for the per-run CSV triples
	DBPath    string // SQLite results database

	WindowSizes []int // In-sample window lengths (trading observations)
	StepSizes   []int // Rebalance intervals (trading observations)

	Confidence   float64 // CVaR confidence level
	RiskFreeRate float64 // Annual risk-free rate, used by downstream analytics only
	TradingDays  float64 // Trading observations per year

	Workers  int    // Parallel window workers (1 = sequential)
	LogLevel string
	Port     int
	Serve    bool   // Keep serving results over HTTP after the run
	Schedule string // Optional cron expression to re-run the sweep in serve mode
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DataFile:     getEnv("DATA_FILE", "data/prices.csv"),
		Benchmark:    getEnv("BENCHMARK", ""),
		OutputDir:    getEnv("OUTPUT_DIR", "output"),
		DBPath:       getEnv("DB_PATH", "data/results.db"),
		WindowSizes:  getEnvAsInts("WINDOW_SIZES", []int{500}),
		StepSizes:    getEnvAsInts("STEP_SIZES", []int{20}),
		Confidence:   getEnvAsFloat("CONFIDENCE", 0.95),
		RiskFreeRate: getEnvAsFloat("RISK_FREE_RATE", 0.0),
		TradingDays:  getEnvAsFloat("TRADING_DAYS", 252),
		Workers:      getEnvAsInt("WORKERS", 1),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("PORT", 8080),
		Serve:        getEnvAsBool("SERVE", false),
		Schedule:     getEnv("SCHEDULE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on structurally invalid configuration, before any
// window is processed.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("DATA_FILE must not be empty")
	}
	if len(c.WindowSizes) == 0 {
		return fmt.Errorf("WINDOW_SIZES must list at least one window length")
	}
	for _, w := range c.WindowSizes {
		if w <= 0 {
			return fmt.Errorf("window size %d must be positive", w)
		}
	}
	if len(c.StepSizes) == 0 {
		return fmt.Errorf("STEP_SIZES must list at least one step length")
	}
	for _, s := range c.StepSizes {
		if s <= 0 {
			return fmt.Errorf("step size %d must be positive", s)
		}
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("CONFIDENCE %v must be inside (0, 1)", c.Confidence)
	}
	if c.TradingDays <= 0 {
		return fmt.Errorf("TRADING_DAYS %v must be positive", c.TradingDays)
	}
	if c.Workers < 1 {
		return fmt.Errorf("WORKERS %d must be at least 1", c.Workers)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	return nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets environment variable as int with fallback
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsFloat gets environment variable as float64 with fallback
func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvAsBool gets environment variable as bool with fallback
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvAsInts parses a comma-separated list of ints with fallback
func getEnvAsInts(key string, fallback []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	ints := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return fallback
		}
		ints = append(ints, i)
	}
	if len(ints) == 0 {
		return fallback
	}
	return ints
}
