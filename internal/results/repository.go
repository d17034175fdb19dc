// Package results persists backtest runs and exports the per-run output
// triple (weights table, CVaR table, realized-returns sequence).
package results

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/BrunoAngeletti/UTDT/internal/backtest"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	prefix      TEXT NOT NULL,
	assets      TEXT NOT NULL,
	window      INTEGER NOT NULL,
	step        INTEGER NOT NULL,
	confidence  REAL NOT NULL,
	risk_free   REAL NOT NULL,
	created_at  TEXT NOT NULL,
	snapshot    BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS rebalances (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date    TEXT NOT NULL,
	cvar    REAL NOT NULL,
	weights BLOB NOT NULL,
	PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS realized_returns (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date   TEXT NOT NULL,
	ret    REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
`

const dateLayout = "2006-01-02"

// Run describes one persisted backtest run.
type Run struct {
	ID         string    `json:"id"`
	Prefix     string    `json:"prefix"`
	Assets     []string  `json:"assets"`
	Window     int       `json:"window"`
	Step       int       `json:"step"`
	Confidence float64   `json:"confidence"`
	RiskFree   float64   `json:"risk_free"`
	CreatedAt  time.Time `json:"created_at"`
}

// Repository stores backtest runs in SQLite. The full result is kept as a
// msgpack snapshot for cheap retrieval; the rebalance and return rows are
// also stored relationally for ad-hoc queries.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates the repository and its schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create results schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("component", "results").Logger(),
	}, nil
}

// SaveRun persists one backtest result and returns its generated run id.
func (r *Repository) SaveRun(result *backtest.Result, prefix string, confidence, riskFree float64) (string, error) {
	if result == nil {
		return "", fmt.Errorf("nil result")
	}

	snapshot, err := msgpack.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result snapshot: %w", err)
	}

	id := uuid.NewString()
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, prefix, assets, window, step, confidence, risk_free, created_at, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, prefix, strings.Join(result.Assets, ","), result.Window, result.Step,
		confidence, riskFree, time.Now().UTC().Format(time.RFC3339), snapshot,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, rec := range result.Rebalances {
		weights, err := msgpack.Marshal(rec.Weights)
		if err != nil {
			return "", fmt.Errorf("failed to encode weights: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO rebalances (run_id, date, cvar, weights) VALUES (?, ?, ?, ?)`,
			id, rec.Date.Format(dateLayout), rec.CVaR, weights,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert rebalance: %w", err)
		}
	}

	for _, dr := range result.Returns {
		_, err = tx.Exec(
			`INSERT INTO realized_returns (run_id, date, ret) VALUES (?, ?, ?)`,
			id, dr.Date.Format(dateLayout), dr.Return,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert realized return: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	r.log.Info().
		Str("run_id", id).
		Str("prefix", prefix).
		Int("rebalances", len(result.Rebalances)).
		Int("returns", len(result.Returns)).
		Msg("Run persisted")

	return id, nil
}

// ListRuns returns all persisted runs, newest first.
func (r *Repository) ListRuns() ([]Run, error) {
	rows, err := r.db.Query(
		`SELECT id, prefix, assets, window, step, confidence, risk_free, created_at
		 FROM runs ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var assets, createdAt string
		if err := rows.Scan(&run.ID, &run.Prefix, &assets, &run.Window, &run.Step,
			&run.Confidence, &run.RiskFree, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Assets = strings.Split(assets, ",")
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run's metadata.
func (r *Repository) GetRun(id string) (*Run, error) {
	row := r.db.QueryRow(
		`SELECT id, prefix, assets, window, step, confidence, risk_free, created_at
		 FROM runs WHERE id = ?`, id,
	)

	var run Run
	var assets, createdAt string
	err := row.Scan(&run.ID, &run.Prefix, &assets, &run.Window, &run.Step,
		&run.Confidence, &run.RiskFree, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Assets = strings.Split(assets, ",")
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		run.CreatedAt = ts
	}
	return &run, nil
}

// GetResult decodes a run's full result snapshot.
func (r *Repository) GetResult(id string) (*backtest.Result, error) {
	var snapshot []byte
	err := r.db.QueryRow(`SELECT snapshot FROM runs WHERE id = ?`, id).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for run %s: %w", id, err)
	}

	var result backtest.Result
	if err := msgpack.Unmarshal(snapshot, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for run %s: %w", id, err)
	}
	return &result, nil
}

// DeleteRun removes a run and its rows.
func (r *Repository) DeleteRun(id string) error {
	res, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}
