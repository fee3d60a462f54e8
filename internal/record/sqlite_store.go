package record

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"rocket-dispersion/internal/flight"
)

// Trial outcomes stored in the trials table.
const (
	outcomePending = "pending"
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// SQLiteStore mirrors trial records into a SQLite database, one row per
// trial keyed by (campaign_id, trial).
type SQLiteStore struct {
	db         *sql.DB
	campaignID string
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath, campaignID string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db, campaignID: campaignID}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS trials (
		campaign_id TEXT NOT NULL,
		trial INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		parameters TEXT NOT NULL,
		metrics TEXT,
		execution_time REAL,
		error TEXT,
		recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (campaign_id, trial)
	);
	CREATE INDEX IF NOT EXISTS idx_trials_outcome ON trials(campaign_id, outcome);
	`)
	return err
}

// WriteInput inserts a pending trial with its parameter draw.
func (s *SQLiteStore) WriteInput(in Input) error {
	params, err := json.Marshal(in.Parameters)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO trials (campaign_id, trial, outcome, parameters) VALUES (?, ?, ?, ?)`,
		s.campaignID, in.Trial, outcomePending, string(params))
	return err
}

// WriteOutput marks a trial successful and stores its metrics.
func (s *SQLiteStore) WriteOutput(out Output) error {
	metrics, err := json.Marshal(out.Metrics)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE trials SET outcome = ?, metrics = ?, execution_time = ? WHERE campaign_id = ? AND trial = ?`,
		outcomeSuccess, string(metrics), out.ExecutionTime, s.campaignID, out.Trial)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Replayed logs carry no input rows.
		_, err = s.db.Exec(`INSERT INTO trials (campaign_id, trial, outcome, parameters, metrics, execution_time) VALUES (?, ?, ?, '{}', ?, ?)`,
			s.campaignID, out.Trial, outcomeSuccess, string(metrics), out.ExecutionTime)
	}
	return err
}

// WriteError marks a trial failed.
func (s *SQLiteStore) WriteError(e ErrorRecord) error {
	params, err := json.Marshal(e.Parameters)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
	INSERT INTO trials (campaign_id, trial, outcome, parameters, error) VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(campaign_id, trial) DO UPDATE SET outcome = excluded.outcome, error = excluded.error`,
		s.campaignID, e.Trial, outcomeFailure, string(params), e.Error)
	return err
}

// Outputs returns the successful trials of a campaign in trial order.
func (s *SQLiteStore) Outputs(campaignID string) ([]Output, error) {
	rows, err := s.db.Query(`SELECT trial, metrics, execution_time FROM trials WHERE campaign_id = ? AND outcome = ? ORDER BY trial`,
		campaignID, outcomeSuccess)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outs []Output
	for rows.Next() {
		var (
			trial   int
			metrics string
			exec    sql.NullFloat64
		)
		if err := rows.Scan(&trial, &metrics, &exec); err != nil {
			return nil, err
		}
		var m flight.Metrics
		if err := json.Unmarshal([]byte(metrics), &m); err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		outs = append(outs, Output{Trial: trial, Metrics: m, ExecutionTime: exec.Float64})
	}
	return outs, rows.Err()
}

// Counts returns the number of successful and failed trials of a campaign.
func (s *SQLiteStore) Counts(campaignID string) (successes, failures int, err error) {
	err = s.db.QueryRow(`
	SELECT
		COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
	FROM trials WHERE campaign_id = ?`, outcomeSuccess, outcomeFailure, campaignID).Scan(&successes, &failures)
	return successes, failures, err
}
