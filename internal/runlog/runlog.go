// Package runlog persists finished remediation runs in a local SQLite
// database so operators can audit what the agent did to a device and why.
package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hamed0406/edgehealth/internal/domain"
)

// Store is the on-disk remediation run archive.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates (or opens) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runlog: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runlog: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		device_id TEXT NOT NULL,
		fault_id TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		final_state TEXT NOT NULL,
		reason TEXT,
		attempts TEXT
	);`)
	if err != nil {
		return fmt.Errorf("runlog: init schema: %w", err)
	}
	return nil
}

// Save inserts one finished run. The attempt ledger is stored as a JSON
// column: it is read back whole, never queried.
func (s *Store) Save(run *domain.RemediationRun) error {
	attempts, err := json.Marshal(run.Attempts)
	if err != nil {
		return fmt.Errorf("runlog: encode attempts: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO runs
		(id, device_id, fault_id, started_at, finished_at, final_state, reason, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.DeviceID,
		run.FaultID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(run.FinalState),
		run.Reason,
		string(attempts),
	)
	if err != nil {
		return fmt.Errorf("runlog: insert run %s: %w", run.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]domain.RemediationRun, error) {
	q := `SELECT id, device_id, fault_id, started_at, finished_at, final_state, reason, attempts
		FROM runs ORDER BY datetime(started_at) DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("runlog: query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Get returns a single run by id, or sql.ErrNoRows.
func (s *Store) Get(id string) (*domain.RemediationRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`SELECT id, device_id, fault_id, started_at, finished_at, final_state, reason, attempts
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("runlog: query run %s: %w", id, err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, sql.ErrNoRows
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]domain.RemediationRun, error) {
	var runs []domain.RemediationRun
	for rows.Next() {
		var (
			run                 domain.RemediationRun
			started, finished   string
			state, attemptsJSON string
		)
		if err := rows.Scan(&run.ID, &run.DeviceID, &run.FaultID, &started, &finished, &state, &run.Reason, &attemptsJSON); err != nil {
			return nil, fmt.Errorf("runlog: scan run: %w", err)
		}
		run.FinalState = domain.RunState(state)
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			run.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			run.FinishedAt = t
		}
		if attemptsJSON != "" {
			if err := json.Unmarshal([]byte(attemptsJSON), &run.Attempts); err != nil {
				return nil, fmt.Errorf("runlog: decode attempts for %s: %w", run.ID, err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
