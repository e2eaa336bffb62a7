// Package state persists publish history in SQLite: one row per
// check/publish run plus the compilation errors it produced, so authors
// can see what changed between attempts.
package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notatio-labs/curricc/pkg/compile"
)

//go:embed schema.sql
var schemaSQL string

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded check/publish attempt.
type Run struct {
	ID           string    `json:"id"`
	SnapshotPath string    `json:"snapshotPath"`
	Status       RunStatus `json:"status"`
	ErrorCount   int       `json:"errorCount"`
	// ExportChecksum is the SHA-256 of the compiled export; empty for
	// failed runs.
	ExportChecksum string     `json:"exportChecksum,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// RunError is a persisted compilation error.
type RunError struct {
	Class   string `json:"class"`
	Message string `json:"message"`
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
}

// Store is the SQLite-backed publish history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a store. Open must be called before use.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the database at path; use ":memory:" for an in-memory
// store.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to configure state database: %w", err)
		}
	}
	s.db = db
	return nil
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateRun records the start of a run.
func (s *Store) CreateRun(snapshotPath string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	run := &Run{
		ID:           uuid.New().String(),
		SnapshotPath: snapshotPath,
		Status:       RunStatusRunning,
		StartedAt:    time.Now().UTC(),
	}
	s.logger.Debug("creating run", "id", run.ID, "snapshot", snapshotPath)

	_, err := s.db.Exec(
		`INSERT INTO runs (id, snapshot_path, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.SnapshotPath, string(run.Status), run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run finished with its outcome.
func (s *Store) CompleteRun(id string, status RunStatus, errorCount int, checksum string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, error_count = ?, export_checksum = ?, completed_at = ? WHERE id = ?`,
		string(status), errorCount, checksum, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// SaveRunErrors persists the compilation errors for a run.
func (s *Store) SaveRunErrors(runID string, errs []compile.CompilationError) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO run_errors (run_id, class, message, node_id, edge_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range errs {
		if _, err := stmt.Exec(runID, string(e.Class), e.Message, e.NodeID, e.EdgeID); err != nil {
			return fmt.Errorf("failed to save run error: %w", err)
		}
	}
	return tx.Commit()
}

// GetRunErrors returns the persisted errors for a run in insertion
// order.
func (s *Store) GetRunErrors(runID string) ([]RunError, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.Query(
		`SELECT class, message, node_id, edge_id FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunError
	for rows.Next() {
		var e RunError
		var nodeID, edgeID sql.NullString
		if err := rows.Scan(&e.Class, &e.Message, &nodeID, &edgeID); err != nil {
			return nil, fmt.Errorf("failed to scan run error: %w", err)
		}
		e.NodeID = nodeID.String
		e.EdgeID = edgeID.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.Query(
		`SELECT id, snapshot_path, status, error_count, export_checksum, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRun retrieves a single run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.Query(
		`SELECT id, snapshot_path, status, error_count, export_checksum, started_at, completed_at
		 FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var status string
	var checksum, startedAt, completedAt sql.NullString
	if err := rows.Scan(&run.ID, &run.SnapshotPath, &status, &run.ErrorCount, &checksum, &startedAt, &completedAt); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.ExportChecksum = checksum.String

	started, err := time.Parse(time.RFC3339Nano, startedAt.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	run.StartedAt = started
	if completedAt.Valid {
		completed, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp: %w", err)
		}
		run.CompletedAt = &completed
	}
	return &run, nil
}
