package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/templatecheck/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dsn and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sqlx.Open("sqlite3", dsn+sep+"_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Rows
// =============================================================================

type runRow struct {
	ID           string `db:"id"`
	Root         string `db:"root"`
	GroupSize    int    `db:"group_size"`
	OnlyChanged  bool   `db:"only_changed"`
	ValidateOnly bool   `db:"validate_only"`
	StartedAt    string `db:"started_at"`
	FinishedAt   string `db:"finished_at"`
	Total        int    `db:"total"`
	Passed       int    `db:"passed"`
	Failed       int    `db:"failed"`
}

type resultRow struct {
	RunID      string `db:"run_id"`
	Position   int    `db:"position"`
	BundleDir  string `db:"bundle_dir"`
	State      string `db:"state"`
	Passed     bool   `db:"passed"`
	Message    string `db:"message"`
	DurationNS int64  `db:"duration_ns"`
}

func runToRow(r *domain.RunReport) runRow {
	failed := len(r.Failures())
	return runRow{
		ID:           r.ID,
		Root:         r.Root,
		GroupSize:    r.GroupSize,
		OnlyChanged:  r.OnlyChanged,
		ValidateOnly: r.ValidateOnly,
		StartedAt:    r.StartedAt.UTC().Format(time.RFC3339Nano),
		FinishedAt:   r.FinishedAt.UTC().Format(time.RFC3339Nano),
		Total:        len(r.Results),
		Passed:       len(r.Results) - failed,
		Failed:       failed,
	}
}

func rowToSummary(row *runRow) (RunSummary, error) {
	startedAt, err := time.Parse(time.RFC3339Nano, row.StartedAt)
	if err != nil {
		return RunSummary{}, NewStoreError("rowToSummary", "run", row.ID, "invalid started_at", ErrInvalidData)
	}
	finishedAt, err := time.Parse(time.RFC3339Nano, row.FinishedAt)
	if err != nil {
		return RunSummary{}, NewStoreError("rowToSummary", "run", row.ID, "invalid finished_at", ErrInvalidData)
	}
	return RunSummary{
		ID:           row.ID,
		Root:         row.Root,
		GroupSize:    row.GroupSize,
		OnlyChanged:  row.OnlyChanged,
		ValidateOnly: row.ValidateOnly,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
		Total:        row.Total,
		Passed:       row.Passed,
		Failed:       row.Failed,
	}, nil
}

func rowToResult(row *resultRow) domain.BundleResult {
	return domain.BundleResult{
		Bundle:   domain.NewBundle(row.BundleDir),
		State:    domain.BundleState(row.State),
		Passed:   row.Passed,
		Message:  row.Message,
		Duration: time.Duration(row.DurationNS),
	}
}

// =============================================================================
// Run Operations
// =============================================================================

// RecordRun stores a finished run and all of its results in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, report *domain.RunReport) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("RecordRun", "run", report.ID, "failed to begin transaction", ErrTxFailed)
	}

	if err := recordRun(ctx, tx, report); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("RecordRun", "run", report.ID, fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("RecordRun", "run", report.ID, "failed to commit transaction", ErrTxFailed)
	}
	return nil
}

func recordRun(ctx context.Context, exec executor, report *domain.RunReport) error {
	query := `
		INSERT INTO runs (id, root, group_size, only_changed, validate_only, started_at, finished_at, total, passed, failed)
		VALUES (:id, :root, :group_size, :only_changed, :validate_only, :started_at, :finished_at, :total, :passed, :failed)`

	if _, err := exec.NamedExecContext(ctx, query, runToRow(report)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.id") {
			return NewStoreError("RecordRun", "run", report.ID, "run with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("RecordRun", "run", report.ID, err.Error(), err)
	}

	resultQuery := `
		INSERT INTO bundle_results (run_id, position, bundle_dir, state, passed, message, duration_ns)
		VALUES (:run_id, :position, :bundle_dir, :state, :passed, :message, :duration_ns)`

	for i, res := range report.Results {
		row := resultRow{
			RunID:      report.ID,
			Position:   i,
			BundleDir:  res.Bundle.Dir,
			State:      string(res.State),
			Passed:     res.Passed,
			Message:    res.Message,
			DurationNS: int64(res.Duration),
		}
		if _, err := exec.NamedExecContext(ctx, resultQuery, row); err != nil {
			return NewStoreError("RecordRun", "result", report.ID, err.Error(), err)
		}
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT * FROM runs ORDER BY started_at DESC, id LIMIT ?`

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, normalizeLimit(limit)); err != nil {
		return nil, NewStoreError("ListRuns", "run", "", err.Error(), err)
	}

	runs := make([]RunSummary, 0, len(rows))
	for _, row := range rows {
		summary, err := rowToSummary(&row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, summary)
	}
	return runs, nil
}

// GetRun rebuilds a stored run with its results.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*domain.RunReport, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetRun", "run", id, "run not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetRun", "run", id, err.Error(), err)
	}

	summary, err := rowToSummary(&row)
	if err != nil {
		return nil, err
	}
	results, err := getRunResults(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	return &domain.RunReport{
		ID:           summary.ID,
		Root:         summary.Root,
		GroupSize:    summary.GroupSize,
		OnlyChanged:  summary.OnlyChanged,
		ValidateOnly: summary.ValidateOnly,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
		Results:      results,
	}, nil
}

// GetRunResults returns the results of a run in recorded order.
func (s *SQLiteStore) GetRunResults(ctx context.Context, runID string) ([]domain.BundleResult, error) {
	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID); err != nil {
		return nil, NewStoreError("GetRunResults", "run", runID, err.Error(), err)
	}
	if exists == 0 {
		return nil, NewStoreError("GetRunResults", "run", runID, "run not found", ErrNotFound)
	}
	return getRunResults(ctx, s.db, runID)
}

func getRunResults(ctx context.Context, exec executor, runID string) ([]domain.BundleResult, error) {
	query := `
		SELECT run_id, position, bundle_dir, state, passed, message, duration_ns
		FROM bundle_results WHERE run_id = ? ORDER BY position`

	var rows []resultRow
	if err := exec.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, NewStoreError("GetRunResults", "result", runID, err.Error(), err)
	}

	results := make([]domain.BundleResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, rowToResult(&row))
	}
	return results, nil
}
