// Package history records pipeline runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

const runColumns = "id, audio_file, basename, job_id, language, output_format, output_path, status, outcome, trace, question_count, answer_count, error_message, duration_ms, created_at, completed_at"

// Store persists runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Start records a new running run and returns it.
func (s *Store) Start(ctx context.Context, audioFile, basename, jobID, format string) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		AudioFile:    audioFile,
		Basename:     basename,
		JobID:        jobID,
		OutputFormat: format,
		Status:       StatusRunning,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, audio_file, basename, job_id, output_format, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.AudioFile,
		run.Basename,
		nullableString(jobID),
		nullableString(format),
		run.Status,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Complete marks a run finished. A non-nil f.Err marks it failed.
func (s *Store) Complete(ctx context.Context, id string, f Finish) error {
	status := StatusCompleted
	var errMsg string
	if f.Err != nil {
		status = StatusFailed
		errMsg = f.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs
         SET status = ?, outcome = ?, language = ?, output_path = ?, trace = ?,
             question_count = ?, answer_count = ?, error_message = ?, duration_ms = ?, completed_at = ?
         WHERE id = ?`,
		status,
		nullableString(f.Outcome),
		nullableString(f.Language),
		nullableString(f.OutputPath),
		nullableString(strings.Join(f.Trace, ",")),
		f.QuestionCount,
		f.AnswerCount,
		nullableString(errMsg),
		f.DurationMs,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Get fetches one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first, optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		marks := make([]string, len(statuses))
		for i, st := range statuses {
			marks[i] = "?"
			args = append(args, st)
		}
		query += ` WHERE status IN (` + strings.Join(marks, ",") + `)`
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune deletes runs created before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		jobID        sql.NullString
		language     sql.NullString
		format       sql.NullString
		outputPath   sql.NullString
		outcome      sql.NullString
		trace        sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.AudioFile,
		&run.Basename,
		&jobID,
		&language,
		&format,
		&outputPath,
		&status,
		&outcome,
		&trace,
		&run.QuestionCount,
		&run.AnswerCount,
		&errorMessage,
		&run.DurationMs,
		&createdRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.JobID = jobID.String
	run.Language = language.String
	run.OutputFormat = format.String
	run.OutputPath = outputPath.String
	run.Outcome = outcome.String
	run.ErrorMessage = errorMessage.String
	if trace.String != "" {
		run.Trace = strings.Split(trace.String, ",")
	}
	run.CreatedAt = parseTime(createdRaw)
	if completedRaw.Valid {
		run.CompletedAt = parseTime(completedRaw.String)
	}
	return &run, nil
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
