// Package history provides SQLite-backed storage for completed agent runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"agentloop/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	question    TEXT NOT NULL,
	answer      TEXT NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	iterations  INTEGER NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Run is one persisted loop invocation.
type Run struct {
	StartedAt  time.Time
	Question   string
	Answer     string
	Status     string
	Reason     string
	ID         uuid.UUID
	Iterations int
	Duration   time.Duration
}

// Store persists runs to a SQLite database file.
type Store struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open creates or opens the history database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_foreign_keys=ON&_journal_mode=WAL&_busy_timeout=5000", path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	logger := logx.NewLogger("history")
	logger.Debug("history database ready: %s", path)

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}

// Record persists one completed run.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, question, answer, status, reason, iterations, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Question, run.Answer, run.Status, run.Reason,
		run.Iterations, run.StartedAt.UTC(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	s.logger.Debug("recorded run %s (%s)", run.ID, run.Status)
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question, answer, status, reason, iterations, started_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			id         string
			durationMS int64
		)
		if err := rows.Scan(&id, &run.Question, &run.Answer, &run.Status, &run.Reason,
			&run.Iterations, &run.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt run id %q: %w", id, err)
		}
		run.ID = parsed
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
