// Package store persists raw external-service responses and a log of
// pipeline runs in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// RunStatus tracks the lifecycle of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string
	Kind       string
	Status     RunStatus
	Summary    json.RawMessage
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at the given path, configures WAL
// mode and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS response_cache (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(migration)
	return eris.Wrap(err, "store: migrate")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached payload for the key. Entries never expire; a
// present entry is authoritative.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM response_cache WHERE key = ?`, key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "store: get %s", key)
	}
	return payload, true, nil
}

// Put stores the payload under the key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, time.Now().UTC(),
	)
	return eris.Wrapf(err, "store: put %s", key)
}

// StartRun records the beginning of a pipeline run and returns its id.
func (s *Store) StartRun(ctx context.Context, kind string) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)`,
		id, kind, string(RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return &Run{ID: id, Kind: kind, Status: RunStatusRunning, StartedAt: now}, nil
}

// FinishRun marks the run complete with a JSON-encoded summary.
func (s *Store) FinishRun(ctx context.Context, runID string, summary any) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "store: marshal summary")
	}
	return s.closeRun(ctx, runID, RunStatusComplete, string(summaryJSON))
}

// FailRun marks the run failed, recording the error message.
func (s *Store) FailRun(ctx context.Context, runID string, cause error) error {
	summaryJSON, err := json.Marshal(map[string]string{"error": cause.Error()})
	if err != nil {
		return eris.Wrap(err, "store: marshal summary")
	}
	return s.closeRun(ctx, runID, RunStatusFailed, string(summaryJSON))
}

func (s *Store) closeRun(ctx context.Context, runID string, status RunStatus, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(status), summary, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "store: close run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: run not found: %s", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, status, summary, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var summary sql.NullString
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &summary, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		if summary.Valid {
			r.Summary = json.RawMessage(summary.String)
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "store: list runs iterate")
}
