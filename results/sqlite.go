// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gogpu/retrace"
	"github.com/gogpu/retrace/engine"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id       TEXT PRIMARY KEY,
    file     TEXT NOT NULL,
    frames   INTEGER NOT NULL,
    windows  INTEGER NOT NULL,
    started  INTEGER NOT NULL,      -- UnixNano, 0 if unknown
    elapsed  REAL NOT NULL,         -- seconds
    fps      REAL NOT NULL,
    error    TEXT NOT NULL DEFAULT '',
    document TEXT NOT NULL,         -- full result as JSON
    saved    INTEGER NOT NULL       -- UnixNano
);

CREATE INDEX IF NOT EXISTS idx_sessions_saved ON sessions(saved);
CREATE INDEX IF NOT EXISTS idx_sessions_file ON sessions(file);
`

// SQLiteStore appends results to a sessions table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time

	mu     sync.Mutex
	closed bool
}

// OpenSQLite opens or creates the database at path. The special path
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("results: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: connect %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Save inserts res. A result without a session id gets a fresh one; saving
// an existing session id replaces the row.
func (s *SQLiteStore) Save(ctx context.Context, res engine.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if res.SessionID == "" {
		res.SessionID = uuid.NewString()
	}
	doc, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("results: encode: %w", err)
	}
	var started int64
	if !res.Started.IsZero() {
		started = res.Started.UnixNano()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO sessions (id, file, frames, windows, started, elapsed, fps, error, document, saved)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.SessionID, res.File, res.Frames, res.Windows, started,
		res.Elapsed.Seconds(), res.FPS, res.Error, string(doc), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("results: insert %s: %w", res.SessionID, err)
	}
	retrace.Logger().Debug("results: session stored", "session", res.SessionID)
	return nil
}

// Session returns the stored result for id. The boolean is false if no
// such session exists.
func (s *SQLiteStore) Session(ctx context.Context, id string) (engine.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return engine.Result{}, false, ErrClosed
	}

	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM sessions WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return engine.Result{}, false, nil
	}
	if err != nil {
		return engine.Result{}, false, fmt.Errorf("results: query %s: %w", id, err)
	}
	var res engine.Result
	if err := json.Unmarshal([]byte(doc), &res); err != nil {
		return engine.Result{}, false, fmt.Errorf("results: decode %s: %w", id, err)
	}
	return res, true, nil
}

// Recent returns up to limit results, most recently saved first. A
// non-empty file restricts the query to runs of that trace.
func (s *SQLiteStore) Recent(ctx context.Context, file string, limit int) ([]engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT document FROM sessions
WHERE (? = '' OR file = ?)
ORDER BY saved DESC, rowid DESC
LIMIT ?`, file, file, limit)
	if err != nil {
		return nil, fmt.Errorf("results: query: %w", err)
	}
	defer rows.Close()

	var out []engine.Result
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("results: scan: %w", err)
		}
		var res engine.Result
		if err := json.Unmarshal([]byte(doc), &res); err != nil {
			return nil, fmt.Errorf("results: decode: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Close closes the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
