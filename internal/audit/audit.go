// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("audit log closed")
	ErrDatabaseError = errors.New("database error")
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one recorded invocation.
type Entry struct {
	ID      string
	Sender  string
	Label   string
	Args    []string
	Handled bool
	Err     string
	Elapsed time.Duration
	At      time.Time
}

// Failed reports whether the invocation ended with an error.
func (e Entry) Failed() bool { return e.Err != "" }

// =============================================================================
// LOG
// =============================================================================

// Log is an append-only invocation log backed by SQLite.
type Log struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the log at path. Use MemoryPath for a throwaway log.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("audit path cannot be empty")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and an in-memory database
	// lives exactly as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	if path != MemoryPath {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the database.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// Record appends e. A zero At is stamped with the current time.
func (l *Log) Record(ctx context.Context, e Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}

	if e.At.IsZero() {
		e.At = time.Now()
	}
	args := e.Args
	if args == nil {
		args = []string{}
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode args: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO invocations (id, sender, label, args, handled, error, elapsed_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Sender, e.Label, string(argsJSON), boolToInt(e.Handled), e.Err,
		e.Elapsed.Microseconds(), e.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return l.query(ctx, "", nil, limit)
}

// BySender returns up to limit entries from one sender, newest first.
func (l *Log) BySender(ctx context.Context, sender string, limit int) ([]Entry, error) {
	return l.query(ctx, "WHERE sender = ?", []any{sender}, limit)
}

func (l *Log) query(ctx context.Context, where string, params []any, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, ErrClosed
	}

	q := `SELECT id, sender, label, args, handled, error, elapsed_us, created_at
		FROM invocations ` + where + ` ORDER BY seq DESC`
	if limit > 0 {
		q += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			argsJSON  string
			handled   int
			elapsedUS int64
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Sender, &e.Label, &argsJSON, &handled, &e.Err, &elapsedUS, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &e.Args); err != nil {
			return nil, fmt.Errorf("failed to decode args for %s: %w", e.ID, err)
		}
		e.Handled = handled != 0
		e.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		e.At = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (l *Log) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}

	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invocations").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// Prune deletes all but the keep most recent entries and reports how many
// rows were removed. keep <= 0 is a no-op.
func (l *Log) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return 0, ErrClosed
	}

	res, err := l.db.ExecContext(ctx, `
		DELETE FROM invocations
		WHERE seq NOT IN (SELECT seq FROM invocations ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
