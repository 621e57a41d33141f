package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/liveref/pkg/liveref/history"
	"github.com/cognicore/liveref/pkg/liveref/internalerr"
)

// sqliteStore implements history.Store using SQLite
type sqliteStore struct {
	db  *sql.DB
	max int
}

// Open opens a SQLite history database with WAL mode enabled. maxEntries
// caps the list; <= 0 means history.DefaultMaxEntries.
func Open(ctx context.Context, path string, maxEntries int) (history.Store, error) {
	if maxEntries <= 0 {
		maxEntries = history.DefaultMaxEntries
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db, max: maxEntries}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS history (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	keywords TEXT NOT NULL,
	snippet TEXT,
	results INTEGER DEFAULT 0,
	created_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Add inserts an entry and trims the oldest rows beyond the cap. Re-adding an
// existing ID is a no-op so imports are idempotent.
func (s *sqliteStore) Add(ctx context.Context, e history.Entry) error {
	kws, err := json.Marshal(e.Keywords)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = history.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insert = `
INSERT INTO history (id, keywords, snippet, results, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	if _, err := tx.ExecContext(ctx, insert,
		e.ID,
		string(kws),
		e.Snippet,
		e.Results,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return err
	}

	const trim = `
DELETE FROM history WHERE seq NOT IN (
	SELECT seq FROM history ORDER BY seq DESC LIMIT ?
);
`
	if _, err := tx.ExecContext(ctx, trim, s.max); err != nil {
		return err
	}

	return tx.Commit()
}

// Recent returns up to limit entries, newest first
func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, keywords, snippet, results, created_at
FROM history
ORDER BY seq DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		var (
			e       history.Entry
			kws     string
			snippet sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &kws, &snippet, &e.Results, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(kws), &e.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords of %s: %w", e.ID, err)
		}
		e.Snippet = snippet.String
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = ts
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries
func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n)
	return n, err
}

// Clear removes every entry
func (s *sqliteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return err
}
