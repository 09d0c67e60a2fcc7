package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/conneroisu/abacus/internal/api"
	"github.com/conneroisu/abacus/internal/errors"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    mode       TEXT NOT NULL DEFAULT 'standard',
    expression TEXT NOT NULL,
    result     TEXT NOT NULL,
    created_at TEXT NOT NULL
);
`

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageError("create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageError("open sqlite", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storageError("set WAL mode", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, storageError("set busy timeout", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, storageError("create tables", err)
	}

	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

func (s *SQLiteStore) Add(ctx context.Context, expression, result, mode string) (api.HistoryEntry, error) {
	entry := api.HistoryEntry{
		Expression: expression,
		Result:     result,
		Mode:       mode,
		CreatedAt:  s.opts.clock().Format(api.CreatedAtLayout),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO history (mode, expression, result, created_at) VALUES (?, ?, ?, ?)",
		entry.Mode, entry.Expression, entry.Result, entry.CreatedAt)
	if err != nil {
		return api.HistoryEntry{}, storageError("insert history", err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return api.HistoryEntry{}, storageError("read insert id", err)
	}
	return entry, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]api.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, expression, result, created_at
		FROM history ORDER BY id DESC LIMIT ?`, effectiveLimit(limit))
	if err != nil {
		return nil, storageError("list history", err)
	}
	defer rows.Close()

	entries := []api.HistoryEntry{}
	for rows.Next() {
		var e api.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Mode, &e.Expression, &e.Result, &e.CreatedAt); err != nil {
			return nil, storageError("scan history", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate history", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM history"); err != nil {
		return storageError("clear history", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (api.StatsSnapshot, error) {
	var stats api.StatsSnapshot
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&stats.Total); err != nil {
		return api.StatsSnapshot{}, storageError("count history", err)
	}

	var last string
	err := s.db.QueryRowContext(ctx, "SELECT created_at FROM history ORDER BY id DESC LIMIT 1").Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return api.StatsSnapshot{}, storageError("read last entry", err)
	default:
		stats.Last = &last
	}
	return stats, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func storageError(msg string, cause error) *errors.CalcError {
	return errors.NewIOError(errors.ErrCodeStorage, msg, cause)
}
