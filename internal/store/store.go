// Package store persists archive records in SQLite and serves the
// lookups the linking pipeline needs. One database file holds every
// imported archive; relations (wreck to voyage, vessel to voyages,
// track cross-references, ground truth) live in their own tables.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store wraps the SQLite connection. Safe for concurrent use; SQLite
// serializes writers, the busy timeout covers contention.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and ensures the schema.
// Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) ensureSchema(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Counts returns the number of rows per record table, keyed by table
// name. Used by the stats endpoint and the import summary.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	tables := []string{
		"voyages", "wrecks", "vessels", "hull_profiles",
		"tracks", "track_points", "crew", "ground_truth",
	}
	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table)
		if err := row.Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
