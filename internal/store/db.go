// Package store provides SQLite-backed persistence for extracted entities.
// The index lives in .doclens/doclens.db and supports incremental rescans:
// saving a file's results replaces that file's previous rows, and the file
// index tracks content hashes so unchanged files can be skipped.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store manages the entity index database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the index database at the given path. It
// initializes the schema if the database is new.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	// WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return s, nil
}

// OpenIn opens the index database inside a config directory.
func OpenIn(configDir, name string) (*Store, error) {
	if filepath.IsAbs(name) {
		return Open(name)
	}
	return Open(filepath.Join(configDir, name))
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Clear removes all indexed data.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM entities; DELETE FROM diagnostics; DELETE FROM file_index;")
	if err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	return nil
}

// Stats holds index statistics.
type Stats struct {
	EntityCount     int64
	FileCount       int64
	DiagnosticCount int64
}

// GetStats returns statistics about the index contents.
func (s *Store) GetStats() (*Stats, error) {
	var stats Stats

	if err := s.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&stats.EntityCount); err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM file_index").Scan(&stats.FileCount); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM diagnostics").Scan(&stats.DiagnosticCount); err != nil {
		return nil, fmt.Errorf("count diagnostics: %w", err)
	}

	return &stats, nil
}
