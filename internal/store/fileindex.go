package store

import (
	"database/sql"
	"fmt"
	"time"
)

// NeedsScan reports whether a file must be re-extracted: true when the
// index has no row for it or the recorded content hash differs.
func (s *Store) NeedsScan(path, hash string) (bool, error) {
	var last string
	err := s.db.QueryRow(
		"SELECT scan_hash FROM file_index WHERE file_path = ?", path,
	).Scan(&last)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up scan state for %s: %w", path, err)
	}
	return last != hash, nil
}

// MarkScanned records a file's content hash after its entities are saved,
// so an unchanged file is skipped on the next scan.
func (s *Store) MarkScanned(path, hash string) error {
	_, err := s.db.Exec(`
		INSERT INTO file_index (file_path, scan_hash, scanned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			scan_hash = excluded.scan_hash,
			scanned_at = excluded.scanned_at`,
		path, hash, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mark %s scanned: %w", path, err)
	}
	return nil
}

// LastScanned returns the most recent scan time across the index, or the
// zero time when nothing has been scanned yet.
func (s *Store) LastScanned() (time.Time, error) {
	var at sql.NullString
	if err := s.db.QueryRow("SELECT MAX(scanned_at) FROM file_index").Scan(&at); err != nil {
		return time.Time{}, fmt.Errorf("query last scan time: %w", err)
	}
	if !at.Valid || at.String == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, at.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scan time %q: %w", at.String, err)
	}
	return ts, nil
}
