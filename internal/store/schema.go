package store

// schemaSQL defines the SQLite schema for the entity index.
// Tables:
//   - entities: one row per extracted declaration; members reference their
//     enclosing class/struct row through parent_id
//   - diagnostics: non-fatal extraction problems per file
//   - file_index: tracks file scan state for incremental scanning
const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    parent_id INTEGER REFERENCES entities(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    qualified_name TEXT NOT NULL,
    signature TEXT NOT NULL DEFAULT '',
    sig_hash TEXT NOT NULL DEFAULT '',
    return_type TEXT NOT NULL DEFAULT '',
    template_params TEXT,
    doc_style TEXT,
    doc_text TEXT,
    doc_tags TEXT,
    linkage TEXT NOT NULL DEFAULT 'default',
    decorations TEXT,
    visibility TEXT,
    line_start INTEGER NOT NULL,
    line_end INTEGER NOT NULL,
    open_ended INTEGER NOT NULL DEFAULT 0,
    forward_decl INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS diagnostics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    kind TEXT NOT NULL,
    line INTEGER NOT NULL,
    message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS file_index (
    file_path TEXT PRIMARY KEY,
    scan_hash TEXT NOT NULL,
    scanned_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(file_path);
CREATE INDEX IF NOT EXISTS idx_entities_qualified ON entities(qualified_name);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);
CREATE INDEX IF NOT EXISTS idx_entities_sig_hash ON entities(sig_hash);
CREATE INDEX IF NOT EXISTS idx_diagnostics_file ON diagnostics(file_path);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
