package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doclens/doclens/internal/extract"
)

// EntityRow is one indexed entity as read back from the database.
type EntityRow struct {
	ID            int64
	FilePath      string
	ParentID      sql.NullInt64
	Kind          extract.EntityKind
	Name          string
	QualifiedName string
	Signature     string
	SigHash       string
	ReturnType    string
	Template      *extract.TemplateInfo
	DocStyle      string
	DocText       string
	DocTags       []extract.DocTag
	Linkage       extract.Linkage
	Decorations   []string
	Visibility    extract.Visibility
	StartLine     uint32
	EndLine       uint32
	OpenEnded     bool
	ForwardDecl   bool
}

// SaveFileResult replaces a file's indexed rows with the given extraction
// result. Entities, their members, and diagnostics are written in one
// transaction so readers never observe a partially indexed file.
func (s *Store) SaveFileResult(res *extract.FileResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entities WHERE file_path = ?", res.File); err != nil {
		return fmt.Errorf("delete stale entities: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM diagnostics WHERE file_path = ?", res.File); err != nil {
		return fmt.Errorf("delete stale diagnostics: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entities (
			file_path, parent_id, kind, name, qualified_name,
			signature, sig_hash, return_type, template_params,
			doc_style, doc_text, doc_tags,
			linkage, decorations, visibility,
			line_start, line_end, open_ended, forward_decl
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var insert func(ent *extract.Entity, parentID sql.NullInt64) error
	insert = func(ent *extract.Entity, parentID sql.NullInt64) error {
		templateJSON, err := nullableJSON(ent.Template)
		if err != nil {
			return fmt.Errorf("encode template params: %w", err)
		}
		decorationsJSON, err := nullableJSON(ent.Decorations)
		if err != nil {
			return fmt.Errorf("encode decorations: %w", err)
		}

		var docStyle, docText, docTags sql.NullString
		if ent.Doc != nil {
			docStyle = sql.NullString{String: string(ent.Doc.Style), Valid: true}
			docText = sql.NullString{String: ent.Doc.Text, Valid: true}
			tagsJSON, err := nullableJSON(ent.Doc.Tags)
			if err != nil {
				return fmt.Errorf("encode doc tags: %w", err)
			}
			docTags = tagsJSON
		}

		result, err := stmt.Exec(
			res.File, parentID, string(ent.Kind), ent.Name, ent.QualifiedName,
			ent.Signature, ent.SigHash, ent.ReturnType, templateJSON,
			docStyle, docText, docTags,
			string(ent.Linkage), decorationsJSON, string(ent.Visibility),
			ent.StartLine, ent.EndLine, boolInt(ent.OpenEnded), boolInt(ent.ForwardDecl),
		)
		if err != nil {
			return fmt.Errorf("insert entity %s: %w", ent.QualifiedName, err)
		}

		if len(ent.Children) == 0 {
			return nil
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("entity id for %s: %w", ent.QualifiedName, err)
		}
		childParent := sql.NullInt64{Int64: id, Valid: true}
		for i := range ent.Children {
			if err := insert(&ent.Children[i], childParent); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range res.Entities {
		if err := insert(&res.Entities[i], sql.NullInt64{}); err != nil {
			return err
		}
	}

	for _, d := range res.Diagnostics {
		_, err := tx.Exec(
			"INSERT INTO diagnostics (file_path, kind, line, message) VALUES (?, ?, ?, ?)",
			res.File, string(d.Kind), d.Line, d.Message,
		)
		if err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Filter narrows a QueryEntities call. Zero-valued fields match everything.
type Filter struct {
	// Kind restricts to one entity kind.
	Kind extract.EntityKind
	// Name matches against qualified names with SQL LIKE semantics.
	Name string
	// File restricts to entities from one file.
	File string
	// Limit caps the number of rows returned, zero means no cap.
	Limit int
}

// QueryEntities returns indexed entities matching the filter, ordered by
// file path and source position.
func (s *Store) QueryEntities(filter Filter) ([]EntityRow, error) {
	query := `
		SELECT id, file_path, parent_id, kind, name, qualified_name,
		       signature, sig_hash, return_type, template_params,
		       doc_style, doc_text, doc_tags,
		       linkage, decorations, visibility,
		       line_start, line_end, open_ended, forward_decl
		FROM entities`

	var conds []string
	var args []any
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Name != "" {
		conds = append(conds, "qualified_name LIKE ?")
		args = append(args, filter.Name)
	}
	if filter.File != "" {
		conds = append(conds, "file_path = ?")
		args = append(args, filter.File)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY file_path, line_start"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []EntityRow
	for rows.Next() {
		row, err := scanEntityRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// GetDiagnostics returns the stored diagnostics for a file.
func (s *Store) GetDiagnostics(filePath string) ([]extract.Diagnostic, error) {
	rows, err := s.db.Query(
		"SELECT kind, line, message FROM diagnostics WHERE file_path = ? ORDER BY line",
		filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []extract.Diagnostic
	for rows.Next() {
		var d extract.Diagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Line, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Kind = extract.DiagnosticKind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteFile removes a file's entities, diagnostics and index entry.
func (s *Store) DeleteFile(filePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"entities", "diagnostics", "file_index"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE file_path = ?", filePath); err != nil {
			return fmt.Errorf("delete file %s from %s: %w", filePath, table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete file %s: %w", filePath, err)
	}
	return nil
}

func scanEntityRow(rows *sql.Rows) (EntityRow, error) {
	var row EntityRow
	var kind, linkage, visibility string
	var templateJSON, docStyle, docText, docTags, decorationsJSON sql.NullString
	var openEnded, forwardDecl int

	err := rows.Scan(
		&row.ID, &row.FilePath, &row.ParentID, &kind, &row.Name, &row.QualifiedName,
		&row.Signature, &row.SigHash, &row.ReturnType, &templateJSON,
		&docStyle, &docText, &docTags,
		&linkage, &decorationsJSON, &visibility,
		&row.StartLine, &row.EndLine, &openEnded, &forwardDecl,
	)
	if err != nil {
		return row, fmt.Errorf("scan entity row: %w", err)
	}

	row.Kind = extract.EntityKind(kind)
	row.Linkage = extract.Linkage(linkage)
	row.Visibility = extract.Visibility(visibility)
	row.DocStyle = docStyle.String
	row.DocText = docText.String
	row.OpenEnded = openEnded != 0
	row.ForwardDecl = forwardDecl != 0

	if templateJSON.Valid {
		if err := json.Unmarshal([]byte(templateJSON.String), &row.Template); err != nil {
			return row, fmt.Errorf("decode template params: %w", err)
		}
	}
	if docTags.Valid {
		if err := json.Unmarshal([]byte(docTags.String), &row.DocTags); err != nil {
			return row, fmt.Errorf("decode doc tags: %w", err)
		}
	}
	if decorationsJSON.Valid {
		if err := json.Unmarshal([]byte(decorationsJSON.String), &row.Decorations); err != nil {
			return row, fmt.Errorf("decode decorations: %w", err)
		}
	}

	return row, nil
}

// nullableJSON marshals v, mapping nil pointers and empty slices to NULL.
func nullableJSON(v any) (sql.NullString, error) {
	switch t := v.(type) {
	case *extract.TemplateInfo:
		if t == nil {
			return sql.NullString{}, nil
		}
	case []string:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	case []extract.DocTag:
		if len(t) == 0 {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
