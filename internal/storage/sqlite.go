package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ssilint/internal/analysis"
	"ssilint/internal/graph"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database, creating its parent
// directory when needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			path TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			seq INTEGER PRIMARY KEY,
			from_path TEXT,
			to_path TEXT,
			kind TEXT,
			start_line INTEGER,
			start_col INTEGER,
			end_line INTEGER,
			end_col INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS unresolved (
			seq INTEGER PRIMARY KEY,
			from_path TEXT,
			raw TEXT,
			kind TEXT,
			start_line INTEGER,
			start_col INTEGER,
			end_line INTEGER,
			end_col INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS reports (
			file TEXT PRIMARY KEY,
			fingerprint TEXT,
			saved_at TIMESTAMP,
			body JSON
		);`,
		`CREATE TABLE IF NOT EXISTS findings (
			file TEXT,
			seq INTEGER,
			kind TEXT,
			severity TEXT,
			start_line INTEGER,
			start_col INTEGER,
			end_line INTEGER,
			end_col INTEGER,
			detail TEXT,
			suggestion TEXT,
			PRIMARY KEY (file, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- GraphStore Implementation ---

// SaveGraph stores g as a snapshot: rows from earlier graphs are removed.
func (s *SQLiteStore) SaveGraph(ctx context.Context, g *graph.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "edges", "unresolved"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// 1. Save Nodes
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (path) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, path := range g.Files() {
		if _, err := stmt.ExecContext(ctx, path); err != nil {
			return err
		}
	}

	// 2. Save Edges, keeping their order
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (seq, from_path, to_path, kind, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for i, e := range g.Edges {
		sp := e.Span
		if _, err := edgeStmt.ExecContext(ctx, i, e.From, e.To, string(e.Kind), sp.StartLine, sp.StartCol, sp.EndLine, sp.EndCol); err != nil {
			return err
		}
	}

	// 3. Save unresolved references
	unresolvedStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO unresolved (seq, from_path, raw, kind, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer unresolvedStmt.Close()
	for i, u := range g.Unresolved {
		sp := u.Span
		if _, err := unresolvedStmt.ExecContext(ctx, i, u.From, u.Raw, string(u.Kind), sp.StartLine, sp.StartCol, sp.EndLine, sp.EndCol); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph()

	// 1. Load Nodes
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM nodes")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		g.AddFile(path)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_path, to_path, kind, start_line, start_col, end_line, end_col FROM edges ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e graph.Edge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Kind, &e.Span.StartLine, &e.Span.StartCol, &e.Span.EndLine, &e.Span.EndCol); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.AddEdge(e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	// 3. Load unresolved references
	uRows, err := s.db.QueryContext(ctx, "SELECT from_path, raw, kind, start_line, start_col, end_line, end_col FROM unresolved ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved: %w", err)
	}
	defer uRows.Close()
	for uRows.Next() {
		var u graph.Unresolved
		if err := uRows.Scan(&u.From, &u.Raw, &u.Kind, &u.Span.StartLine, &u.Span.StartCol, &u.Span.EndLine, &u.Span.EndCol); err != nil {
			return nil, fmt.Errorf("failed to scan unresolved: %w", err)
		}
		g.AddUnresolved(u)
	}
	return g, uRows.Err()
}

// --- ReportStore Implementation ---

func (s *SQLiteStore) SaveReport(ctx context.Context, r *analysis.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (file, fingerprint, saved_at, body) VALUES (?, ?, ?, ?)
		ON CONFLICT(file) DO UPDATE SET
			fingerprint=excluded.fingerprint,
			saved_at=excluded.saved_at,
			body=excluded.body
	`, r.File, fmt.Sprintf("%016x", r.Fingerprint), time.Now().UTC(), body)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM findings WHERE file = ?", r.File); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (file, seq, kind, severity, start_line, start_col, end_line, end_col, detail, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, f := range r.Findings {
		sp := f.Span
		if _, err := stmt.ExecContext(ctx, r.File, i, string(f.Kind), string(f.Severity),
			sp.StartLine, sp.StartCol, sp.EndLine, sp.EndCol, f.Detail, f.Suggestion); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadReport(ctx context.Context, file string) (*analysis.Report, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "SELECT body FROM reports WHERE file = ?", file).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	var r analysis.Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}

func (s *SQLiteStore) ListFindings(ctx context.Context, file string) ([]StoredFinding, error) {
	query := `SELECT file, kind, severity, start_line, start_col, end_line, end_col, detail, suggestion FROM findings`
	var args []any
	if file != "" {
		query += " WHERE file = ?"
		args = append(args, file)
	}
	query += " ORDER BY file, start_line, start_col, seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var out []StoredFinding
	for rows.Next() {
		var f StoredFinding
		sp := &f.Span
		if err := rows.Scan(&f.File, &f.Kind, &f.Severity, &sp.StartLine, &sp.StartCol, &sp.EndLine, &sp.EndCol, &f.Detail, &f.Suggestion); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteReport(ctx context.Context, file string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reports WHERE file = ?", file); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM findings WHERE file = ?", file); err != nil {
		return err
	}
	return tx.Commit()
}
