// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library maintains a cross-project SQLite index of saved paper
// metadata, with full-text search over titles and abstracts. Rows are
// per-project; the same paper saved by two projects appears twice, since
// projects never merge.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/internal/project"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	indexDirName = "index"
	dbFile       = "library.db"
)

// Store manages the library SQLite database.
type Store struct {
	db         *sql.DB
	indexDir   string
	maxResults int
}

// NewStore opens or creates the library database at
// cfg.IndexDir/library.db (default <BaseDir>/index/library.db),
// creating the schema if it does not exist.
func NewStore(cfg types.LibraryConfig) (*Store, error) {
	indexDir := cfg.IndexDir
	if indexDir == "" {
		indexDir = filepath.Join(cfg.BaseDir, indexDirName)
	}
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		indexDir:   indexDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			query TEXT,
			owner TEXT,
			created_at TEXT,
			status TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL REFERENCES projects(id),
			pmid TEXT,
			doi TEXT,
			title TEXT,
			authors TEXT,
			abstract TEXT,
			year TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_project_id ON papers(project_id)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			project_id TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IngestSummary holds counts from a library indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of projects processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest walks the project store and indexes each project's saved result
// list. Projects whose results document has not changed since the last
// run are skipped; changed ones are re-indexed in place. Projects with
// no results document yet are ignored.
func (s *Store) Ingest(ctx context.Context, store *project.Store, w io.Writer) (IngestSummary, error) {
	entries, err := store.List()
	if err != nil {
		return IngestSummary{}, fmt.Errorf("listing projects: %w", err)
	}

	var summary IngestSummary
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(store.ResultsPath(entry.ProjectID))
		if err != nil {
			// No results saved yet; nothing to index.
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM indexing_status WHERE project_id = ?`, entry.ProjectID,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", entry.ProjectID)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		papers, err := store.LoadResults(entry.ProjectID)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.ProjectID, err)
			summary.Failed++
			continue
		}

		if err := s.ingestProject(ctx, entry, papers, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.ProjectID, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d papers)\n", entry.ProjectID, len(papers))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d papers)\n", entry.ProjectID, len(papers))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestProject(ctx context.Context, entry project.Entry, papers []types.PaperRecord, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM papers WHERE project_id = ?`, entry.ProjectID); err != nil {
			return fmt.Errorf("deleting old rows: %w", err)
		}
	}

	meta := entry.Metadata
	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, query, owner, created_at, status)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, owner=excluded.owner,
			created_at=excluded.created_at, status=excluded.status`,
		entry.ProjectID, meta.Query, meta.OwnerID, meta.CreatedAt, string(meta.Status),
	)
	if err != nil {
		return fmt.Errorf("upserting project: %w", err)
	}

	for _, p := range papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO papers (project_id, pmid, doi, title, authors, abstract, year)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.ProjectID, p.PMID, p.DOI, p.Title, string(authorsJSON), p.Abstract, p.Year,
		)
		if err != nil {
			return fmt.Errorf("inserting paper: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (project_id, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(project_id) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		entry.ProjectID, modTime,
	)
	if err != nil {
		return fmt.Errorf("recording indexing status: %w", err)
	}

	return tx.Commit()
}

// QueryOptions holds parameters for library queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over titles and abstracts.
	Query string

	// ProjectID filters by project.
	ProjectID string

	// Year filters by the stored year string.
	Year string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.ProjectID == "" && q.Year == ""
}

// QueryResult is an indexed paper with its owning project.
type QueryResult struct {
	types.PaperRecord
	ProjectID    string `json:"project_id" yaml:"project_id"`
	ProjectQuery string `json:"project_query" yaml:"project_query"`
}

// Query searches the library with optional full-text match and filters.
// Full-text results come back in FTS5 rank order; structured-only
// queries are sorted by project then insertion order.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.pmid, p.doi, p.title, p.authors, p.abstract, p.year,
				p.project_id, pr.query
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			LEFT JOIN projects pr ON p.project_id = pr.id
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.pmid, p.doi, p.title, p.authors, p.abstract, p.year,
				p.project_id, pr.query
			FROM papers p
			LEFT JOIN projects pr ON p.project_id = pr.id
			WHERE 1=1`)
	}

	if opts.ProjectID != "" {
		qb.WriteString(` AND p.project_id = ?`)
		args = append(args, opts.ProjectID)
	}
	if opts.Year != "" {
		qb.WriteString(` AND p.year = ?`)
		args = append(args, opts.Year)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.project_id, p.rowid`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			authorsJSON sql.NullString
			projQuery   sql.NullString
		)
		if err := rows.Scan(&qr.PMID, &qr.DOI, &qr.Title, &authorsJSON,
			&qr.Abstract, &qr.Year, &qr.ProjectID, &projQuery); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if authorsJSON.Valid && authorsJSON.String != "" {
			if err := json.Unmarshal([]byte(authorsJSON.String), &qr.Authors); err != nil {
				return nil, fmt.Errorf("parsing authors: %w", err)
			}
		}
		qr.ProjectQuery = projQuery.String
		qr.PDFURL = types.CandidatePDFURL(qr.PMID)
		results = append(results, qr)
	}
	return results, rows.Err()
}
