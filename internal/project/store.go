// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project manages the on-disk project tree: one directory per
// search, holding a metadata document, the persisted result list, and
// subdirectories for downloaded PDFs and future derived artifacts.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Per-project directory layout.
const (
	metadataFile = "metadata.json"
	resultsFile  = "papers_metadata.json"

	// PapersDirName holds downloaded PDFs. DatasetsDirName and
	// SummariesDirName are created empty, reserved for derived datasets
	// and generated summaries.
	PapersDirName    = "papers"
	DatasetsDirName  = "datasets"
	SummariesDirName = "summaries"
)

// Store manages project directories under a base directory. The core
// never deletes a project directory.
type Store struct {
	baseDir string
}

// NewStore returns a Store rooted at cfg.BaseDir, creating the base
// directory if needed.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("%w: base directory is empty", types.ErrInvalidInput)
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating base directory: %w", err)
	}
	return &Store{baseDir: cfg.BaseDir}, nil
}

// Dir returns the directory for a project ID.
func (s *Store) Dir(projectID string) string {
	return filepath.Join(s.baseDir, projectID)
}

// PapersDir returns the PDF download directory for a project ID.
func (s *Store) PapersDir(projectID string) string {
	return filepath.Join(s.baseDir, projectID, PapersDirName)
}

// Create allocates a new project for a search: a fresh ID, the directory
// tree, and an initial metadata document with zero counts. Every search
// gets its own project; identical queries are never merged.
func (s *Store) Create(query, ownerID string) (types.ProjectMetadata, error) {
	now := time.Now().UTC()
	meta := types.ProjectMetadata{
		ProjectID: NewProjectID(query, now),
		Query:     query,
		OwnerID:   ownerID,
		CreatedAt: now.Format(time.RFC3339),
		Status:    types.StatusCreated,
	}

	dir := s.Dir(meta.ProjectID)
	for _, sub := range []string{PapersDirName, DatasetsDirName, SummariesDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return types.ProjectMetadata{}, fmt.Errorf("creating project directory: %w", err)
		}
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return types.ProjectMetadata{}, fmt.Errorf("writing initial metadata: %w", err)
	}
	return meta, nil
}

// Metadata loads a project's metadata document. A missing project or
// document wraps types.ErrNotFound.
func (s *Store) Metadata(projectID string) (types.ProjectMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(projectID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return types.ProjectMetadata{}, fmt.Errorf("%w: project %s", types.ErrNotFound, projectID)
		}
		return types.ProjectMetadata{}, fmt.Errorf("reading metadata: %w", err)
	}
	var meta types.ProjectMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.ProjectMetadata{}, fmt.Errorf("parsing metadata for %s: %w", projectID, err)
	}
	return meta, nil
}

// Update merges fields into a project's metadata document with a
// read-modify-write: load the existing document (or start empty when
// missing), shallow-merge the provided fields last-write-wins, stamp
// updated_at, and write the whole document back. The status field is the
// one exception to last-write-wins: a write that would move the status
// to an earlier lifecycle stage is dropped. Concurrent updates to the
// same project race at the document level; the last writer wins.
func (s *Store) Update(projectID string, updates map[string]any) error {
	path := filepath.Join(s.Dir(projectID), metadataFile)

	doc := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing metadata for %s: %w", projectID, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading metadata: %w", err)
	}

	for k, v := range updates {
		if k == "status" && regressesStatus(doc["status"], v) {
			continue
		}
		doc[k] = v
	}
	doc["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	if err := os.MkdirAll(s.Dir(projectID), 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	return writeJSON(path, doc)
}

// regressesStatus reports whether writing next over current would move
// the lifecycle backwards.
func regressesStatus(current, next any) bool {
	cur, okCur := current.(string)
	nxt, okNxt := stringValue(next)
	if !okCur || !okNxt {
		return false
	}
	return !types.ProjectStatus(cur).Advances(types.ProjectStatus(nxt)) && cur != nxt
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case types.ProjectStatus:
		return string(s), true
	default:
		return "", false
	}
}

// SaveResults persists the full paper list for a project as a single
// document, overwriting any prior list.
func (s *Store) SaveResults(projectID string, papers []types.PaperRecord) error {
	if _, err := os.Stat(s.Dir(projectID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: project %s", types.ErrNotFound, projectID)
		}
		return fmt.Errorf("checking project directory: %w", err)
	}
	return writeJSON(filepath.Join(s.Dir(projectID), resultsFile), papers)
}

// LoadResults reads the persisted paper list for a project. A missing
// project or results document wraps types.ErrNotFound.
func (s *Store) LoadResults(projectID string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(projectID), resultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: results for project %s", types.ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var papers []types.PaperRecord
	if err := json.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing results for %s: %w", projectID, err)
	}
	return papers, nil
}

// Entry pairs a project ID with its metadata for listings.
type Entry struct {
	ProjectID string
	Metadata  types.ProjectMetadata
}

// List enumerates immediate subdirectories of the base directory that
// contain a valid metadata document, in directory order. Directories
// without one are silently skipped.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading base directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		meta, err := s.Metadata(de.Name())
		if err != nil {
			continue
		}
		entries = append(entries, Entry{ProjectID: de.Name(), Metadata: meta})
	}
	return entries, nil
}

// ResultsPath returns the results document path for a project. The
// library index uses it to detect changed result lists.
func (s *Store) ResultsPath(projectID string) string {
	return filepath.Join(s.Dir(projectID), resultsFile)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
