// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func testPapers() []types.PaperRecord {
	return []types.PaperRecord{
		{Title: "First", PMID: "1", Year: "2023", Abstract: "A", Authors: []string{"Alice Smith"}},
		{Title: "Second", PMID: "2", DOI: "10.1/x", Year: "Unknown", Abstract: "B"},
	}
}

func TestNewProjectID(t *testing.T) {
	now := time.Date(2024, 12, 13, 9, 30, 5, 0, time.UTC)
	id := NewProjectID("CRISPR gene editing", now)

	if matched, _ := regexp.MatchString(`^project_20241213_093005_[0-9a-f]{8}$`, id); !matched {
		t.Errorf("NewProjectID() = %q, want project_<timestamp>_<8-hex>", id)
	}
	// Deterministic for the same query and time.
	if id2 := NewProjectID("CRISPR gene editing", now); id2 != id {
		t.Errorf("NewProjectID() not deterministic: %q vs %q", id, id2)
	}
	// Different query, different digest.
	if other := NewProjectID("morbidostat", now); other == id {
		t.Error("NewProjectID() identical for different queries")
	}
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)

	meta, err := s.Create("CRISPR", "user-42")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if meta.Status != types.StatusCreated {
		t.Errorf("Status = %q, want created", meta.Status)
	}
	if meta.PapersFound != 0 || meta.PapersDownloaded != 0 {
		t.Errorf("counts = %d/%d, want 0/0", meta.PapersFound, meta.PapersDownloaded)
	}
	if meta.Query != "CRISPR" || meta.OwnerID != "user-42" {
		t.Errorf("metadata = %+v, want query and owner persisted", meta)
	}

	for _, sub := range []string{PapersDirName, DatasetsDirName, SummariesDirName} {
		if fi, err := os.Stat(filepath.Join(s.Dir(meta.ProjectID), sub)); err != nil || !fi.IsDir() {
			t.Errorf("subdirectory %s missing: %v", sub, err)
		}
	}

	loaded, err := s.Metadata(meta.ProjectID)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if loaded != meta {
		t.Errorf("Metadata() = %+v, want %+v", loaded, meta)
	}
}

func TestUpdateMerges(t *testing.T) {
	s := newTestStore(t)
	meta, err := s.Create("query", "owner")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	err = s.Update(meta.ProjectID, map[string]any{
		"papers_found": 7,
		"status":       types.StatusSearchComplete,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	loaded, err := s.Metadata(meta.ProjectID)
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if loaded.PapersFound != 7 {
		t.Errorf("PapersFound = %d, want 7", loaded.PapersFound)
	}
	if loaded.Status != types.StatusSearchComplete {
		t.Errorf("Status = %q, want search_complete", loaded.Status)
	}
	if loaded.UpdatedAt == "" {
		t.Error("UpdatedAt not stamped")
	}
	// Untouched fields survive the merge.
	if loaded.Query != "query" || loaded.OwnerID != "owner" {
		t.Errorf("merge clobbered fields: %+v", loaded)
	}
}

func TestUpdateStatusNeverRegresses(t *testing.T) {
	s := newTestStore(t)
	meta, err := s.Create("query", "owner")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	steps := []struct {
		write types.ProjectStatus
		want  types.ProjectStatus
	}{
		{types.StatusDownloadComplete, types.StatusDownloadComplete},
		{types.StatusSearchComplete, types.StatusDownloadComplete},
		{types.StatusCreated, types.StatusDownloadComplete},
	}
	for _, step := range steps {
		if err := s.Update(meta.ProjectID, map[string]any{"status": step.write}); err != nil {
			t.Fatalf("Update(status=%s) error = %v", step.write, err)
		}
		loaded, err := s.Metadata(meta.ProjectID)
		if err != nil {
			t.Fatalf("Metadata() error = %v", err)
		}
		if loaded.Status != step.want {
			t.Errorf("after writing %q: Status = %q, want %q", step.write, loaded.Status, step.want)
		}
	}
}

func TestUpdateMissingDocumentStartsEmpty(t *testing.T) {
	s := newTestStore(t)

	if err := s.Update("project_fresh", map[string]any{"papers_found": 3}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	loaded, err := s.Metadata("project_fresh")
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if loaded.PapersFound != 3 {
		t.Errorf("PapersFound = %d, want 3", loaded.PapersFound)
	}
}

func TestResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	meta, err := s.Create("CRISPR", "owner")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Update(meta.ProjectID, map[string]any{"status": types.StatusSearchComplete}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	papers := testPapers()
	if err := s.SaveResults(meta.ProjectID, papers); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}

	loaded, err := s.LoadResults(meta.ProjectID)
	if err != nil {
		t.Fatalf("LoadResults() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, papers) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, papers)
	}
}

func TestSaveResultsOverwrites(t *testing.T) {
	s := newTestStore(t)
	meta, _ := s.Create("q", "o")

	if err := s.SaveResults(meta.ProjectID, testPapers()); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}
	replacement := []types.PaperRecord{{Title: "Only one", PMID: "9", Year: "2020", Abstract: "C"}}
	if err := s.SaveResults(meta.ProjectID, replacement); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}

	loaded, err := s.LoadResults(meta.ProjectID)
	if err != nil {
		t.Fatalf("LoadResults() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, replacement) {
		t.Errorf("LoadResults() = %+v, want overwritten list", loaded)
	}
}

func TestLoadResultsNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.LoadResults("project_nope"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("LoadResults(missing project) error = %v, want ErrNotFound", err)
	}

	meta, _ := s.Create("q", "o")
	if _, err := s.LoadResults(meta.ProjectID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("LoadResults(no results doc) error = %v, want ErrNotFound", err)
	}
}

func TestSaveResultsUnknownProject(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveResults("project_nope", testPapers()); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("SaveResults(missing project) error = %v, want ErrNotFound", err)
	}
}

func TestListSkipsDirsWithoutMetadata(t *testing.T) {
	s := newTestStore(t)
	meta, err := s.Create("valid project", "owner")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// A directory with no metadata document is not a project.
	if err := os.MkdirAll(filepath.Join(s.baseDir, "stray-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].ProjectID != meta.ProjectID {
		t.Errorf("ProjectID = %q, want %q", entries[0].ProjectID, meta.ProjectID)
	}
	if entries[0].Metadata.Query != "valid project" {
		t.Errorf("Metadata.Query = %q, want %q", entries[0].Metadata.Query, "valid project")
	}
}
