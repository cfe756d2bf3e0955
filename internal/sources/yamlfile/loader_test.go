package yamlfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeFile(t, `---
- id: go-context
  url: https://go.dev/blog/context
  summary: Go Concurrency Patterns - Context
  display_date: "2014.07.29"
  topics: [go, concurrency]
- id: pg-keyset
  url: https://use-the-index-luke.com/no-offset
  summary: We need tool support for keyset pagination
  display_date: "2014"
  description: Why OFFSET is slow
  status: submitted
  submitter: ada
`)

	doc, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Entries) != 2 {
		t.Fatalf("Load() returned %d entries, want 2", len(doc.Entries))
	}

	first := doc.Entries[0]
	if first.ID != "go-context" || first.DisplayDate != "2014.07.29" || len(first.Topics) != 2 {
		t.Errorf("first entry = %+v", first)
	}
	second := doc.Entries[1]
	if second.Description != "Why OFFSET is slow" || second.Status != "submitted" || second.Submitter != "ada" {
		t.Errorf("second entry = %+v", second)
	}
	if doc.ModTime.IsZero() || doc.ModTime.Nanosecond() != 0 {
		t.Errorf("ModTime = %v, want non-zero and truncated to the second", doc.ModTime)
	}
}

func TestLoaderLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("ANANSI_TEST_WIKI_HOST", "wiki.internal.example")
	path := writeFile(t, `
- id: wiki
  url: https://${ANANSI_TEST_WIKI_HOST}/start
  summary: Team wiki
  display_date: "2020"
`)

	doc, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := doc.Entries[0].URL; got != "https://wiki.internal.example/start" {
		t.Errorf("URL = %q, want expanded host", got)
	}
}

func TestLoaderLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, `
- id: x
  url: https://example.com
  summary: s
  display_date: "2020"
  tags: [oops]
`)

	_, err := NewLoader(path).Load()
	if err == nil || !strings.Contains(err.Error(), "tags") {
		t.Errorf("Load() error = %v, want unknown field error", err)
	}
}

func TestLoaderLoadEmptyFile(t *testing.T) {
	doc, err := NewLoader(writeFile(t, "")).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Entries) != 0 {
		t.Errorf("Load() returned %d entries, want 0", len(doc.Entries))
	}
}

func TestLoaderLoadMissingFile(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestMapperValidate(t *testing.T) {
	entries := []Entry{
		{ID: "a"},
		{ID: ""},
		{ID: "a"},
		{ID: strings.Repeat("x", 51)},
		{ID: "b"},
	}

	problems := NewMapper().Validate(entries)
	for _, i := range []int{1, 2, 3} {
		if problems[i] == nil {
			t.Errorf("entry %d should be invalid", i)
		}
	}
	for _, i := range []int{0, 4} {
		if problems[i] != nil {
			t.Errorf("entry %d should be valid, got %v", i, problems[i])
		}
	}
}

func TestMapperRequests(t *testing.T) {
	m := NewMapper()
	mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Entry{ID: "x", URL: "https://example.com", Summary: "s", DisplayDate: "2020", Topics: []string{"go"}}

	create := m.ToCreate(e, mod)
	if *create.Source != SourceName || *create.SourceItemID != "x" || !create.SourceLastUpdated.Equal(mod) {
		t.Errorf("ToCreate() provenance = %v/%v/%v", *create.Source, *create.SourceItemID, create.SourceLastUpdated)
	}
	if create.Description != nil || create.SubmitterID != nil {
		t.Error("ToCreate() should leave absent optional fields nil")
	}

	update := m.ToUpdate(e, mod)
	if update.Description == nil || *update.Description != "" {
		t.Error("ToUpdate() should clear an absent description")
	}
	if update.Status != nil {
		t.Error("ToUpdate() should not touch status when the entry has none")
	}
	if update.Topics == nil || len(*update.Topics) != 1 {
		t.Errorf("ToUpdate() topics = %v", update.Topics)
	}
}
