package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANANSI_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ANANSI_STORE", "memory")
	t.Setenv("ANANSI_REDIS_ADDR", "")
	t.Setenv("ANANSI_LOG_LEVEL", "error")
	t.Setenv("ANANSI_IMPORT_FILE", "")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "anansi ") {
		t.Errorf("version output = %q", out)
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	memoryEnv(t)

	if _, err := run(t, "migrate", "up"); err != errNotPostgres {
		t.Errorf("migrate up error = %v, want errNotPostgres", err)
	}
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	memoryEnv(t)

	if _, err := run(t, "migrate", "down", "--steps", "0"); err == nil {
		t.Error("migrate down --steps 0 should fail")
	}
}

func TestImportCommand(t *testing.T) {
	memoryEnv(t)

	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	content := `
- id: bbc
  url: https://www.bbc.co.uk/news
  summary: BBC News
  display_date: "2017.04"
  topics: [news]
- id: go
  url: https://go.dev
  summary: Go
  display_date: "2009.11.10"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "import", path)
	if err != nil {
		t.Fatalf("import error = %v (output %q)", err, out)
	}
	if !strings.Contains(out, "created=2 updated=0 skipped=0 failed=0") {
		t.Errorf("import output = %q", out)
	}
}

func TestImportCommand_NoFile(t *testing.T) {
	memoryEnv(t)

	if _, err := run(t, "import"); err == nil {
		t.Error("import without a file should fail")
	}
}
