package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func newTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("db_path: %s\nlog_file: %s\nlog_level: ERROR\nnotifications: false\n",
		filepath.Join(dir, "sidedock.db"), filepath.Join(dir, "sidedock.log"))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	if err != nil {
		t.Fatalf("sidedock %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// ============================================================
// add / list
// ============================================================

func TestAddAndList(t *testing.T) {
	cfg := newTestConfig(t)

	out := mustRun(t, cfg, "add", "write", "tests", "#dev", "30m")
	if !strings.Contains(out, `"write tests"`) {
		t.Fatalf("add output = %q", out)
	}

	out = mustRun(t, cfg, "list")
	for _, want := range []string{"IN_PROGRESS", "write tests", "dev", "30m", "1 open, 30m of 30m remaining"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestAddToOtherDay(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "--date", "2030-01-02", "future thing")

	if out := mustRun(t, cfg, "list"); strings.Contains(out, "future thing") {
		t.Fatal("task should not be on today")
	}
	if out := mustRun(t, cfg, "list", "--date", "2030-01-02"); !strings.Contains(out, "future thing") {
		t.Fatalf("list output = %q", out)
	}
}

func TestBadDate(t *testing.T) {
	cfg := newTestConfig(t)
	if _, err := run(t, cfg, "list", "--date", "03/10/2026"); err == nil {
		t.Fatal("expected error for bad date")
	}
	if _, err := run(t, cfg, "add"); err == nil {
		t.Fatal("add needs text")
	}
}

func TestListEmpty(t *testing.T) {
	cfg := newTestConfig(t)
	out := mustRun(t, cfg, "list", "--date", "2030-01-02")
	if !strings.Contains(out, "No tasks on 2030-01-02") {
		t.Fatalf("list output = %q", out)
	}
}

// ============================================================
// export / import / clear
// ============================================================

func TestExportStdout(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "exported")

	out := mustRun(t, cfg, "export")
	var doc struct {
		Version int `json:"version"`
		Days    []struct {
			Tasks []struct {
				Title string `json:"title"`
			} `json:"tasks"`
		} `json:"days"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	if len(doc.Days) != 1 || len(doc.Days[0].Tasks) != 1 || doc.Days[0].Tasks[0].Title != "exported" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestExportCSV(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "in a spreadsheet")
	dir := filepath.Join(t.TempDir(), "reports")

	mustRun(t, cfg, "export", "--csv", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[1].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "in a spreadsheet") {
		t.Fatalf("%s = %q", entries[1].Name(), data)
	}
}

func TestExportClearImport(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "keep me")
	backup := filepath.Join(t.TempDir(), "backup.json")

	mustRun(t, cfg, "export", "--out", backup)
	out := mustRun(t, cfg, "clear", "--yes")
	if !strings.Contains(out, "cleared") {
		t.Fatalf("clear output = %q", out)
	}
	if out := mustRun(t, cfg, "list"); strings.Contains(out, "keep me") {
		t.Fatal("clear should remove tasks")
	}

	out = mustRun(t, cfg, "import", backup)
	if !strings.Contains(out, "Imported 1 day(s)") {
		t.Fatalf("import output = %q", out)
	}
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "keep me") {
		t.Fatal("import should restore tasks")
	}
}

func TestImportMalformed(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "survivor")
	bad := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0o644)

	if _, err := run(t, cfg, "import", bad); err == nil {
		t.Fatal("expected error for malformed file")
	}
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "survivor") {
		t.Fatal("failed import must keep existing data")
	}
}

func TestClearRequiresYes(t *testing.T) {
	cfg := newTestConfig(t)
	mustRun(t, cfg, "add", "safe")
	if _, err := run(t, cfg, "clear"); err == nil {
		t.Fatal("clear without --yes should fail")
	}
	if out := mustRun(t, cfg, "list"); !strings.Contains(out, "safe") {
		t.Fatal("data should be untouched")
	}
}
