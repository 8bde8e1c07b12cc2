package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"buildhealth/internal/infra/persistence/sqlite"
	"buildhealth/pkg/domain"
)

var seedStatements = []string{
	`INSERT INTO systems (id, name, repo) VALUES (1, 'sys1', 'salilab/sys1'), (2, 'sys2', 'salilab/sys2')`,
	`INSERT INTO builds (id, branch, build_date, version, commit_hash, environment_tag) VALUES
		(1, 'develop', '2023-01-01', NULL, 'abc123', NULL),
		(2, 'master', '2023-01-02', '2.18.0', 'abc456', NULL)`,
	`INSERT INTO test_names (id, system_id, name) VALUES (1, 2, 'test_ok'), (2, 2, 'test_broken')`,
	`INSERT INTO test_results (build_id, system_id, test_name_id, return_code, stderr, runtime) VALUES
		(1, 2, 1, 0, '', 1.5),
		(1, 2, 2, 1, 'Traceback: boom', 0.5),
		(2, 2, 1, 0, '', 1.0)`,
	`INSERT INTO result_info (system_id, build_id, url, uses_optional_dep, build_flavor) VALUES
		(2, 1, 'https://example.org/builds/1', 0, 'debug')`,
}

var metadataTree = map[string]string{
	"sys1/metadata.yaml": "title: First system\npmid: \"1234\"\nprereqs: [modeller]\n",
	"sys1/github.json":   `{"homepage": "https://sys1.example.org"}`,
	"sys2/metadata.yaml": "title: Second system\n",
	"sys2/notes.txt":     "not a metadata document",
}

// setupEnv points the CLI at a seeded sqlite file and an empty filesystem
// metadata store, returning a directory ready for import.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "health.db")
	t.Setenv("BUILDHEALTH_STORAGE_DRIVER", "sqlite")
	t.Setenv("BUILDHEALTH_SQLITE_PATH", dbPath)
	t.Setenv("BUILDHEALTH_BLOB_DRIVER", "fs")
	t.Setenv("BUILDHEALTH_BLOB_FS_ROOT", filepath.Join(dir, "store"))

	ctx := context.Background()
	db, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, stmt := range seedStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}

	src := filepath.Join(dir, "src")
	for rel, body := range metadataTree {
		path := filepath.Join(src, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return src
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestImportThenListJSON(t *testing.T) {
	src := setupEnv(t)
	out := mustRun(t, "import", src)
	if !strings.Contains(out, "imported 3 documents for 2 systems into fs") {
		t.Fatalf("unexpected import output:\n%s", out)
	}
	if !strings.Contains(out, "skipped sys2/notes.txt") {
		t.Fatalf("unknown file should be reported:\n%s", out)
	}

	var sums []struct {
		Name         string   `json:"name"`
		PMID         *string  `json:"pmid"`
		Homepage     string   `json:"homepage"`
		CondaPrereqs []string `json:"conda_prereqs"`
	}
	if err := json.Unmarshal([]byte(mustRun(t, "list", "--json")), &sums); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(sums) != 2 || sums[0].PMID == nil || *sums[0].PMID != "1234" || sums[1].PMID != nil {
		t.Fatalf("unexpected summaries %+v", sums)
	}
	if diff := cmp.Diff([]string{"imp", "modeller"}, sums[0].CondaPrereqs); diff != "" {
		t.Fatalf("conda mismatch (-want +got):\n%s", diff)
	}
	if sums[0].Homepage != "https://sys1.example.org" {
		t.Fatalf("homepage = %q", sums[0].Homepage)
	}
}

func TestListTable(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows:\n%s", out)
	}
	if f := strings.Fields(lines[1]); !cmp.Equal(f, []string{"1", "sys1", "-", "-"}) {
		t.Fatalf("sys1 row = %v", f)
	}
	if f := strings.Fields(lines[2]); !cmp.Equal(f, []string{"2", "sys2", "FAIL", "pass"}) {
		t.Fatalf("sys2 row = %v", f)
	}
}

func TestShowSystem(t *testing.T) {
	src := setupEnv(t)
	mustRun(t, "import", src)

	out := mustRun(t, "show", "2")
	for _, want := range []string{
		"sys2 (salilab/sys2)",
		"Title:     Second system",
		"Modules:   imp",
		"Thumbnail: false",
		"develop:\n  #1  2023-01-01  -        FAIL",
		"main:\n  #2  2023-01-02  2.18.0   pass",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("show output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "show", "1")
	if !strings.Contains(out, "in development") || !strings.Contains(out, "Homepage:  https://sys1.example.org") {
		t.Fatalf("unexpected sys1 output:\n%s", out)
	}
}

func TestShowErrors(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "show", "99"); !errors.Is(err, domain.ErrSystemNotFound) {
		t.Fatalf("expected ErrSystemNotFound, got %v", err)
	}
	if _, err := run(t, "show", "abc"); err == nil || !strings.Contains(err.Error(), "invalid system id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
	if _, err := run(t, "show", "1"); !errors.Is(err, domain.ErrMissingMetadata) {
		t.Fatalf("expected missing metadata before import, got %v", err)
	}
}

func TestTestsCommand(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "tests", "2", "1")
	for _, want := range []string{
		"sys2 build #1 on develop: FAIL",
		"Log: https://example.org/builds/1 (flavor debug)",
		"--- test_broken (exit 1)\nTraceback: boom",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("tests output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "test_broken") > strings.Index(out, "test_ok") {
		t.Fatalf("tests must be ordered by name:\n%s", out)
	}

	if _, err := run(t, "tests", "1", "1"); err == nil || !strings.Contains(err.Error(), "no result for build 1") {
		t.Fatalf("expected missing result error, got %v", err)
	}
}

func TestWarmWritesMetrics(t *testing.T) {
	src := setupEnv(t)
	mustRun(t, "import", src)
	metrics := filepath.Join(t.TempDir(), "buildhealth.prom")

	out := mustRun(t, "--metrics-file", metrics, "warm", "--workers", "2")
	if !strings.Contains(out, "metadata ok for 2 systems") {
		t.Fatalf("unexpected warm output:\n%s", out)
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`buildhealth_service_operation_seconds_count{operation="warm_metadata",status="success"} 1`,
		`buildhealth_metadata_document_reads_total{document="metadata.yaml",outcome="loaded"} 2`,
		`buildhealth_result_query_seconds_count{query="systems",status="success"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestWarmReportsBrokenMetadata(t *testing.T) {
	setupEnv(t)
	if _, err := run(t, "warm"); !errors.Is(err, domain.ErrMissingMetadata) {
		t.Fatalf("expected missing metadata, got %v", err)
	}
}

func TestSchemaCommand(t *testing.T) {
	out := mustRun(t, "schema")
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS test_results") {
		t.Fatalf("sqlite DDL not printed:\n%s", out)
	}
	if _, err := run(t, "schema", "--dialect", "oracle"); err == nil {
		t.Fatalf("expected unknown dialect error")
	}

	path := filepath.Join(t.TempDir(), "fresh", "health.db")
	t.Setenv("BUILDHEALTH_STORAGE_DRIVER", "sqlite")
	t.Setenv("BUILDHEALTH_SQLITE_PATH", path)
	out = mustRun(t, "schema", "--apply")
	if !strings.Contains(out, "schema applied to sqlite store") {
		t.Fatalf("unexpected apply output:\n%s", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}
