package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type captureFatal struct{ msg string }

func (c *captureFatal) Fatalf(format string, args ...any) {
	c.msg = fmt.Sprintf(format, args...)
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal", InternalImportForbidden, "buildhealth/internal/results", true},
		{"internal public", InternalImportForbidden, "buildhealth/pkg/domain", false},
		{"sql", DatabaseImportForbidden, "database/sql", true},
		{"sql driver iface", DatabaseImportForbidden, "database/sql/driver", false},
		{"pgx", DatabaseImportForbidden, "github.com/jackc/pgx/v5/stdlib", true},
		{"sqlite", DatabaseImportForbidden, "modernc.org/sqlite", true},
		{"prefix exact", PackagesForbidden("buildhealth/internal/blob"), "buildhealth/internal/blob", true},
		{"prefix child", PackagesForbidden("buildhealth/internal/blob"), "buildhealth/internal/blob/core", true},
		{"prefix sibling", PackagesForbidden("buildhealth/internal/blob"), "buildhealth/internal/blobby", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s: pred(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func writeSource(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "x.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"buildhealth/internal/results\"\n)\nvar _ = fmt.Sprint\nvar _ results.Row\n")
	writeSource(t, dir, "x_test.go", "package tmp\nimport \"buildhealth/internal/core\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || viols[0] != "buildhealth/internal/results (in x.go)" {
		t.Fatalf("unexpected violations %v", viols)
	}

	var c captureFatal
	failIfDirectViolations(&c, "layering", viols)
	if !strings.Contains(c.msg, "forbidden direct imports") {
		t.Fatalf("expected failure message, got %q", c.msg)
	}
}

func TestAssertNoDirectImportsClean(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	AssertNoDirectImports(t, dir, InternalImportForbidden, "none")
}

func TestTransitiveViolationsReported(t *testing.T) {
	var c captureFatal
	failIfTransitiveViolations(&c, "reason", nil)
	if c.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfTransitiveViolations(&c, "reason", []string{"database/sql"})
	if !strings.Contains(c.msg, "forbidden transitive dependency") {
		t.Fatalf("expected failure message, got %q", c.msg)
	}
}

func TestAssertNoTransitiveDependency(t *testing.T) {
	AssertNoTransitiveDependency(t, "buildhealth/pkg/domain", InternalImportForbidden, "domain is a leaf")
}
