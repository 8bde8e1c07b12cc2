package results

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"buildhealth/internal/schema/sqlbundle"
)

// seedStatements mirror a small ingestion run: sys2 has two builds on develop
// and one historic build on the legacy "master" spelling.
var seedStatements = []string{
	`INSERT INTO systems (id, name, repo) VALUES (1, 'sys1', 'salilab/sys1'), (2, 'sys2', 'salilab/sys2'), (3, 'sys3', 'salilab/sys3')`,
	`INSERT INTO builds (id, branch, build_date, version, commit_hash, environment_tag) VALUES
		(1, 'develop', '2023-01-01', NULL, 'abc123', 'conda'),
		(2, 'develop', '2023-01-02', '2.18.0', 'abc456', NULL),
		(3, 'master', '2022-12-15', '2.17.0', 'def789', NULL)`,
	`INSERT INTO test_names (id, system_id, name) VALUES (1, 2, 'test_a'), (2, 2, 'test_b'), (3, 3, 'test_c')`,
	`INSERT INTO test_results (build_id, system_id, test_name_id, return_code, stderr, runtime) VALUES
		(1, 2, 1, 0, '', 1.5),
		(1, 2, 2, 1, 'assertion failed', 0.25),
		(2, 2, 1, 0, '', 1.0),
		(2, 2, 2, 0, '', 0.5),
		(3, 2, 1, 0, '', 2.0),
		(2, 3, 3, 0, '', 3.0)`,
	`INSERT INTO result_info (system_id, build_id, url, uses_optional_dep, build_flavor) VALUES
		(2, 2, 'https://example.org/builds/2', 1, 'release')`,
}

func openTestDB(t *testing.T, seed bool) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	stmts := sqlbundle.SplitStatements(sqlbundle.SQLite())
	if seed {
		stmts = append(stmts, seedStatements...)
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return db
}

func newTestSession(t *testing.T, store *Store) *Session {
	t.Helper()
	sess, err := store.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	t.Cleanup(func() { _ = sess.Release() })
	return sess
}

func int64Ptr(v int64) *int64 { return &v }
