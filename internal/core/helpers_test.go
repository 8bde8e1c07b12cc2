package core

import (
	"context"
	"path/filepath"
	"testing"

	"buildhealth/internal/blob"
	"buildhealth/internal/infra/persistence/sqlite"
	"buildhealth/internal/metadata"
	"buildhealth/internal/results"
)

// seedStatements describe three systems: sys1 has no results yet, sys2 has
// two develop builds plus one on the legacy "master" spelling, and sys3
// took part in build 2 only.
var seedStatements = []string{
	`INSERT INTO systems (id, name, repo) VALUES (1, 'sys1', 'salilab/sys1'), (2, 'sys2', 'salilab/sys2'), (3, 'sys3', 'salilab/sys3')`,
	`INSERT INTO builds (id, branch, build_date, version, commit_hash, environment_tag) VALUES
		(1, 'develop', '2023-01-01', NULL, 'abc123', 'conda'),
		(2, 'develop', '2023-01-02', '2.18.0', 'abc456', NULL),
		(3, 'master', '2022-12-15', '2.17.0', 'def789', NULL)`,
	`INSERT INTO test_names (id, system_id, name) VALUES (1, 2, 'test_b'), (2, 2, 'test_a'), (3, 3, 'test_c')`,
	`INSERT INTO test_results (build_id, system_id, test_name_id, return_code, stderr, runtime) VALUES
		(1, 2, 1, 0, '', 1.5),
		(1, 2, 2, 2, 'boom', 0.25),
		(2, 2, 1, 0, '', 1.0),
		(2, 2, 2, 0, '', 0.5),
		(3, 2, 1, 0, '', 2.0),
		(2, 3, 3, 1, 'failed', 3.0)`,
}

var fixtureDocs = map[string]map[string]string{
	"sys1": {
		metadata.DocDescriptor: "title: sys1 title\npmid: \"1234\"\nprereqs: [modeller]\n",
		metadata.DocRepoInfo:   `{"homepage": "https://sys1.example.org", "description": "first"}`,
	},
	"sys2": {
		metadata.DocDescriptor: "title: sys2 title\nprereqs: [python/scikit, gcc]\n",
	},
	"sys3": {
		metadata.DocDescriptor: "title: sys3 title\n",
	},
}

func openSeededDB(t *testing.T) *results.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "core.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	for _, stmt := range seedStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
	return results.NewStore(db, results.DialectSQLite)
}

func publishDocs(t *testing.T, store blob.Store, docs map[string]map[string]string) {
	t.Helper()
	w := metadata.NewWriter(store, nil)
	for system, byDoc := range docs {
		for doc, body := range byDoc {
			if err := w.Publish(context.Background(), system, doc, []byte(body)); err != nil {
				t.Fatalf("publish %s/%s: %v", system, doc, err)
			}
		}
	}
}

func newTestService(t *testing.T, docs map[string]map[string]string, opts ...Option) (*Service, blob.Store) {
	t.Helper()
	blobs := blob.NewMemory()
	publishDocs(t, blobs, docs)
	return NewService(openSeededDB(t), metadata.NewSource(blobs), opts...), blobs
}

func withSession(t *testing.T, svc *Service, fn func(*results.Session)) {
	t.Helper()
	if err := svc.WithSession(context.Background(), func(sess *results.Session) error {
		fn(sess)
		return nil
	}); err != nil {
		t.Fatalf("session: %v", err)
	}
}
