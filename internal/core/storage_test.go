package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"buildhealth/internal/infra/persistence/postgres"
	"buildhealth/internal/infra/persistence/postgres/testutil"
	"buildhealth/internal/results"
	"buildhealth/pkg/domain"
)

func TestOpenResultStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := Config{StorageDriver: StorageSQLite, SQLitePath: filepath.Join(t.TempDir(), "nested", "health.db")}
	store, db, err := OpenResultStore(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	if store.Dialect() != results.DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %v", store.Dialect())
	}
	err = store.WithSession(ctx, func(sess *results.Session) error {
		rows, err := sess.Systems(ctx, nil)
		if err != nil {
			return err
		}
		if len(rows) != 0 {
			t.Fatalf("expected empty store, got %v", rows)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
}

func TestOpenResultStorePostgresUsesNumberedPlaceholders(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != "pgx" || dsn != "postgres://db/health" {
			t.Fatalf("unexpected open %q %q", driverName, dsn)
		}
		return db, nil
	})
	defer restore()

	when := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	conn.Respond("MAX(t.return_code)",
		[]string{"system_id", "id", "branch", "build_date", "version", "commit_hash", "environment_tag", "max"},
		[]driver.Value{int64(2), int64(5), "master", when, "2.18.0", "abc", nil, int64(0)},
	)

	ctx := context.Background()
	store, _, err := OpenResultStore(ctx, Config{StorageDriver: StoragePostgres, PostgresDSN: "postgres://db/health"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(conn.Execs) != 0 {
		t.Fatalf("schema must not be applied by default")
	}
	var rows []results.Row
	err = store.WithSession(ctx, func(sess *results.Session) error {
		var err error
		rows, err = sess.Aggregate(ctx, results.AggregateQuery{SystemID: int64Ptr(2), BuildID: int64Ptr(5)})
		return err
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(rows) != 1 || rows[0].Build.Branch != domain.BranchMain || !rows[0].Build.Date.Equal(when) {
		t.Fatalf("unexpected rows %+v", rows)
	}

	var agg testutil.Query
	for _, q := range conn.Recorded() {
		if strings.Contains(q.SQL, "MAX(t.return_code)") {
			agg = q
		}
	}
	if !strings.Contains(agg.SQL, "t.system_id = $1 AND t.build_id = $2") {
		t.Fatalf("expected numbered placeholders, got:\n%s", agg.SQL)
	}
	if diff := cmp.Diff([]any{int64(2), int64(5)}, agg.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenResultStoreRejectsUnknownDriver(t *testing.T) {
	_, _, err := OpenResultStore(context.Background(), Config{StorageDriver: "mongo"})
	if err == nil || !strings.Contains(err.Error(), "unknown storage driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func int64Ptr(v int64) *int64 { return &v }
