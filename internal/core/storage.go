package core

import (
	"context"
	"database/sql"
	"fmt"

	"buildhealth/internal/infra/persistence/postgres"
	"buildhealth/internal/infra/persistence/sqlite"
	"buildhealth/internal/results"
)

// OpenResultStore connects the configured backend and wraps it in a
// results.Store speaking the matching dialect. The returned *sql.DB is owned
// by the caller.
func OpenResultStore(ctx context.Context, cfg Config, opts ...results.Option) (*results.Store, *sql.DB, error) {
	switch cfg.StorageDriver {
	case StorageSQLite, "":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return results.NewStore(db, results.DialectSQLite, opts...), db, nil
	case StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.Options{
			ApplySchema:  cfg.PostgresApplySchema,
			MaxOpenConns: cfg.PostgresMaxConns,
		})
		if err != nil {
			return nil, nil, err
		}
		return results.NewStore(db, results.DialectPostgres, opts...), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", cfg.StorageDriver)
	}
}
