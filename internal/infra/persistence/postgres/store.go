// Package postgres opens the production result store on Postgres through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"buildhealth/internal/schema/sqlbundle"
)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with core.LoadConfig defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/buildhealth?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Options tune Open.
type Options struct {
	// ApplySchema runs the bundled DDL. The ingestion job normally owns the
	// schema, so this is off unless bootstrapping a fresh database.
	ApplySchema bool
	// MaxOpenConns bounds concurrent request sessions; zero leaves the pool default.
	MaxOpenConns int
}

// Open connects to dsn (falling back to defaultDSN) and verifies the
// connection with a ping.
func Open(ctx context.Context, dsn string, opts Options) (*sql.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if opts.ApplySchema {
		if err := applyDDLStatements(ctx, db, sqlbundle.Postgres()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applyDDLStatements(ctx context.Context, db execer, ddl string) error {
	for _, stmt := range sqlbundle.SplitStatements(ddl) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
