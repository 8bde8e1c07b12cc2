// Package results reads build outcomes from the relational result store and
// aggregates them into per-system, per-branch histories.
package results

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"buildhealth/pkg/domain"
)

// QueryObserver receives timing for every store query.
type QueryObserver interface {
	ObserveQuery(query string, success bool, duration time.Duration)
}

// Store issues parameterized queries against the result relation. It holds no
// connection itself: every request acquires its own Session.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	logger   *slog.Logger
	observer QueryObserver
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver records query timings.
func WithObserver(o QueryObserver) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore wraps db. The dialect selects placeholder syntax.
func NewStore(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dialect returns the configured SQL dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Acquire opens a request-scoped Session on a dedicated connection. Callers
// must Release it; WithSession does so unconditionally.
func (s *Store) Acquire(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &domain.UnavailableError{Op: "acquire connection", Err: err}
	}
	return &Session{conn: conn, store: s}, nil
}

// WithSession runs fn inside a fresh Session and releases it afterwards,
// including when fn fails or panics.
func (s *Store) WithSession(ctx context.Context, fn func(*Session) error) (err error) {
	sess, err := s.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := sess.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(sess)
}

// Session is one request's view of the store, bound to a single connection.
// It must not be shared between concurrent requests.
type Session struct {
	conn     *sql.Conn
	store    *Store
	released bool
}

// Release returns the connection to the pool. It is safe to call twice.
func (s *Session) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	if err := s.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return err
	}
	return nil
}

// AggregateQuery selects which aggregate rows to fetch. A nil field means
// "no filter".
type AggregateQuery struct {
	// SystemID narrows the query to exactly one system.
	SystemID *int64
	// BuildID narrows the query to exactly one build.
	BuildID *int64
}

func (q AggregateQuery) filter() *filter {
	f := &filter{}
	if q.SystemID != nil {
		f.add("system", "t.system_id", *q.SystemID)
	}
	if q.BuildID != nil {
		f.add("build", "t.build_id", *q.BuildID)
	}
	return f
}

// Systems returns identity rows, all of them or only id when non-nil.
func (s *Session) Systems(ctx context.Context, id *int64) ([]SystemRow, error) {
	f := &filter{}
	if id != nil {
		f.add("id", "id", *id)
	}
	where, args := f.where(s.store.dialect)
	var out []SystemRow
	err := s.query(ctx, "systems", systemsSQL(where), args, func(rows *sql.Rows) error {
		row, err := scanSystem(rows)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// Aggregate returns one row per (build, system, branch) ordered by build date.
func (s *Session) Aggregate(ctx context.Context, q AggregateQuery) ([]Row, error) {
	f := q.filter()
	where, args := f.where(s.store.dialect)
	var out []Row
	err := s.query(ctx, "aggregate", aggregateSQL(where), args, func(rows *sql.Rows) error {
		row, err := scanAggregate(rows)
		if err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	if err == nil {
		s.store.logger.Debug("aggregate results", "filters", f.names(), "rows", len(out))
	}
	return out, err
}

// Tests enumerates the individual test outcomes of one (system, build) pair.
// No rows yields an empty slice.
func (s *Session) Tests(ctx context.Context, systemID, buildID int64) ([]domain.Test, error) {
	out := []domain.Test{}
	err := s.query(ctx, "tests", testsSQL(s.store.dialect), []any{buildID, systemID, systemID}, func(rows *sql.Rows) error {
		t, err := scanTest(rows)
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResultInfo fetches the supplementary details for one (system, build) pair.
// It returns nil when the ingestion job recorded none.
func (s *Session) ResultInfo(ctx context.Context, systemID, buildID int64) (*domain.ResultInfo, error) {
	var info *domain.ResultInfo
	err := s.query(ctx, "result_info", resultInfoSQL(s.store.dialect), []any{systemID, buildID}, func(rows *sql.Rows) error {
		if info != nil {
			return integrity("system %d build %d: duplicate result info", systemID, buildID)
		}
		var (
			url    sql.NullString
			usesOp sql.NullBool
			flavor sql.NullString
		)
		if err := rows.Scan(&url, &usesOp, &flavor); err != nil {
			return integrity("scan result info: %v", err)
		}
		info = &domain.ResultInfo{URL: url.String, UsesOptionalDependency: usesOp.Bool, Flavor: flavor.String}
		return nil
	})
	return info, err
}

// query runs stmt and feeds each row to each. Driver failures surface as
// ErrStoreUnavailable; errors returned by each pass through unchanged.
func (s *Session) query(ctx context.Context, name, stmt string, args []any, each func(*sql.Rows) error) (err error) {
	if s.released {
		return &domain.UnavailableError{Op: name, Err: sql.ErrConnDone}
	}
	start := time.Now()
	defer func() {
		if s.store.observer != nil {
			s.store.observer.ObserveQuery(name, err == nil, time.Since(start))
		}
	}()
	rows, err := s.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return &domain.UnavailableError{Op: name, Err: err}
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &domain.UnavailableError{Op: name, Err: err}
	}
	return nil
}
