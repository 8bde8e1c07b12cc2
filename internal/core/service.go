// Package core composes the result store and the metadata source into
// Systems and exposes the query surface used by the CLI and web layers.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"buildhealth/internal/blob"
	"buildhealth/internal/metadata"
	"buildhealth/internal/results"
	"buildhealth/pkg/domain"
)

// Service answers system and result queries. Every store call takes the
// caller's request-scoped *results.Session; the Service holds none itself.
type Service struct {
	store   *results.Store
	source  *metadata.Source
	logger  *slog.Logger
	metrics MetricsRecorder
	closers []func() error
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics installs a metrics recorder. Nil keeps the no-op recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService wires an already opened store and metadata source.
func NewService(store *results.Store, source *metadata.Source, opts ...Option) *Service {
	s := &Service{store: store, source: source, logger: slog.Default(), metrics: noopRecorder{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a Service from cfg, connecting the result store and the blob
// store. Close releases the database pool.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	svc := NewService(nil, nil, opts...)
	store, db, err := OpenResultStore(ctx, cfg, results.WithLogger(svc.logger), results.WithObserver(svc.metrics))
	if err != nil {
		return nil, err
	}
	blobs, err := blob.OpenDriver(ctx, cfg.BlobDriver, cfg.BlobFSRoot)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	svc.store = store
	svc.source = metadata.NewSource(blobs, metadata.WithLogger(svc.logger), metadata.WithDocumentObserver(svc.metrics))
	svc.closers = append(svc.closers, db.Close)
	svc.logger.Debug("service opened", "storage", cfg.StorageDriver, "blob", blobs.Driver())
	return svc, nil
}

// Close releases resources acquired by Open.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Source returns the metadata source.
func (s *Service) Source() *metadata.Source { return s.source }

// WithSession runs fn in a fresh request scope, releasing it afterwards.
func (s *Service) WithSession(ctx context.Context, fn func(*results.Session) error) error {
	return s.store.WithSession(ctx, fn)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

func (s *Service) newSystem(row results.SystemRow) *System {
	return &System{
		ID:      row.ID,
		Name:    row.Name,
		Repo:    row.Repo,
		Meta:    metadata.NewCache(s.source, row.Name),
		History: results.NewHistory(),
	}
}

// ListSystems loads every system identity, ordered by id.
func (s *Service) ListSystems(ctx context.Context, sess *results.Session) (_ []*System, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "list_systems", start, err) }()
	rows, err := sess.Systems(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*System, len(rows))
	for i, row := range rows {
		out[i] = s.newSystem(row)
	}
	return out, nil
}

// GetSystem loads one system, failing with ErrSystemNotFound.
func (s *Service) GetSystem(ctx context.Context, sess *results.Session, id int64) (_ *System, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "get_system", start, err) }()
	rows, err := sess.Systems(ctx, &id)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("system %d: %w", id, domain.ErrSystemNotFound)
	case 1:
		return s.newSystem(rows[0]), nil
	default:
		return nil, &domain.IntegrityError{Detail: fmt.Sprintf("%d identity rows for system %d", len(rows), id)}
	}
}

// aggregateQuery narrows at the query level only for exactly one system;
// with many systems every row is fetched and unknown ids are skipped.
func aggregateQuery(systems []*System, buildID *int64) results.AggregateQuery {
	q := results.AggregateQuery{BuildID: buildID}
	if len(systems) == 1 {
		id := systems[0].ID
		q.SystemID = &id
	}
	return q
}

func histories(systems []*System) map[int64]*results.History {
	out := make(map[int64]*results.History, len(systems))
	for _, sys := range systems {
		out[sys.ID] = sys.History
	}
	return out
}

// AttachLatestResults fills each system's per-branch history from the store.
func (s *Service) AttachLatestResults(ctx context.Context, sess *results.Session, systems []*System) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "attach_latest_results", start, err) }()
	if len(systems) == 0 {
		return nil
	}
	rows, err := sess.Aggregate(ctx, aggregateQuery(systems, nil))
	if err != nil {
		return err
	}
	n, err := results.NewAggregator().Attach(rows, histories(systems))
	if err != nil {
		return err
	}
	s.logger.Debug("attached results", "systems", len(systems), "rows", len(rows), "attached", n)
	return nil
}

// AttachBuildResult attaches the single result of buildID to each system that
// took part in it. Systems absent from the build get no entry in the map. A
// result already attached to a System's history is returned as is.
func (s *Service) AttachBuildResult(ctx context.Context, sess *results.Session, systems []*System, buildID int64) (_ map[int64]*results.Result, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "attach_build_result", start, err) }()
	if len(systems) == 0 {
		return map[int64]*results.Result{}, nil
	}
	rows, err := sess.Aggregate(ctx, aggregateQuery(systems, &buildID))
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*System, len(systems))
	for _, sys := range systems {
		byID[sys.ID] = sys
	}
	all, err := results.NewAggregator().Single(rows, buildID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*results.Result, len(all))
	for id, r := range all {
		sys, ok := byID[id]
		if !ok {
			continue
		}
		if attached, ok := sys.Result(buildID); ok {
			out[id] = attached
			continue
		}
		if err := sys.History.Add(r); err != nil {
			return nil, err
		}
		out[id] = r
	}
	return out, nil
}

// TestDetail enumerates the tests of one (system, build) pair.
func (s *Service) TestDetail(ctx context.Context, sess *results.Session, systemID, buildID int64) (_ []domain.Test, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "test_detail", start, err) }()
	return sess.Tests(ctx, systemID, buildID)
}

// Summary is the flat listing shape served to API clients.
type Summary struct {
	Name         string   `json:"name"`
	Repo         string   `json:"repo"`
	PMID         *string  `json:"pmid"`
	Homepage     string   `json:"homepage"`
	CondaPrereqs []string `json:"conda_prereqs"`
}

// ListSummaries lists every system with the metadata used by API clients.
func (s *Service) ListSummaries(ctx context.Context, sess *results.Session) (_ []Summary, err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "list_summaries", start, err) }()
	systems, err := s.ListSystems(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(systems))
	for _, sys := range systems {
		sum, err := summarize(ctx, sys)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

func summarize(ctx context.Context, sys *System) (Summary, error) {
	sum := Summary{Name: sys.Name, Repo: sys.Repo}
	pmid, ok, err := sys.Meta.PMID(ctx)
	if err != nil {
		return Summary{}, err
	}
	if ok {
		sum.PMID = &pmid
	}
	if sum.Homepage, err = sys.Meta.Homepage(ctx); err != nil {
		return Summary{}, err
	}
	if sum.CondaPrereqs, err = sys.Meta.CondaPackages(ctx); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// WarmMetadata preloads the cached metadata facets of systems using up to
// workers goroutines, each System handled by exactly one of them. Per-system
// metadata problems are logged and returned joined; they do not stop the
// other systems. Cancellation of ctx stops scheduling further work.
func (s *Service) WarmMetadata(ctx context.Context, systems []*System, workers int) (err error) {
	start := time.Now()
	defer func() { s.observe(ctx, "warm_metadata", start, err) }()
	if workers < 1 {
		workers = 1
	}
	var (
		mu   sync.Mutex
		errs []error
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sys := range systems {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if werr := warm(gCtx, sys); werr != nil {
				s.logger.Warn("metadata warm-up failed", "system", sys.Name, "error", werr)
				mu.Lock()
				errs = append(errs, werr)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func warm(ctx context.Context, sys *System) error {
	c := sys.Meta
	if _, err := c.Title(ctx); err != nil {
		return err
	}
	if _, err := c.Prerequisites(ctx); err != nil {
		return err
	}
	if _, err := c.Description(ctx); err != nil {
		return err
	}
	if _, _, err := c.Citation(ctx); err != nil {
		return err
	}
	_, err := c.Readme(ctx)
	return err
}
