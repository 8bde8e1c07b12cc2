// Package metadata reads the per-system descriptor documents from the blob
// store and caches the fields derived from them.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"buildhealth/internal/blob"
	"buildhealth/pkg/domain"
)

// Read outcomes reported to a DocumentObserver.
const (
	OutcomeLoaded = "loaded"
	OutcomeAbsent = "absent"
	OutcomeError  = "error"
)

// DocumentObserver is told about every document read.
type DocumentObserver interface {
	ObserveDocument(document, outcome string)
}

// Source reads raw documents for a system. It applies no caching of its own.
type Source struct {
	store    blob.Store
	logger   *slog.Logger
	observer DocumentObserver
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLogger sets the logger for document reads.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDocumentObserver records document read outcomes.
func WithDocumentObserver(o DocumentObserver) SourceOption {
	return func(s *Source) { s.observer = o }
}

// NewSource reads documents from store.
func NewSource(store blob.Store, opts ...SourceOption) *Source {
	s := &Source{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// read fetches one document. An absent document is (nil, false, nil).
func (s *Source) read(ctx context.Context, system, doc string) ([]byte, bool, error) {
	start := time.Now()
	_, rc, err := s.store.Get(ctx, Key(system, doc))
	if errors.Is(err, blob.ErrNotFound) {
		s.observe(doc, OutcomeAbsent)
		s.logger.Debug("metadata document absent", "system", system, "document", doc)
		return nil, false, nil
	}
	if err != nil {
		s.observe(doc, OutcomeError)
		return nil, false, &domain.MetadataError{System: system, Document: doc, Err: err}
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		s.observe(doc, OutcomeError)
		return nil, false, &domain.MetadataError{System: system, Document: doc, Err: err}
	}
	s.observe(doc, OutcomeLoaded)
	s.logger.Debug("metadata document loaded", "system", system, "document", doc, "bytes", len(data), "elapsed", time.Since(start))
	return data, true, nil
}

func (s *Source) observe(doc, outcome string) {
	if s.observer != nil {
		s.observer.ObserveDocument(doc, outcome)
	}
}

func malformed(system, doc string, err error) error {
	return &domain.MetadataError{System: system, Document: doc, Err: fmt.Errorf("%w: %v", domain.ErrMalformedMetadata, err)}
}

// Descriptor loads the structured descriptor. Unlike the other documents it is
// required: absence fails with ErrMissingMetadata.
func (s *Source) Descriptor(ctx context.Context, system string) (Descriptor, error) {
	data, ok, err := s.read(ctx, system, DocDescriptor)
	if err != nil {
		return Descriptor{}, err
	}
	if !ok {
		return Descriptor{}, &domain.MetadataError{System: system, Document: DocDescriptor, Err: domain.ErrMissingMetadata}
	}
	d, err := parseDescriptor(data)
	if err != nil {
		return Descriptor{}, malformed(system, DocDescriptor, err)
	}
	return d, nil
}

// RepoInfo loads the repository-info document; ok is false when absent.
func (s *Source) RepoInfo(ctx context.Context, system string) (RepoInfo, bool, error) {
	data, ok, err := s.read(ctx, system, DocRepoInfo)
	if err != nil || !ok {
		return RepoInfo{}, false, err
	}
	info, err := parseRepoInfo(data)
	if err != nil {
		return RepoInfo{}, false, malformed(system, DocRepoInfo, err)
	}
	return info, true, nil
}

// Citation loads the publication reference; ok is false when absent.
func (s *Source) Citation(ctx context.Context, system string) (Reference, bool, error) {
	data, ok, err := s.read(ctx, system, DocCitation)
	if err != nil || !ok {
		return Reference{}, false, err
	}
	ref, err := parseCitation(data)
	if err != nil {
		return Reference{}, false, malformed(system, DocCitation, err)
	}
	return ref, true, nil
}

// Readme loads the long-form blurb; absent yields "".
func (s *Source) Readme(ctx context.Context, system string) (string, error) {
	data, ok, err := s.read(ctx, system, DocReadme)
	if err != nil || !ok {
		return "", err
	}
	return string(data), nil
}

// HasThumbnail checks the conventional thumbnail path.
func (s *Source) HasThumbnail(ctx context.Context, system string) (bool, error) {
	_, err := s.store.Head(ctx, Key(system, DocThumbnail))
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return false, nil
	case err != nil:
		return false, &domain.MetadataError{System: system, Document: DocThumbnail, Err: err}
	}
	return true, nil
}

// ThumbnailURL returns a fetchable URL for the thumbnail. ok is false when
// there is no thumbnail or the backend cannot hand out URLs.
func (s *Source) ThumbnailURL(ctx context.Context, system string, expiry time.Duration) (string, bool, error) {
	has, err := s.HasThumbnail(ctx, system)
	if err != nil || !has {
		return "", false, err
	}
	url, err := s.store.PresignURL(ctx, Key(system, DocThumbnail), blob.SignedURLOptions{Method: "GET", Expiry: expiry})
	if errors.Is(err, blob.ErrUnsupported) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &domain.MetadataError{System: system, Document: DocThumbnail, Err: err}
	}
	return url, true, nil
}

// Systems lists the namespaces present in the store, sorted.
func (s *Source) Systems(ctx context.Context) ([]string, error) {
	infos, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[string]struct{})
	for _, info := range infos {
		name, _, ok := strings.Cut(info.Key, "/")
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
