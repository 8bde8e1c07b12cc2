package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"buildhealth/internal/blob"
)

// Writer publishes metadata snapshots into the blob store. Each document is
// replaced as a whole, so a Cache never observes a partial write.
type Writer struct {
	store  blob.Store
	logger *slog.Logger
}

// NewWriter publishes into store. A nil logger uses slog.Default().
func NewWriter(store blob.Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: store, logger: logger}
}

// Publish validates and stores one document. Documents that the core parses
// are rejected with ErrMalformedMetadata rather than published corrupt.
func (w *Writer) Publish(ctx context.Context, system, doc string, data []byte) error {
	if strings.TrimSpace(system) == "" || strings.ContainsAny(system, `/\`) {
		return fmt.Errorf("invalid system name %q", system)
	}
	contentType, ok := contentTypes[doc]
	if !ok {
		return fmt.Errorf("unknown metadata document %q", doc)
	}
	if err := validate(doc, data); err != nil {
		return malformed(system, doc, err)
	}
	info, err := w.store.Put(ctx, Key(system, doc), bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("publish %s: %w", Key(system, doc), err)
	}
	w.logger.Debug("metadata document published", "system", system, "document", doc, "bytes", info.Size)
	return nil
}

func validate(doc string, data []byte) error {
	var err error
	switch doc {
	case DocDescriptor:
		_, err = parseDescriptor(data)
	case DocRepoInfo:
		_, err = parseRepoInfo(data)
	case DocCitation:
		_, err = parseCitation(data)
	}
	return err
}

// ImportReport summarizes an ImportDir run.
type ImportReport struct {
	Systems   []string `json:"systems"`
	Documents int      `json:"documents"`
	Skipped   []string `json:"skipped,omitempty"`
}

// ImportDir publishes a local tree laid out as <root>/<system>/<document>.
// Unknown files are skipped and reported. The first invalid document aborts
// the import; documents already published stay published.
func (w *Writer) ImportDir(ctx context.Context, root string) (ImportReport, error) {
	var report ImportReport
	entries, err := os.ReadDir(root)
	if err != nil {
		return report, err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		system := entry.Name()
		published := 0
		for _, doc := range Documents {
			data, err := os.ReadFile(filepath.Join(root, system, doc))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return report, err
			}
			if err := w.Publish(ctx, system, doc, data); err != nil {
				return report, err
			}
			published++
		}
		files, err := os.ReadDir(filepath.Join(root, system))
		if err != nil {
			return report, err
		}
		for _, f := range files {
			if _, known := contentTypes[f.Name()]; !known {
				report.Skipped = append(report.Skipped, system+"/"+f.Name())
			}
		}
		if published > 0 {
			report.Systems = append(report.Systems, system)
			report.Documents += published
		}
	}
	w.logger.Info("metadata import finished", "root", root, "systems", len(report.Systems), "documents", report.Documents, "skipped", len(report.Skipped))
	return report, nil
}
