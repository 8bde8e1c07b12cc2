package metadata

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"buildhealth/internal/lazy"
	"buildhealth/pkg/domain"
)

// PDBDevPrefix marks accessions deposited in PDB-Dev.
const PDBDevPrefix = "PDBDEV"

// homepageOverrides replaces known-broken upstream homepage values.
var homepageOverrides = map[string]string{
	"fly_genome": "https://integrativemodeling.org/systems/22",
}

type citationFacet struct {
	text string
	ok   bool
}

// Cache is one System's view of its metadata. Every accessor except
// HasThumbnail and ThumbnailURL loads on first use and then returns the same
// value for the lifetime of the Cache, even if the documents change. A failed
// load is not remembered. A Cache must not be used by two goroutines at once.
type Cache struct {
	source *Source
	system string

	descriptor  lazy.Cell[Descriptor]
	repo        lazy.Cell[RepoInfo]
	citation    lazy.Cell[citationFacet]
	readme      lazy.Cell[string]
	description lazy.Cell[string]
	prereqs     lazy.Cell[[]Prerequisite]
}

// NewCache binds a cache to the namespace of system.
func NewCache(source *Source, system string) *Cache {
	return &Cache{source: source, system: system}
}

// System returns the namespace the cache reads.
func (c *Cache) System() string { return c.system }

func (c *Cache) loadDescriptor(ctx context.Context) (Descriptor, error) {
	return c.descriptor.Get(func() (Descriptor, error) {
		return c.source.Descriptor(ctx, c.system)
	})
}

// loadRepo yields the zero RepoInfo when the document is absent.
func (c *Cache) loadRepo(ctx context.Context) (RepoInfo, error) {
	return c.repo.Get(func() (RepoInfo, error) {
		info, _, err := c.source.RepoInfo(ctx, c.system)
		return info, err
	})
}

// Title is the required descriptor title.
func (c *Cache) Title(ctx context.Context) (string, error) {
	d, err := c.loadDescriptor(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(d.Title) == "" {
		return "", malformed(c.system, DocDescriptor, errors.New("no title"))
	}
	return d.Title, nil
}

// PMID is the publication id; ok is false when the descriptor has none.
func (c *Cache) PMID(ctx context.Context) (string, bool, error) {
	d, err := c.loadDescriptor(ctx)
	if err != nil {
		return "", false, err
	}
	return d.PMID.Value, d.PMID.Set, nil
}

// Tags defaults to an empty list.
func (c *Cache) Tags(ctx context.Context) ([]string, error) {
	d, err := c.loadDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	return cloneStrings(d.Tags), nil
}

// Accessions defaults to an empty list.
func (c *Cache) Accessions(ctx context.Context) ([]string, error) {
	d, err := c.loadDescriptor(ctx)
	if err != nil {
		return nil, err
	}
	return cloneStrings(d.Accessions), nil
}

// PDBDevAccessions keeps the accessions carrying PDBDevPrefix, in order.
func (c *Cache) PDBDevAccessions(ctx context.Context) ([]string, error) {
	all, err := c.Accessions(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, a := range all {
		if strings.HasPrefix(a, PDBDevPrefix) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Homepage comes from the repository-info document unless the system is in
// the override list. Empty means unknown.
func (c *Cache) Homepage(ctx context.Context) (string, error) {
	if url, ok := homepageOverrides[c.system]; ok {
		return url, nil
	}
	r, err := c.loadRepo(ctx)
	if err != nil {
		return "", err
	}
	return r.Homepage, nil
}

// CanonicalURL is the repository's web URL. Empty means unknown.
func (c *Cache) CanonicalURL(ctx context.Context) (string, error) {
	r, err := c.loadRepo(ctx)
	if err != nil {
		return "", err
	}
	return r.HTMLURL, nil
}

// DefaultBranch is the repository's default branch. Empty means unknown.
func (c *Cache) DefaultBranch(ctx context.Context) (string, error) {
	r, err := c.loadRepo(ctx)
	if err != nil {
		return "", err
	}
	return r.DefaultBranch, nil
}

// Description is the HTML-safe repository description.
func (c *Cache) Description(ctx context.Context) (string, error) {
	return c.description.Get(func() (string, error) {
		r, err := c.loadRepo(ctx)
		if err != nil {
			return "", err
		}
		return renderDescription(r.Description), nil
	})
}

func renderDescription(raw string) string {
	return strings.ReplaceAll(html.EscapeString(raw), " FRETR ", " FRET<sub>R</sub> ")
}

// Citation is the formatted publication reference; ok is false without a
// citation document.
func (c *Cache) Citation(ctx context.Context) (string, bool, error) {
	f, err := c.citation.Get(func() (citationFacet, error) {
		ref, ok, err := c.source.Citation(ctx, c.system)
		if err != nil || !ok {
			return citationFacet{}, err
		}
		return citationFacet{text: FormatCitation(ref), ok: true}, nil
	})
	return f.text, f.ok, err
}

// Readme is the long-form blurb, "" when absent.
func (c *Cache) Readme(ctx context.Context) (string, error) {
	return c.readme.Get(func() (string, error) {
		return c.source.Readme(ctx, c.system)
	})
}

// Prerequisites resolves CorePrerequisite followed by the descriptor's list.
// Duplicates are kept.
func (c *Cache) Prerequisites(ctx context.Context) ([]Prerequisite, error) {
	reqs, err := c.prereqs.Get(func() ([]Prerequisite, error) {
		d, err := c.loadDescriptor(ctx)
		if err != nil {
			return nil, err
		}
		keys := append([]string{CorePrerequisite}, d.Prereqs...)
		out := make([]Prerequisite, 0, len(keys))
		for _, key := range keys {
			p, ok := LookupPrerequisite(key)
			if !ok {
				return nil, &domain.PrerequisiteError{System: c.system, Key: key}
			}
			out = append(out, p)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]Prerequisite(nil), reqs...), nil
}

// CondaPackages lists the conda package of each prerequisite that has one.
func (c *Cache) CondaPackages(ctx context.Context) ([]string, error) {
	reqs, err := c.Prerequisites(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, p := range reqs {
		if p.CondaPackage != "" {
			out = append(out, p.CondaPackage)
		}
	}
	return out, nil
}

// ModuleNames lists the environment-module name of every prerequisite. The
// python family is chosen once for the whole system.
func (c *Cache) ModuleNames(ctx context.Context) ([]string, error) {
	reqs, err := c.Prerequisites(ctx)
	if err != nil {
		return nil, err
	}
	family := currentFamily
	if usesLegacyRuntime(c.system, reqs) {
		family = legacyFamily
	}
	out := make([]string, len(reqs))
	for i, p := range reqs {
		out[i] = p.ModuleName(family)
	}
	return out, nil
}

// HasThumbnail reflects the store's current state on every call.
func (c *Cache) HasThumbnail(ctx context.Context) (bool, error) {
	return c.source.HasThumbnail(ctx, c.system)
}

// ThumbnailURL is uncached; see Source.ThumbnailURL.
func (c *Cache) ThumbnailURL(ctx context.Context, expiry time.Duration) (string, bool, error) {
	return c.source.ThumbnailURL(ctx, c.system, expiry)
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
