package results

import (
	"context"
	"sort"

	"buildhealth/internal/lazy"
	"buildhealth/pkg/domain"
)

// DetailSource serves the on-demand detail behind a Result. *Session
// implements it.
type DetailSource interface {
	Tests(ctx context.Context, systemID, buildID int64) ([]domain.Test, error)
	ResultInfo(ctx context.Context, systemID, buildID int64) (*domain.ResultInfo, error)
}

// Result is the collapsed outcome of one system within one build.
type Result struct {
	Build    *domain.Build `json:"build"`
	Passed   bool          `json:"passed"`
	SystemID int64         `json:"system_id"`

	info lazy.Cell[*domain.ResultInfo]
}

// Info returns the supplementary details, querying src only on first use.
// A nil value means none were recorded.
func (r *Result) Info(ctx context.Context, src DetailSource) (*domain.ResultInfo, error) {
	return r.info.Get(func() (*domain.ResultInfo, error) {
		return src.ResultInfo(ctx, r.SystemID, r.Build.ID)
	})
}

// Tests enumerates the individual test outcomes. It always queries src.
func (r *Result) Tests(ctx context.Context, src DetailSource) ([]domain.Test, error) {
	return src.Tests(ctx, r.SystemID, r.Build.ID)
}

// History is one system's results grouped by canonical branch, each list
// ordered by build date ascending (ties broken by build id).
type History struct {
	byBranch map[domain.Branch][]*Result
}

// NewHistory returns an empty history with every tracked branch present.
func NewHistory() *History {
	h := &History{byBranch: make(map[domain.Branch][]*Result, len(domain.AllBranches))}
	for _, b := range domain.AllBranches {
		h.byBranch[b] = nil
	}
	return h
}

// Add inserts r in date order under its canonical branch. A second result for
// the same build is an integrity violation.
func (h *History) Add(r *Result) error {
	branch := r.Build.Branch.Canonical()
	list := h.byBranch[branch]
	for _, existing := range list {
		if existing.Build.ID == r.Build.ID {
			return integrity("system %d: duplicate result for build %d", r.SystemID, r.Build.ID)
		}
	}
	i := sort.Search(len(list), func(i int) bool { return buildAfter(list[i].Build, r.Build) })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = r
	h.byBranch[branch] = list
	return nil
}

func buildAfter(a, b *domain.Build) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID > b.ID
}

// Results returns the ordered results for branch. The legacy spelling of a
// branch resolves to its canonical history.
func (h *History) Results(branch domain.Branch) []*Result {
	return h.byBranch[branch.Canonical()]
}

// Latest returns the most recent result on branch, if any.
func (h *History) Latest(branch domain.Branch) (*Result, bool) {
	list := h.Results(branch)
	if len(list) == 0 {
		return nil, false
	}
	return list[len(list)-1], true
}

// LatestByBranch maps each branch with at least one result to its latest one.
func (h *History) LatestByBranch() map[domain.Branch]*Result {
	out := make(map[domain.Branch]*Result, len(h.byBranch))
	for b := range h.byBranch {
		if r, ok := h.Latest(b); ok {
			out[b] = r
		}
	}
	return out
}

// Branches lists the branch keys held, canonical branches first.
func (h *History) Branches() []domain.Branch {
	out := make([]domain.Branch, 0, len(h.byBranch))
	for b := range h.byBranch {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return branchLess(out[i], out[j]) })
	return out
}

// branchLess orders canonical branches by display rank, then others by name.
func branchLess(a, b domain.Branch) bool {
	ra, rb := branchRank(a), branchRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func branchRank(b domain.Branch) int {
	for i, known := range domain.AllBranches {
		if b == known {
			return i
		}
	}
	return len(domain.AllBranches)
}

// InDevelopment reports whether the system has no result on any branch.
func (h *History) InDevelopment() bool {
	for _, list := range h.byBranch {
		if len(list) > 0 {
			return false
		}
	}
	return true
}

// Aggregator turns store rows into Results, sharing one *domain.Build per
// build id across every system it sees.
type Aggregator struct {
	builds map[int64]*domain.Build
}

// NewAggregator returns an aggregator with an empty build table.
func NewAggregator() *Aggregator {
	return &Aggregator{builds: make(map[int64]*domain.Build)}
}

// Build returns the shared instance for b.ID, registering b on first sight.
func (a *Aggregator) Build(b domain.Build) *domain.Build {
	if shared, ok := a.builds[b.ID]; ok {
		return shared
	}
	b.Branch = b.Branch.Canonical()
	shared := &b
	a.builds[b.ID] = shared
	return shared
}

func (a *Aggregator) result(row Row) *Result {
	return &Result{Build: a.Build(row.Build), Passed: row.Passed(), SystemID: row.SystemID}
}

// Attach appends each row's result to the history of its system. Rows for
// systems absent from histories are skipped. It returns the number attached.
func (a *Aggregator) Attach(rows []Row, histories map[int64]*History) (int, error) {
	n := 0
	for _, row := range rows {
		h, ok := histories[row.SystemID]
		if !ok {
			continue
		}
		if err := h.Add(a.result(row)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Single collapses the rows of a single-build query into at most one result
// per system. Systems with no row are simply absent from the map.
func (a *Aggregator) Single(rows []Row, buildID int64) (map[int64]*Result, error) {
	out := make(map[int64]*Result, len(rows))
	for _, row := range rows {
		if row.Build.ID != buildID {
			return nil, integrity("asked for build %d, store returned build %d", buildID, row.Build.ID)
		}
		if _, dup := out[row.SystemID]; dup {
			return nil, integrity("system %d has more than one result for build %d", row.SystemID, buildID)
		}
		out[row.SystemID] = a.result(row)
	}
	return out, nil
}
