package core

import (
	"buildhealth/internal/metadata"
	"buildhealth/internal/results"
	"buildhealth/pkg/domain"
)

// System is one tracked project: its identity, its metadata and its results.
// A System is not safe for concurrent use; populate distinct Systems from
// distinct goroutines instead.
type System struct {
	ID   int64
	Name string
	Repo string

	Meta    *metadata.Cache
	History *results.History
}

// LatestResults maps each branch with results to its most recent one.
func (s *System) LatestResults() map[domain.Branch]*results.Result {
	return s.History.LatestByBranch()
}

// InDevelopment reports whether the system has no result on any branch.
func (s *System) InDevelopment() bool {
	return s.History.InDevelopment()
}

// Result returns the result of build buildID, if attached.
func (s *System) Result(buildID int64) (*results.Result, bool) {
	for _, b := range s.History.Branches() {
		for _, r := range s.History.Results(b) {
			if r.Build.ID == buildID {
				return r, true
			}
		}
	}
	return nil, false
}
