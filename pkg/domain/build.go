// Package domain holds the shared build/test vocabulary used by the result
// store, the aggregator and the system service.
package domain

import (
	"fmt"
	"time"
)

// Branch identifies a tracked source line.
type Branch string

const (
	// BranchMain is the primary release line.
	BranchMain Branch = "main"
	// BranchDevelop is the integration line.
	BranchDevelop Branch = "develop"
	// BranchLegacyMain is the old spelling of BranchMain still found in historic rows.
	BranchLegacyMain Branch = "master"
)

// AllBranches lists the canonical branches in display order.
var AllBranches = []Branch{BranchMain, BranchDevelop}

// ParseBranch maps a stored branch name to its canonical spelling.
func ParseBranch(name string) (Branch, error) {
	switch Branch(name) {
	case BranchMain, BranchLegacyMain:
		return BranchMain, nil
	case BranchDevelop:
		return BranchDevelop, nil
	default:
		return "", fmt.Errorf("unknown branch %q", name)
	}
}

// Canonical returns the canonical spelling of b. Unknown names pass through
// unchanged so lookups with them simply miss.
func (b Branch) Canonical() Branch {
	if b == BranchLegacyMain {
		return BranchMain
	}
	return b
}

// Build is one run of the full test matrix for every system on one branch.
// Builds are immutable and shared by pointer across the results of all
// systems that took part in them.
type Build struct {
	ID     int64     `json:"id"`
	Branch Branch    `json:"branch"`
	Date   time.Time `json:"date"`
	// Version is nil for in-development toolchain builds.
	Version        *string `json:"version,omitempty"`
	CommitHash     string  `json:"commit_hash"`
	EnvironmentTag string  `json:"environment_tag,omitempty"`
}

// Test is the outcome of one named check within a system's result.
type Test struct {
	Name       string  `json:"name"`
	ReturnCode int     `json:"return_code"`
	Stderr     string  `json:"stderr"`
	Runtime    float64 `json:"runtime_seconds"`
}

// Passed reports whether the check exited cleanly.
func (t Test) Passed() bool { return t.ReturnCode == 0 }

// ResultInfo carries supplementary per-(system, build) details.
type ResultInfo struct {
	// URL points at the build artifacts, if any were published.
	URL string `json:"url,omitempty"`
	// UsesOptionalDependency is set when the run used the heavy optional dependency.
	UsesOptionalDependency bool `json:"uses_optional_dependency"`
	// Flavor names the build type (fast, debug, release...).
	Flavor string `json:"flavor,omitempty"`
}
