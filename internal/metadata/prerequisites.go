package metadata

import "strings"

// CorePrerequisite is implicitly required by every system.
const CorePrerequisite = "imp"

// Prerequisite is one resolvable external dependency.
type Prerequisite struct {
	// Key is the descriptor spelling, also the environment-module name.
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
	// CondaPackage is empty when the dependency is not installable with conda.
	CondaPackage   string `json:"conda_package,omitempty"`
	SalilabChannel bool   `json:"salilab_channel"`
	// LegacyRuntimeOnly forces the python2 module family for the whole system.
	LegacyRuntimeOnly bool `json:"legacy_runtime_only"`
}

// ModuleName renders the environment-module name using the given python
// family prefix ("python2/" or "python3/").
func (p Prerequisite) ModuleName(family string) string {
	return strings.Replace(p.Key, pythonFamily, family, 1)
}

const (
	pythonFamily  = "python/"
	legacyFamily  = "python2/"
	currentFamily = "python3/"
)

// legacyRuntimeSystems never moved off the second-generation runtime.
var legacyRuntimeSystems = map[string]struct{}{
	"fly_genome":          {},
	"saxsmerge_benchmark": {},
}

var prerequisites = map[string]Prerequisite{
	"imp":               {Name: "IMP", URL: "https://integrativemodeling.org/", CondaPackage: "imp", SalilabChannel: true},
	"modeller":          {Name: "MODELLER", URL: "https://salilab.org/modeller/", CondaPackage: "modeller", SalilabChannel: true},
	"python/scikit":     {Name: "scikit-learn", URL: "http://scikit-learn.org/stable/", CondaPackage: "scikit-learn"},
	"python/matplotlib": {Name: "matplotlib", URL: "http://matplotlib.org/", CondaPackage: "matplotlib"},
	"python/numpy":      {Name: "numpy", URL: "http://www.numpy.org/", CondaPackage: "numpy"},
	"python/scipy":      {Name: "scipy", URL: "https://www.scipy.org/", CondaPackage: "scipy"},
	// The packaged protobuf bindings only ever shipped for the python2 runtime.
	"python/protobuf":   {Name: "protobuf", URL: "https://github.com/google/protobuf", CondaPackage: "protobuf", LegacyRuntimeOnly: true},
	"python/biopython":  {Name: "biopython", URL: "http://biopython.org/", CondaPackage: "biopython"},
	"python/pyparsing":  {Name: "pyparsing", URL: "https://pypi.python.org/pypi/pyparsing/2.0.3", CondaPackage: "pyparsing"},
	"python/argparse":   {Name: "argparse", URL: "https://pypi.python.org/pypi/argparse", CondaPackage: "argparse"},
	"allosmod":          {Name: "allosmod", URL: "https://github.com/salilab/allosmod-lib", SalilabChannel: true},
	"gcc":               {Name: "gcc", URL: "https://gcc.gnu.org/"},
}

// LookupPrerequisite resolves a descriptor key.
func LookupPrerequisite(key string) (Prerequisite, bool) {
	p, ok := prerequisites[key]
	if !ok {
		return Prerequisite{}, false
	}
	p.Key = key
	return p, true
}

// usesLegacyRuntime applies the all-or-nothing per-system rule.
func usesLegacyRuntime(system string, reqs []Prerequisite) bool {
	if _, ok := legacyRuntimeSystems[system]; ok {
		return true
	}
	for _, p := range reqs {
		if p.LegacyRuntimeOnly {
			return true
		}
	}
	return false
}
