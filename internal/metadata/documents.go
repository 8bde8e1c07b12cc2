package metadata

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document names within a system's namespace.
const (
	DocDescriptor = "metadata.yaml"
	DocRepoInfo   = "github.json"
	DocCitation   = "pubmed.json"
	DocReadme     = "readme.html"
	DocThumbnail  = "thumb.png"
)

// Documents lists every document a namespace may hold, in publish order.
var Documents = []string{DocDescriptor, DocRepoInfo, DocCitation, DocReadme, DocThumbnail}

var contentTypes = map[string]string{
	DocDescriptor: "application/yaml",
	DocRepoInfo:   "application/json",
	DocCitation:   "application/json",
	DocReadme:     "text/html; charset=utf-8",
	DocThumbnail:  "image/png",
}

// Key returns the blob key of document doc for system.
func Key(system, doc string) string { return system + "/" + doc }

// Descriptor is the structured per-system descriptor.
type Descriptor struct {
	Title      string     `yaml:"title"`
	PMID       scalarText `yaml:"pmid"`
	Tags       []string   `yaml:"tags"`
	Accessions []string   `yaml:"accessions"`
	Prereqs    []string   `yaml:"prereqs"`
}

// scalarText accepts any YAML scalar (publication ids are written both as
// numbers and as quoted strings). Null leaves it unset.
type scalarText struct {
	Value string
	Set   bool
}

func (s *scalarText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*s = scalarText{}
		return nil
	}
	*s = scalarText{Value: node.Value, Set: true}
	return nil
}

// parseDescriptor rejects documents that are empty (or only comments) as well
// as ones that do not decode into a mapping.
func parseDescriptor(data []byte) (Descriptor, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Descriptor{}, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return Descriptor{}, fmt.Errorf("empty document")
	}
	doc := root.Content[0]
	if doc.Kind == yaml.ScalarNode && doc.Tag == "!!null" {
		return Descriptor{}, fmt.Errorf("empty document")
	}
	if doc.Kind != yaml.MappingNode {
		return Descriptor{}, fmt.Errorf("expected a mapping, got %s", kindName(doc.Kind))
	}
	var d Descriptor
	if err := doc.Decode(&d); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind %d", k)
	}
}

// RepoInfo is the subset of the repository-info snapshot the core reads.
type RepoInfo struct {
	Homepage      string `json:"homepage"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
	Description   string `json:"description"`
	// LastModified is the refresh job's conditional-fetch marker.
	LastModified string `json:"Last-Modified,omitempty"`
}

func parseRepoInfo(data []byte) (RepoInfo, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return RepoInfo{}, fmt.Errorf("empty document")
	}
	// Fields may be JSON null upstream; null decodes to the zero string.
	var info RepoInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return RepoInfo{}, err
	}
	return info, nil
}

// Reference is one publication summary from the citation document.
type Reference struct {
	Authors []Author `json:"authors"`
	Source  string   `json:"source"`
	Volume  string   `json:"volume"`
	PubDate string   `json:"pubdate"`
}

// Author is one entry of a publication's author list.
type Author struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}

// parseCitation reads the esummary envelope: result.uids names the key of the
// reference record inside result.
func parseCitation(data []byte) (Reference, error) {
	var envelope struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Reference{}, err
	}
	if envelope.Result == nil {
		return Reference{}, fmt.Errorf("missing result")
	}
	var uids []string
	if raw, ok := envelope.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return Reference{}, fmt.Errorf("uids: %w", err)
		}
	}
	if len(uids) == 0 {
		return Reference{}, fmt.Errorf("no uids")
	}
	raw, ok := envelope.Result[uids[0]]
	if !ok {
		return Reference{}, fmt.Errorf("no record for uid %s", uids[0])
	}
	var ref Reference
	if err := json.Unmarshal(raw, &ref); err != nil {
		return Reference{}, fmt.Errorf("record %s: %w", uids[0], err)
	}
	return ref, nil
}
