package domain

import (
	"errors"
	"testing"
)

func TestParseBranch(t *testing.T) {
	cases := []struct {
		in      string
		want    Branch
		wantErr bool
	}{
		{"main", BranchMain, false},
		{"master", BranchMain, false},
		{"develop", BranchDevelop, false},
		{"feature/x", "", true},
		{"", "", true},
		{"Main", "", true},
	}
	for _, c := range cases {
		got, err := ParseBranch(c.in)
		if (err != nil) != c.wantErr || got != c.want {
			t.Fatalf("ParseBranch(%q) = %q, %v", c.in, got, err)
		}
	}
}

func TestBranchCanonical(t *testing.T) {
	if BranchLegacyMain.Canonical() != BranchMain {
		t.Fatalf("master must alias main")
	}
	if BranchDevelop.Canonical() != BranchDevelop {
		t.Fatalf("develop must be canonical")
	}
	if Branch("other").Canonical() != "other" {
		t.Fatalf("unknown names pass through")
	}
	for _, b := range AllBranches {
		if b.Canonical() != b {
			t.Fatalf("AllBranches must only list canonical names, got %q", b)
		}
	}
}

func TestTestPassed(t *testing.T) {
	if !(Test{ReturnCode: 0}).Passed() || (Test{ReturnCode: 3}).Passed() {
		t.Fatalf("only return code zero passes")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	cases := []struct {
		name   string
		err    error
		target error
	}{
		{"unavailable", &UnavailableError{Op: "aggregate", Err: cause}, ErrStoreUnavailable},
		{"unavailable cause", &UnavailableError{Op: "aggregate", Err: cause}, cause},
		{"integrity", &IntegrityError{Detail: "two rows"}, ErrIntegrity},
		{"missing", &MetadataError{System: "s", Document: "metadata.yaml", Err: ErrMissingMetadata}, ErrMissingMetadata},
		{"malformed", &MetadataError{System: "s", Document: "github.json", Err: ErrMalformedMetadata}, ErrMalformedMetadata},
		{"prereq", &PrerequisiteError{System: "s", Key: "nope"}, ErrUnknownPrerequisite},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.target) {
			t.Fatalf("%s: %v does not match %v", c.name, c.err, c.target)
		}
		if c.err.Error() == "" {
			t.Fatalf("%s: empty message", c.name)
		}
	}
	if errors.Is(&IntegrityError{}, ErrStoreUnavailable) {
		t.Fatalf("integrity must not read as unavailable")
	}
	var pe *PrerequisiteError
	if !errors.As(error(&PrerequisiteError{System: "s", Key: "k"}), &pe) || pe.Key != "k" {
		t.Fatalf("errors.As should recover the key")
	}
}
