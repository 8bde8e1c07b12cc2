package metadata

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"buildhealth/internal/blob"
)

type outcomeLog map[string]int

func (o outcomeLog) ObserveDocument(doc, outcome string) { o[doc+"/"+outcome]++ }

func TestSourceSystemsSortedAndUnique(t *testing.T) {
	store := blob.NewMemory()
	putDoc(t, store, "zeta", DocDescriptor, "title: z\n")
	putDoc(t, store, "alpha", DocDescriptor, "title: a\n")
	putDoc(t, store, "alpha", DocReadme, "hello")

	got, err := NewSource(store).Systems(context.Background())
	if err != nil {
		t.Fatalf("systems: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, got); diff != "" {
		t.Fatalf("systems mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceReportsDocumentOutcomes(t *testing.T) {
	store := blob.NewMemory()
	putDoc(t, store, "sys1", DocDescriptor, "title: t\n")
	putDoc(t, store, "sys1", DocRepoInfo, "not json")
	seen := outcomeLog{}
	src := NewSource(store, WithDocumentObserver(seen))
	ctx := context.Background()

	if _, err := src.Descriptor(ctx, "sys1"); err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if _, _, err := src.Citation(ctx, "sys1"); err != nil {
		t.Fatalf("citation: %v", err)
	}
	if _, _, err := src.RepoInfo(ctx, "sys1"); err == nil {
		t.Fatalf("expected malformed repo info")
	}
	want := outcomeLog{
		DocDescriptor + "/" + OutcomeLoaded: 1,
		DocCitation + "/" + OutcomeAbsent:   1,
		DocRepoInfo + "/" + OutcomeLoaded:   1,
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}
