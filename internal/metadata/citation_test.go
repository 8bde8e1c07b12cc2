package metadata

import "testing"

func TestFormatCitation(t *testing.T) {
	ref := func(names ...string) Reference {
		r := Reference{Source: "Nature", Volume: "99", PubDate: "2014 Dec"}
		for _, n := range names {
			r.Authors = append(r.Authors, Author{Name: n, AuthType: "Author"})
		}
		return r
	}
	cases := []struct {
		name string
		ref  Reference
		want string
	}{
		{name: "one author", ref: ref("Smith J"), want: "Smith J. Nature 99, 2014"},
		{name: "two authors", ref: ref("Smith J", "Jones A"), want: "Smith J, Jones A. Nature 99, 2014"},
		{name: "three authors", ref: ref("Smith J", "Jones A", "Jones B"), want: "Smith J, Jones A et al. Nature 99, 2014"},
		{
			name: "non-author entries ignored",
			ref: Reference{
				Authors: []Author{{Name: "Smith J", AuthType: "Author"}, {Name: "Consortium", AuthType: "CollectiveName"}},
				Source:  "Cell", Volume: "12", PubDate: "2020",
			},
			want: "Smith J. Cell 12, 2020",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCitation(tc.ref); got != tc.want {
				t.Fatalf("FormatCitation = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseCitationEnvelope(t *testing.T) {
	ref, err := parseCitation([]byte(pubmedDoc("Smith J", "Jones A", "Jones B")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ref.Authors) != 4 || ref.Source != "Nature" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
	if got := FormatCitation(ref); got != "Smith J, Jones A et al. Nature 99, 2014" {
		t.Fatalf("citation = %q", got)
	}
	for _, bad := range []string{`{}`, `{"result": {}}`, `{"result": {"uids": ["1"]}}`, `[]`} {
		if _, err := parseCitation([]byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}
