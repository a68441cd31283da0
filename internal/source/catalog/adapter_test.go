package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/timmy/artmatch/internal/source"
)

const manifest = `{"id":"Q3","title":"Night Harbour","artwork_type":"Q3305213","subject_codes":["Q183","Q16970"],"sitelinks":3,"image_url":"https://example.org/3.jpg"}
not json
{"id":"Q1","title":"Garden","artwork_type":"Q3305213","subject_codes":["Q506"],"sitelinks":12}
{"id":"Q2","title":"Mourners","artwork_type":"Q42973","subject_codes":["Q4"],"sitelinks":25,"medium":"Ink on paper"}

{"id":"Q4","title":"Sea Study","artwork_type":"Q125191","subject_codes":["Q16970"],"sitelinks":5}
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return dir
}

func ids(t *testing.T, a *Adapter, q source.Query) []string {
	t.Helper()
	got, err := a.FetchCandidates(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}
	out := make([]string, len(got))
	for i, c := range got {
		out[i] = c.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFetchCandidatesFilters(t *testing.T) {
	a := NewAdapter(writeManifest(t), 1)

	n, err := a.Len()
	if err != nil || n != 4 {
		t.Fatalf("Len() = %d, %v; want 4 (malformed line skipped)", n, err)
	}

	tests := []struct {
		name string
		q    source.Query
		want []string
	}{
		{"all", source.Query{Limit: 10}, []string{"Q1", "Q2", "Q3", "Q4"}},
		{"subject", source.Query{SubjectCodes: []string{"Q16970"}, Limit: 10}, []string{"Q3", "Q4"}},
		{"types", source.Query{CandidateTypes: []string{source.TypePainting}, Limit: 10}, []string{"Q1", "Q3"}},
		{"ceiling is exclusive", source.Query{PopularityCeiling: 12, Limit: 10}, []string{"Q3", "Q4"}},
		{"offset and limit", source.Query{Offset: 1, Limit: 2}, []string{"Q2", "Q3"}},
		{"offset past end", source.Query{Offset: 10, Limit: 2}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(t, a, tt.q); !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManifestMediumFallsBackToType(t *testing.T) {
	a := NewAdapter(writeManifest(t), 1)
	got, err := a.FetchCandidates(context.Background(), source.Query{Limit: 10})
	if err != nil {
		t.Fatalf("FetchCandidates() error = %v", err)
	}
	media := map[string]string{}
	for _, c := range got {
		media[c.ID] = c.Medium
	}
	if media["Q1"] != "Oil on canvas" || media["Q2"] != "Ink on paper" || media["Q4"] != "Photograph" {
		t.Errorf("media = %v", media)
	}
	if got[2].Popularity != 3 || got[2].ImageURL == "" {
		t.Errorf("Q3 = %+v", got[2])
	}
}

func TestRandomOrderIsAPermutation(t *testing.T) {
	a := NewAdapter(writeManifest(t), 7)
	got := ids(t, a, source.Query{RandomOrder: true, Limit: 10})
	if len(got) != 4 {
		t.Fatalf("got %v", got)
	}
	seen := map[string]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if len(seen) != 4 {
		t.Errorf("duplicate ids in %v", got)
	}
}

func TestMissingManifest(t *testing.T) {
	a := NewAdapter(t.TempDir(), 1)
	if _, err := a.FetchCandidates(context.Background(), source.Query{}); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}
