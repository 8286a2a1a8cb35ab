package search

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestTopK_RanksByJaccard(t *testing.T) {
	idx := NewIndexFromStrings([]string{
		"Two bedroom apartment with parking near Elm Street",
		"Office space downtown with meeting rooms available",
		"Furnished studio apartment close to the waterfront",
	}, WithMinSnippetRunes(0))

	out := idx.TopK("two bedroom apartment parking", 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if !strings.Contains(out[0].Snippet, "Elm Street") {
		t.Fatalf("best match wrong: %q", out[0].Snippet)
	}
	if out[0].Score <= out[1].Score {
		t.Fatalf("scores not descending: %v %v", out[0].Score, out[1].Score)
	}
}

func TestTopK_Deterministic(t *testing.T) {
	idx := NewIndexFromStrings([]string{
		"alpha beta gamma delta epsilon one",
		"alpha beta gamma delta epsilon two",
		"alpha beta gamma delta epsilon three",
	}, WithMinSnippetRunes(0))

	first := idx.TopK("alpha beta gamma", 3)
	for i := 0; i < 10; i++ {
		again := idx.TopK("alpha beta gamma", 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("tie-broken order must be stable: %+v vs %+v", first, again)
		}
	}
}

func TestTopK_EdgeInputs(t *testing.T) {
	idx := NewIndexFromStrings([]string{"two bedroom apartment with parking"}, WithMinSnippetRunes(0))

	if out := idx.TopK("   ", 3); out != nil {
		t.Fatalf("blank query should return nothing, got %+v", out)
	}
	if out := idx.TopK("zzz qqq xxx", 3); out != nil {
		t.Fatalf("zero-overlap query should return nothing, got %+v", out)
	}
	// k <= 0 falls back to a small default rather than panicking.
	if out := idx.TopK("apartment", 0); len(out) != 1 {
		t.Fatalf("defaulted k should still return matches, got %+v", out)
	}

	empty := NewIndexFromStrings(nil)
	if out := empty.TopK("apartment", 3); out != nil {
		t.Fatalf("empty index should return nothing, got %+v", out)
	}
}

func TestTopK_StopwordsIgnored(t *testing.T) {
	idx := NewIndexFromStrings([]string{
		"the apartment is near the park",
	}, WithMinSnippetRunes(0), WithStopwords([]string{"the", "is", "near"}))

	if out := idx.TopK("the the the", 3); out != nil {
		t.Fatalf("all-stopword query should return nothing, got %+v", out)
	}
	if out := idx.TopK("apartment", 3); len(out) != 1 {
		t.Fatalf("content tokens should still match, got %+v", out)
	}
}

func TestNewIndexFromListingsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.csv")
	csv := "id,price,bedrooms,address,amenities\n" +
		"1,$1950,2,14 Elm Street,gym; parking\n" +
		"2,$3100,3,9 Grand Avenue,doorman\n" +
		",,,,\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	idx, err := NewIndexFromListingsCSV(path)
	if err != nil {
		t.Fatalf("NewIndexFromListingsCSV: %v", err)
	}

	out := idx.TopK("elm street parking", 3)
	if len(out) != 1 {
		t.Fatalf("expected the Elm Street row, got %+v", out)
	}
	r := out[0]
	if !r.IsProperty() || r.Kind != KindProperty {
		t.Fatalf("CSV rows must index as properties: %+v", r)
	}
	if r.Metadata["price"] != "$1950" || r.Metadata["address"] != "14 Elm Street" {
		t.Fatalf("metadata bag wrong: %#v", r.Metadata)
	}
	amenities, ok := r.Metadata["amenities"].([]string)
	if !ok || !reflect.DeepEqual(amenities, []string{"gym", "parking"}) {
		t.Fatalf("amenities should split on ';': %#v", r.Metadata["amenities"])
	}
	if _, ok := r.Metadata["id"]; ok {
		t.Fatalf("the id column must not leak into metadata")
	}
}

func TestNewIndexFromFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.CSV")
	if err := os.WriteFile(csvPath, []byte("price,address\n$1000,5 Oak Lane apartment\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx, err := NewIndexFromFile(csvPath)
	if err != nil {
		t.Fatalf("NewIndexFromFile csv: %v", err)
	}
	if out := idx.TopK("oak lane apartment", 1); len(out) != 1 || !out[0].IsProperty() {
		t.Fatalf("csv extension should index properties, got %+v", out)
	}

	mdPath := filepath.Join(dir, "knowledge.md")
	md := "Leases run twelve months by default and renew annually.\n\n" +
		"Security deposits equal one month of rent in most buildings.\n"
	if err := os.WriteFile(mdPath, []byte(md), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	idx, err = NewIndexFromFile(mdPath)
	if err != nil {
		t.Fatalf("NewIndexFromFile md: %v", err)
	}
	if out := idx.TopK("security deposit rent", 1); len(out) != 1 || out[0].Kind != KindDocument {
		t.Fatalf("markdown should index documents, got %+v", out)
	}

	if _, err := NewIndexFromFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("missing file should error")
	}
}

func TestFlattenMarkdown_TablesBecomeFacts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.md")
	md := "| Term | Meaning |\n" +
		"| --- | --- |\n" +
		"| Escrow | Funds held by a third party |\n" +
		"| Sublet | Renting from the current tenant |\n"
	if err := os.WriteFile(path, []byte(md), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := FlattenMarkdown(path)
	if err != nil {
		t.Fatalf("FlattenMarkdown: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, "Escrow Funds held by a third party") {
		t.Fatalf("table rows should flatten into facts: %q", text)
	}
	if strings.Contains(text, "---") {
		t.Fatalf("separator rows must be dropped: %q", text)
	}
	if !strings.HasSuffix(text, "\n") || strings.HasSuffix(text, "\n\n") {
		t.Fatalf("flattened tables end with exactly one newline: %q", text)
	}
}
