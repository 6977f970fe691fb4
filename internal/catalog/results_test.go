package catalog

import (
	"reflect"
	"testing"
)

func meta(id, name string) *Metadata {
	return &Metadata{ID: id, Name: name}
}

func TestBuildResultsRanksStayDense(t *testing.T) {
	deleted := &Metadata{ID: "p2", Name: "Gone", Deleted: true}
	hits := []Hit{
		{Key: "text-p1", Meta: meta("p1", "A"), Distance: 0.1},
		{Key: "text-p2", Meta: deleted, Distance: 0.2},
		{Key: "text-p3", Meta: nil, Distance: 0.3},
		{Key: "text-p4", Meta: meta("p4", "B"), Distance: 0.4},
		{Key: "text-p5", Meta: meta("p5", "C"), Distance: 0.5},
	}
	out := BuildResults(hits)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	for i, r := range out {
		if r.Rank != i+1 {
			t.Fatalf("rank not dense at position %d: %d", i, r.Rank)
		}
	}
	if out[0].ID != "p1" || out[1].ID != "p4" || out[2].ID != "p5" {
		t.Fatalf("order broken: %v %v %v", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestBuildResultsSimilarityScore(t *testing.T) {
	out := BuildResults([]Hit{{Key: "text-p1", Meta: meta("p1", "A"), Distance: 0.25}})
	if out[0].SimilarityScore != 0.75 {
		t.Fatalf("expected 0.75, got %v", out[0].SimilarityScore)
	}
	// Cosine distance can exceed 1; the score is rounded, never clamped.
	out = BuildResults([]Hit{{Key: "text-p1", Meta: meta("p1", "A"), Distance: 1.5}})
	if out[0].SimilarityScore != -0.5 {
		t.Fatalf("expected -0.5, got %v", out[0].SimilarityScore)
	}
	out = BuildResults([]Hit{{Key: "text-p1", Meta: meta("p1", "A"), Distance: 0.12345}})
	if out[0].SimilarityScore != 0.877 {
		t.Fatalf("expected 0.877, got %v", out[0].SimilarityScore)
	}
}

func TestBuildResultsFieldParsing(t *testing.T) {
	m := &Metadata{
		ID:             "p1",
		Name:           "Headphones",
		Images:         "http://a, http://b",
		Specifications: `{"color":"black"}`,
	}
	out := BuildResults([]Hit{{Key: "text-p1", Meta: m, Document: "Headphones: Noise cancelling", Distance: 0}})
	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	r := out[0]
	if !reflect.DeepEqual(r.Images, []string{"http://a", "http://b"}) {
		t.Fatalf("images parsed wrong: %v", r.Images)
	}
	if !reflect.DeepEqual(r.Specifications, map[string]any{"color": "black"}) {
		t.Fatalf("specifications parsed wrong: %#v", r.Specifications)
	}
	// Description recovered from the legacy document form.
	if r.Description != "Noise cancelling" {
		t.Fatalf("description not derived: %q", r.Description)
	}
}

func TestBuildResultsMalformedSpecificationsDegrade(t *testing.T) {
	m := &Metadata{ID: "p1", Name: "A", Specifications: "{broken"}
	out := BuildResults([]Hit{{Key: "text-p1", Meta: m}})
	list, ok := out[0].Specifications.([]any)
	if !ok || len(list) != 0 {
		t.Fatalf("malformed specs should degrade to empty list, got %#v", out[0].Specifications)
	}
}

func TestBuildResultsIDFallsBackToKey(t *testing.T) {
	out := BuildResults([]Hit{{Key: "image-p9-0", Meta: &Metadata{Name: "A"}}})
	if out[0].ID != "p9" {
		t.Fatalf("expected canonical id from key, got %q", out[0].ID)
	}
}

func TestBuildProductsFiltersDeleted(t *testing.T) {
	recs := []Record{
		{Key: "text-p1", Meta: meta("p1", "A"), Document: "A"},
		{Key: "text-p2", Meta: &Metadata{ID: "p2", Name: "B", Deleted: true}},
	}
	out := BuildProducts(recs)
	if len(out) != 1 || out[0].ID != "p1" {
		t.Fatalf("deleted record leaked: %#v", out)
	}
}
