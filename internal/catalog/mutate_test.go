package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	errs "github.com/medworld/product-search/internal/pkg/errors"
)

func newTestMutator(t *testing.T) (*Mutator, *fakeIndex, *fakeIndex, *fakeEmbedder) {
	t.Helper()
	text := newFakeIndex()
	image := newFakeIndex()
	embed := &fakeEmbedder{}
	return NewMutator(testLogger(t), text, image, embed), text, image, embed
}

func TestInsertDerivesEmbeddableText(t *testing.T) {
	m, text, _, embed := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "Headphones"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := embed.lastText(); got != "Headphones" {
		t.Fatalf("embeddable text from name: got %q", got)
	}
	rec, ok := text.records[TextKey("p1")]
	if !ok {
		t.Fatalf("text record not written")
	}
	if rec.Document != "Headphones" || rec.Meta.Deleted {
		t.Fatalf("record wrong: doc=%q deleted=%v", rec.Document, rec.Meta.Deleted)
	}
	if rec.Meta.ID != "p1" || rec.Meta.Kind != "text" {
		t.Fatalf("metadata wrong: %#v", rec.Meta)
	}
}

func TestInsertConflictsOnLiveRecord(t *testing.T) {
	m, _, _, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "A"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.Insert(ctx, "p1", Fields{Name: "B"}); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	// A soft-deleted record may be replaced.
	if err := m.SoftDelete(ctx, "p1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := m.Insert(ctx, "p1", Fields{Name: "B"}); err != nil {
		t.Fatalf("re-insert after soft delete: %v", err)
	}
}

func TestUpdateRequiresExistingRecord(t *testing.T) {
	m, _, _, _ := newTestMutator(t)
	name := "A"
	err := m.Update(context.Background(), "ghost", Patch{Name: &name})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReembedsAndRevives(t *testing.T) {
	m, text, _, embed := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "Headphones"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.SoftDelete(ctx, "p1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	desc := "Noise cancelling"
	if err := m.Update(ctx, "p1", Patch{Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := embed.lastText(); got != "Noise cancelling" {
		t.Fatalf("embeddable text not re-derived: %q", got)
	}
	rec := text.records[TextKey("p1")]
	if rec.Meta.Deleted {
		t.Fatalf("update must clear the deleted flag")
	}
	if rec.Meta.Name != "Headphones" {
		t.Fatalf("untouched field lost: %q", rec.Meta.Name)
	}
}

func TestUpdateExplicitClear(t *testing.T) {
	m, text, _, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "Headphones", Description: "Old", OEMID: "oem-1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	empty := ""
	if err := m.Update(ctx, "p1", Patch{Description: &empty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec := text.records[TextKey("p1")]
	if rec.Meta.Description != "" {
		t.Fatalf("explicit clear ignored: %q", rec.Meta.Description)
	}
	// Absent fields stay.
	if rec.Meta.OEMID != "oem-1" {
		t.Fatalf("absent field changed: %q", rec.Meta.OEMID)
	}
	// Embeddable text falls back to the name after the clear.
	if rec.Document != "Headphones" {
		t.Fatalf("document not re-derived: %q", rec.Document)
	}
}

func TestSoftDeleteMarksRecord(t *testing.T) {
	m, text, _, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "A"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.SoftDelete(ctx, "p1"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	rec, ok := text.records[TextKey("p1")]
	if !ok {
		t.Fatalf("soft delete must retain the record")
	}
	if !rec.Meta.Deleted {
		t.Fatalf("deleted flag not set")
	}
}

func TestHardDeleteRemovesTextRecordOnly(t *testing.T) {
	m, text, image, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "A", Images: []string{"http://a"}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	image.put(Record{Key: ImageKey("p1", 0), Meta: &Metadata{ID: "p1"}})

	if err := m.HardDelete(ctx, "p1"); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if _, ok := text.records[TextKey("p1")]; ok {
		t.Fatalf("text record survived hard delete")
	}
	if _, ok := image.records[ImageKey("p1", 0)]; !ok {
		t.Fatalf("hard delete must not touch image records")
	}
	if err := m.HardDelete(ctx, "p1"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPurgeImages(t *testing.T) {
	m, _, image, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "A", Images: []string{"http://a", "http://b"}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	image.put(Record{Key: ImageKey("p1", 0), Meta: &Metadata{ID: "p1"}})
	image.put(Record{Key: ImageKey("p1", 1), Meta: &Metadata{ID: "p1"}})
	image.put(Record{Key: ImageKey("p2", 0), Meta: &Metadata{ID: "p2"}})

	if err := m.PurgeImages(ctx, "p1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if len(image.records) != 1 {
		t.Fatalf("expected only the unrelated image record to remain, got %d", len(image.records))
	}
	if _, ok := image.records[ImageKey("p2", 0)]; !ok {
		t.Fatalf("unrelated image record removed")
	}
}

func TestEmbeddingFailureSurfacesKind(t *testing.T) {
	m, _, _, embed := newTestMutator(t)
	embed.fail = true
	err := m.Insert(context.Background(), "p1", Fields{Name: "A"})
	if !errors.Is(err, errFakeEmbed) {
		t.Fatalf("embedder error masked: %v", err)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	m, text, _, _ := newTestMutator(t)
	ctx := context.Background()

	if err := m.Insert(ctx, "p1", Fields{Name: "A"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Interleaved read-modify-write on disjoint fields: without per-id
	// serialization one side's write is lost.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		desc := "desc"
		oem := "oem"
		go func() {
			defer wg.Done()
			_ = m.Update(ctx, "p1", Patch{Description: &desc})
		}()
		go func() {
			defer wg.Done()
			_ = m.Update(ctx, "p1", Patch{OEMID: &oem})
		}()
		wg.Wait()

		rec := text.records[TextKey("p1")]
		if rec.Meta.Description != "desc" || rec.Meta.OEMID != "oem" {
			t.Fatalf("lost update on iteration %d: %#v", i, rec.Meta)
		}
		empty := ""
		if err := m.Update(ctx, "p1", Patch{Description: &empty, OEMID: &empty}); err != nil {
			t.Fatalf("reset: %v", err)
		}
	}
}
