package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	errs "github.com/medworld/product-search/internal/pkg/errors"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// Fields is the payload for Insert.
type Fields struct {
	OEMID          string
	Name           string
	Description    string
	Images         []string
	Specifications string // canonical JSON string; "" for none
}

// Patch is the payload for Update. Nil pointers mean "absent, keep the
// stored value"; non-nil pointers, including pointers to empty values,
// mean "set exactly this". The pointer-to-empty case is the explicit unset
// a plain non-empty-wins merge cannot express.
type Patch struct {
	OEMID          *string
	Name           *string
	Description    *string
	Images         *[]string
	Specifications *string
	Deleted        *bool
}

// IsEmpty reports whether the patch carries no change at all.
func (p Patch) IsEmpty() bool {
	return p.OEMID == nil && p.Name == nil && p.Description == nil &&
		p.Images == nil && p.Specifications == nil && p.Deleted == nil
}

func (p Patch) apply(m Metadata) Metadata {
	if p.OEMID != nil {
		m.OEMID = *p.OEMID
	}
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Images != nil {
		m.Images = JoinImages(*p.Images)
	}
	if p.Specifications != nil {
		m.Specifications = EncodeSpecifications(*p.Specifications)
	}
	if p.Deleted != nil {
		m.Deleted = *p.Deleted
	} else {
		// Update semantics revive a soft-deleted record unless the
		// caller states otherwise.
		m.Deleted = false
	}
	return m
}

// Mutator is the sole writer of the text collection. All operations are
// keyed by the "text-{id}" form and serialized per canonical id, closing
// the read-modify-write race between concurrent mutations of one entity.
type Mutator struct {
	log   *logger.Logger
	text  Index
	image Index
	embed Embedder
	locks keyedLocks
}

func NewMutator(log *logger.Logger, text, image Index, embed Embedder) *Mutator {
	return &Mutator{
		log:   log.With("component", "Mutator"),
		text:  text,
		image: image,
		embed: embed,
	}
}

// Insert creates a fresh text record. A live (not soft-deleted) record for
// the same id fails with ErrAlreadyExists; a soft-deleted one is replaced.
func (m *Mutator) Insert(ctx context.Context, id string, f Fields) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidArgument)
	}
	unlock := m.locks.lock(id)
	defer unlock()

	existing, err := m.getText(ctx, id)
	if err != nil {
		return err
	}
	if existing != nil && existing.Meta != nil && !existing.Meta.Deleted {
		return fmt.Errorf("%w: product %q", errs.ErrAlreadyExists, id)
	}

	meta := Metadata{
		ID:             id,
		OEMID:          f.OEMID,
		Kind:           "text",
		Name:           f.Name,
		Description:    f.Description,
		Images:         JoinImages(f.Images),
		Specifications: EncodeSpecifications(f.Specifications),
		Deleted:        false,
	}
	return m.writeText(ctx, id, meta)
}

// Update rewrites an existing text record with the patch applied,
// re-deriving and re-embedding the document. Missing record fails with
// ErrNotFound.
func (m *Mutator) Update(ctx context.Context, id string, p Patch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidArgument)
	}
	unlock := m.locks.lock(id)
	defer unlock()

	existing, err := m.getText(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: product %q", errs.ErrNotFound, id)
	}

	base := Metadata{ID: id, Kind: "text"}
	if existing.Meta != nil {
		base = *existing.Meta
		base.ID = id
	}
	return m.writeText(ctx, id, p.apply(base))
}

// SoftDelete marks the record deleted while retaining it in storage. The
// record stops appearing in every read path, including stale image hits.
func (m *Mutator) SoftDelete(ctx context.Context, id string) error {
	deleted := true
	return m.Update(ctx, id, Patch{Deleted: &deleted})
}

// HardDelete physically removes the text record. Image records are left in
// place; once their text match is gone they only surface through their own
// denormalized metadata. Callers wanting them gone use PurgeImages first.
func (m *Mutator) HardDelete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidArgument)
	}
	unlock := m.locks.lock(id)
	defer unlock()

	existing, err := m.getText(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: product %q", errs.ErrNotFound, id)
	}
	if err := m.text.Delete(ctx, []string{TextKey(id)}); err != nil {
		return fmt.Errorf("delete text record: %w", err)
	}
	m.log.Info("hard-deleted product", "id", id)
	return nil
}

// PurgeImages removes the image records belonging to the entity's current
// image list. Call before HardDelete, while the text record still names its
// images. Fails with ErrNotFound when no text record exists.
func (m *Mutator) PurgeImages(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty id", errs.ErrInvalidArgument)
	}
	unlock := m.locks.lock(id)
	defer unlock()

	existing, err := m.getText(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: product %q", errs.ErrNotFound, id)
	}
	var images []string
	if existing.Meta != nil {
		images = ParseImages(existing.Meta.Images)
	}
	if len(images) == 0 {
		return nil
	}
	keys := make([]string, len(images))
	for i := range images {
		keys[i] = ImageKey(id, i)
	}
	if err := m.image.Delete(ctx, keys); err != nil {
		return fmt.Errorf("delete image records: %w", err)
	}
	m.log.Info("purged image records", "id", id, "count", len(keys))
	return nil
}

func (m *Mutator) getText(ctx context.Context, id string) (*Record, error) {
	recs, err := m.text.Get(ctx, []string{TextKey(id)})
	if err != nil {
		return nil, fmt.Errorf("get text record: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (m *Mutator) writeText(ctx context.Context, id string, meta Metadata) error {
	doc := EmbeddableText(meta)
	vec, err := m.embed.EmbedText(ctx, doc)
	if err != nil {
		return fmt.Errorf("embed %q: %w", id, err)
	}
	rec := Record{
		Key:       TextKey(id),
		Document:  doc,
		Embedding: vec,
		Meta:      &meta,
	}
	if err := m.text.Upsert(ctx, []Record{rec}); err != nil {
		return fmt.Errorf("upsert text record: %w", err)
	}
	m.log.Debug("wrote text record", "id", id, "deleted", meta.Deleted)
	return nil
}

// keyedLocks serializes work per canonical id. Entries are refcounted so
// the map does not grow with the id space.
type keyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*lockEntry)
	}
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}
