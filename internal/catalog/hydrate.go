package catalog

import (
	"context"

	"github.com/medworld/product-search/internal/pkg/logger"
)

// Hydrator enriches image-collection hits with the authoritative text
// record for the same canonical entity.
type Hydrator struct {
	log  *logger.Logger
	text Index
}

func NewHydrator(log *logger.Logger, text Index) *Hydrator {
	return &Hydrator{
		log:  log.With("component", "Hydrator"),
		text: text,
	}
}

// Hydrate resolves each hit's canonical id, probes the text collection for
// a live record, and merges the hit's denormalized metadata (priority) over
// the text record (fallback). Hits whose merged record is soft-deleted are
// dropped. A lookup failure for one candidate key is recovered as "no
// match" and never fails the batch; only context cancellation aborts.
func (h *Hydrator) Hydrate(ctx context.Context, hits []Hit) ([]Hit, error) {
	out := make([]Hit, 0, len(hits))
	for _, hit := range hits {
		id := CanonicalID(hit.Key)
		match, err := h.probeText(ctx, id)
		if err != nil {
			return nil, err
		}

		merged := Metadata{}
		if hit.Meta != nil {
			merged = *hit.Meta
		}
		document := hit.Document
		if match != nil {
			fallback := Metadata{}
			if match.Meta != nil {
				fallback = *match.Meta
			}
			merged = Merge(merged, fallback)
			if document == "" {
				document = match.Document
			}
		}
		if merged.Description == "" {
			merged.Description = DeriveDescription(document)
		}
		if merged.Deleted {
			continue
		}

		meta := merged
		out = append(out, Hit{
			Key:      hit.Key,
			Meta:     &meta,
			Document: document,
			Distance: hit.Distance,
		})
	}
	return out, nil
}

// probeText tries the candidate text keys in order and returns the first
// record carrying non-empty metadata, or nil when none matches.
func (h *Hydrator) probeText(ctx context.Context, id string) (*Record, error) {
	for _, key := range []string{id, TextKey(id)} {
		recs, err := h.text.Get(ctx, []string{key})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			h.log.Debug("text lookup failed during hydration, treating as no match",
				"candidate_key", key,
				"error", err,
			)
			continue
		}
		for i := range recs {
			if recs[i].Meta != nil && !recs[i].Meta.IsZero() {
				return &recs[i], nil
			}
		}
	}
	return nil, nil
}
