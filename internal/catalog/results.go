package catalog

import "math"

// Result is the unit returned to search callers.
type Result struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	Specifications  any      `json:"specifications"`
	SimilarityScore float64  `json:"similarity_score"`
	Rank            int      `json:"rank"`
}

// Product is the unranked listing shape (no query, no score).
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Images         []string `json:"images"`
	Specifications any      `json:"specifications"`
}

// BuildResults converts raw hits into ranked, filtered results. Input order
// is the rank basis. Hits without metadata and soft-deleted hits are
// dropped and consume no rank slot: ranks are dense over kept items.
func BuildResults(hits []Hit) []Result {
	out := make([]Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Meta == nil || hit.Meta.IsZero() || hit.Meta.Deleted {
			continue
		}
		meta := *hit.Meta
		desc := meta.Description
		if desc == "" {
			desc = DeriveDescription(hit.Document)
		}
		out = append(out, Result{
			ID:              resultID(hit.Key, meta),
			Name:            meta.Name,
			Description:     desc,
			Images:          ParseImages(meta.Images),
			Specifications:  ParseSpecifications(meta.Specifications),
			SimilarityScore: SimilarityScore(hit.Distance),
			Rank:            len(out) + 1,
		})
	}
	return out
}

// BuildProducts converts stored records into the listing shape, with the
// same deleted filtering and legacy description recovery as search results.
func BuildProducts(recs []Record) []Product {
	out := make([]Product, 0, len(recs))
	for _, rec := range recs {
		if rec.Meta == nil || rec.Meta.IsZero() || rec.Meta.Deleted {
			continue
		}
		meta := *rec.Meta
		desc := meta.Description
		if desc == "" {
			desc = DeriveDescription(rec.Document)
		}
		out = append(out, Product{
			ID:             resultID(rec.Key, meta),
			Name:           meta.Name,
			Description:    desc,
			Images:         ParseImages(meta.Images),
			Specifications: ParseSpecifications(meta.Specifications),
		})
	}
	return out
}

// SimilarityScore converts a distance into 1-distance rounded to three
// decimals. Cosine distance is not bounded to [0,1], so the score is not
// clamped; callers must accept values outside that range.
func SimilarityScore(distance float64) float64 {
	return math.Round((1-distance)*1000) / 1000
}

func resultID(key string, meta Metadata) string {
	if meta.ID != "" {
		return meta.ID
	}
	return CanonicalID(key)
}
