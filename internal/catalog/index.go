package catalog

import "context"

// Record is one stored entry in a vector collection.
type Record struct {
	Key       string
	Document  string
	Embedding []float32
	Meta      *Metadata
}

// Hit is one nearest-neighbor match returned by a vector query,
// ordered ascending by Distance.
type Hit struct {
	Key      string
	Meta     *Metadata
	Document string
	Distance float64
}

// Index is the contract this core requires of a vector collection.
// Get is empty-safe: unknown ids yield no record, not an error.
// Implementations must be safe for concurrent use.
type Index interface {
	Get(ctx context.Context, ids []string) ([]Record, error)
	Query(ctx context.Context, embedding []float32, topK int) ([]Hit, error)
	Upsert(ctx context.Context, recs []Record) error
	Delete(ctx context.Context, ids []string) error
}

// Embedder produces fixed-length vectors. EmbedImage must target the same
// space as the image collection so text and image queries stay comparable.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, image []byte) ([]float32, error)
}
