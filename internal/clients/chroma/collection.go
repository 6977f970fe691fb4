package chroma

import (
	"context"
	"fmt"

	"github.com/medworld/product-search/internal/catalog"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// Collection is a typed handle on one Chroma collection, satisfying
// catalog.Index. Two instances exist per process: "products_text" and
// "products_image". The handle is safe for concurrent use.
type Collection struct {
	log  *logger.Logger
	c    Client
	id   string
	name string
}

// NewCollection resolves (or creates) the named collection with cosine
// distance, matching the space the embeddings were built for.
func NewCollection(ctx context.Context, log *logger.Logger, c Client, name string) (*Collection, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if c == nil {
		return nil, fmt.Errorf("chroma client required")
	}
	info, err := c.GetOrCreateCollection(ctx, name, map[string]any{"hnsw:space": "cosine"})
	if err != nil {
		return nil, fmt.Errorf("resolve collection %q: %w", name, err)
	}
	return &Collection{
		log:  log.With("collection", name),
		c:    c,
		id:   info.ID,
		name: name,
	}, nil
}

func (col *Collection) Name() string { return col.name }

func (col *Collection) Get(ctx context.Context, ids []string) ([]catalog.Record, error) {
	resp, err := col.c.Get(ctx, col.id, GetRequest{IDs: ids})
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Record, 0, len(resp.IDs))
	for i, key := range resp.IDs {
		rec := catalog.Record{Key: key}
		if i < len(resp.Documents) && resp.Documents[i] != nil {
			rec.Document = *resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			rec.Meta = catalog.MetadataFromMap(resp.Metadatas[i])
		}
		out = append(out, rec)
	}
	return out, nil
}

func (col *Collection) Query(ctx context.Context, embedding []float32, topK int) ([]catalog.Hit, error) {
	resp, err := col.c.Query(ctx, col.id, QueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return []catalog.Hit{}, nil
	}
	keys := resp.IDs[0]
	out := make([]catalog.Hit, 0, len(keys))
	for i, key := range keys {
		hit := catalog.Hit{Key: key}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) && resp.Documents[0][i] != nil {
			hit.Document = *resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			hit.Meta = catalog.MetadataFromMap(resp.Metadatas[0][i])
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			hit.Distance = resp.Distances[0][i]
		}
		out = append(out, hit)
	}
	return out, nil
}

func (col *Collection) Upsert(ctx context.Context, recs []catalog.Record) error {
	if len(recs) == 0 {
		return nil
	}
	req := UpsertRequest{
		IDs:        make([]string, len(recs)),
		Embeddings: make([][]float32, len(recs)),
		Documents:  make([]string, len(recs)),
		Metadatas:  make([]map[string]any, len(recs)),
	}
	for i, rec := range recs {
		req.IDs[i] = rec.Key
		req.Embeddings[i] = rec.Embedding
		req.Documents[i] = rec.Document
		if rec.Meta != nil {
			req.Metadatas[i] = rec.Meta.ToMap()
		} else {
			req.Metadatas[i] = map[string]any{}
		}
	}
	return col.c.Upsert(ctx, col.id, req)
}

func (col *Collection) Delete(ctx context.Context, ids []string) error {
	return col.c.Delete(ctx, col.id, ids)
}
