package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/medworld/product-search/internal/catalog"
	errs "github.com/medworld/product-search/internal/pkg/errors"
	"github.com/medworld/product-search/internal/pkg/logger"
)

const defaultTopK = 10

// SearchService runs the two read paths: text queries against the text
// collection directly, image queries against the image collection with
// hydration from the text collection.
type SearchService interface {
	Text(ctx context.Context, query string, topK int) ([]catalog.Result, error)
	Image(ctx context.Context, image []byte, topK int) ([]catalog.Result, error)
	List(ctx context.Context) ([]catalog.Product, error)
}

type searchService struct {
	log       *logger.Logger
	text      catalog.Index
	image     catalog.Index
	embed     catalog.Embedder
	hydrator  *catalog.Hydrator
	listLimit int
}

func NewSearchService(log *logger.Logger, text, image catalog.Index, embed catalog.Embedder, listLimit int) SearchService {
	if listLimit <= 0 {
		listLimit = 1000
	}
	return &searchService{
		log:       log.With("service", "SearchService"),
		text:      text,
		image:     image,
		embed:     embed,
		hydrator:  catalog.NewHydrator(log, text),
		listLimit: listLimit,
	}
}

func (s *searchService) Text(ctx context.Context, query string, topK int) ([]catalog.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", errs.ErrInvalidArgument)
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	vec, err := s.embed.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.text.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query text collection: %w", err)
	}
	results := catalog.BuildResults(hits)
	s.log.Debug("text search", "query_len", len(query), "hits", len(hits), "results", len(results))
	return results, nil
}

func (s *searchService) Image(ctx context.Context, image []byte, topK int) ([]catalog.Result, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", errs.ErrInvalidArgument)
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	vec, err := s.embed.EmbedImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("embed image: %w", err)
	}
	hits, err := s.image.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("query image collection: %w", err)
	}
	hydrated, err := s.hydrator.Hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}
	results := catalog.BuildResults(hydrated)
	s.log.Debug("image search", "hits", len(hits), "results", len(results))
	return results, nil
}

func (s *searchService) List(ctx context.Context) ([]catalog.Product, error) {
	recs, err := s.text.Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list text collection: %w", err)
	}
	if len(recs) > s.listLimit {
		recs = recs[:s.listLimit]
	}
	return catalog.BuildProducts(recs), nil
}
