package services

import (
	"context"
	"fmt"

	"github.com/medworld/product-search/internal/catalog"
	errs "github.com/medworld/product-search/internal/pkg/errors"
	"github.com/medworld/product-search/internal/pkg/logger"
)

// ProductService is the write surface over the mutation coordinator.
type ProductService interface {
	Insert(ctx context.Context, id string, f catalog.Fields) error
	Update(ctx context.Context, id string, p catalog.Patch) error
	SoftDelete(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string, purgeImages bool) error
}

type productService struct {
	log *logger.Logger
	mut *catalog.Mutator
}

func NewProductService(log *logger.Logger, mut *catalog.Mutator) ProductService {
	return &productService{
		log: log.With("service", "ProductService"),
		mut: mut,
	}
}

func (s *productService) Insert(ctx context.Context, id string, f catalog.Fields) error {
	return s.mut.Insert(ctx, id, f)
}

func (s *productService) Update(ctx context.Context, id string, p catalog.Patch) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: empty patch", errs.ErrInvalidArgument)
	}
	return s.mut.Update(ctx, id, p)
}

func (s *productService) SoftDelete(ctx context.Context, id string) error {
	return s.mut.SoftDelete(ctx, id)
}

// HardDelete removes the text record; with purgeImages it first removes the
// dependent image records while the text record still names them.
func (s *productService) HardDelete(ctx context.Context, id string, purgeImages bool) error {
	if purgeImages {
		if err := s.mut.PurgeImages(ctx, id); err != nil {
			return err
		}
	}
	return s.mut.HardDelete(ctx, id)
}
