package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sokoni/marketplace-api/internal/api/metrics"
	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// ProductService orchestrates the listing lifecycle. It is the only place
// that coordinates the two independently failing backends: the asset store
// and the relational repository. The coordination is deliberately
// non-transactional; partial failures are reconciled with best-effort
// compensating deletes, never rolled back.
type ProductService struct {
	repo   ports.ProductRepository
	assets ports.AssetStore
	cache  ports.ProductCache // nil disables caching
	logger zerolog.Logger
}

func NewProductService(repo ports.ProductRepository, assets ports.AssetStore, cache ports.ProductCache, logger zerolog.Logger) *ProductService {
	return &ProductService{repo: repo, assets: assets, cache: cache, logger: logger}
}

// List returns all listings matching filter, decorated with resolved image
// URLs and seller names. No authentication required.
func (s *ProductService) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		s.decorate(p)
	}
	return products, nil
}

// GetByID returns a single listing, consulting the cache first.
func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if p := s.cacheGet(ctx, id); p != nil {
		s.decorate(p)
		return p, nil
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, p)
	s.decorate(p)
	return p, nil
}

// Create validates input, stores the image (if any) and inserts the row, in
// that order. A row-write failure after a successful image store triggers a
// compensating blob delete so the store does not accumulate orphans.
func (s *ProductService) Create(ctx context.Context, identity domain.Identity, input ports.CreateProductInput) (*domain.Product, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var imageKey *string
	if input.Image != nil {
		key, err := s.assets.Store(ctx, input.Image.Data, input.Image.ContentType)
		if err != nil {
			return nil, err
		}
		imageKey = &key
		metrics.ImagesStoredTotal.Inc()
	}

	p := &domain.Product{
		ID:            uuid.NewString(),
		Title:         input.Title,
		Price:         input.Price,
		Category:      domain.Category(input.Category),
		Description:   input.Description,
		ImageKey:      imageKey,
		ContactNumber: input.ContactNumber,
		Location:      input.Location,
		SellerID:      identity.ID,
		SellerName:    identity.Name,
		Sold:          false,
		CreatedAt:     time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		if imageKey != nil {
			s.cleanupOrphan(ctx, *imageKey)
		}
		s.logger.Error().Err(err).Str("seller_id", identity.ID).Msg("product insert failed")
		return nil, err
	}

	metrics.ProductsCreatedTotal.Inc()
	s.logger.Info().Str("product_id", created.ID).Str("seller_id", identity.ID).Msg("product created")
	s.decorate(created)
	return created, nil
}

// Update applies a partial update to a listing owned by identity. When a new
// image is supplied the new blob is stored first and the old one removed
// only after the row durably references the replacement, so the record
// never points at a missing blob.
func (s *ProductService) Update(ctx context.Context, identity domain.Identity, id string, input ports.UpdateProductInput) (*domain.Product, error) {
	existing, err := s.repo.FindOwned(ctx, id, identity.ID)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, existing, input)
}

// applyUpdate persists a partial update against an already-fetched,
// ownership-checked listing.
func (s *ProductService) applyUpdate(ctx context.Context, existing *domain.Product, input ports.UpdateProductInput) (*domain.Product, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var oldKey *string
	if input.Image != nil {
		newKey, err := s.assets.Store(ctx, input.Image.Data, input.Image.ContentType)
		if err != nil {
			return nil, err
		}
		metrics.ImagesStoredTotal.Inc()
		oldKey = existing.ImageKey
		existing.ImageKey = &newKey
	}

	applyFields(existing, input)

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if input.Image != nil {
			s.cleanupOrphan(ctx, *existing.ImageKey)
		}
		return nil, err
	}

	if oldKey != nil {
		s.removeBlob(ctx, *oldKey)
	}
	s.cacheInvalidate(ctx, existing.ID)
	s.decorate(updated)
	return updated, nil
}

// MarkSold flips the sold flag on a listing owned by identity. It is a
// constrained special case of Update: one ownership-checked fetch reads the
// current flag and feeds the shared update path.
func (s *ProductService) MarkSold(ctx context.Context, identity domain.Identity, id string) (*domain.Product, error) {
	existing, err := s.repo.FindOwned(ctx, id, identity.ID)
	if err != nil {
		return nil, err
	}
	toggled := !existing.Sold
	return s.applyUpdate(ctx, existing, ports.UpdateProductInput{Sold: &toggled})
}

// Delete removes the listing row, then best-effort deletes its image blob.
// The relational row is authoritative: it is removed whether or not the
// blob delete succeeds.
func (s *ProductService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	existing, err := s.repo.FindOwned(ctx, id, identity.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, identity.ID); err != nil {
		return err
	}

	if existing.ImageKey != nil {
		s.removeBlob(ctx, *existing.ImageKey)
	}
	s.cacheInvalidate(ctx, id)
	s.logger.Info().Str("product_id", id).Str("seller_id", identity.ID).Msg("product deleted")
	return nil
}

// decorate resolves the opaque image key into a fetchable URL before the
// product leaves the service boundary.
func (s *ProductService) decorate(p *domain.Product) {
	if p.ImageKey != nil {
		url := s.assets.ResolveURL(*p.ImageKey)
		p.ImageURL = &url
	}
}

// removeBlob is best-effort: failure is logged and counted, not propagated.
// A stale unreferenced blob is less harmful than failing the operation the
// user asked for.
func (s *ProductService) removeBlob(ctx context.Context, key string) {
	if err := s.assets.Delete(ctx, key); err != nil {
		metrics.ImageDeleteFailuresTotal.Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("image blob delete failed")
	}
}

// cleanupOrphan compensates for a row write that failed after its image was
// already stored.
func (s *ProductService) cleanupOrphan(ctx context.Context, key string) {
	metrics.OrphanCleanupsTotal.Inc()
	s.removeBlob(ctx, key)
}

func (s *ProductService) cacheGet(ctx context.Context, id string) *domain.Product {
	if s.cache == nil {
		return nil
	}
	p, err := s.cache.Get(ctx, id)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("product_id", id).Msg("cache read failed")
		return nil
	}
	if p == nil {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return p
}

func (s *ProductService) cacheSet(ctx context.Context, p *domain.Product) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		s.logger.Warn().Err(err).Str("product_id", p.ID).Msg("cache write failed")
	}
}

func (s *ProductService) cacheInvalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id).Msg("cache invalidation failed")
	}
}

func validateCreate(input ports.CreateProductInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return domain.NewValidationError("title is required")
	case strings.TrimSpace(input.Description) == "":
		return domain.NewValidationError("description is required")
	case strings.TrimSpace(input.ContactNumber) == "":
		return domain.NewValidationError("contact_number is required")
	case strings.TrimSpace(input.Location) == "":
		return domain.NewValidationError("location is required")
	case strings.TrimSpace(input.Category) == "":
		return domain.NewValidationError("category is required")
	}
	if !domain.Category(input.Category).Valid() {
		return domain.NewValidationError("unknown category %q", input.Category)
	}
	return validatePrice(input.Price)
}

func validateUpdate(input ports.UpdateProductInput) error {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return domain.NewValidationError("title cannot be empty")
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return domain.NewValidationError("description cannot be empty")
	}
	if input.ContactNumber != nil && strings.TrimSpace(*input.ContactNumber) == "" {
		return domain.NewValidationError("contact_number cannot be empty")
	}
	if input.Location != nil && strings.TrimSpace(*input.Location) == "" {
		return domain.NewValidationError("location cannot be empty")
	}
	if input.Category != nil && !domain.Category(*input.Category).Valid() {
		return domain.NewValidationError("unknown category %q", *input.Category)
	}
	if input.Price != nil {
		return validatePrice(*input.Price)
	}
	return nil
}

// validatePrice rejects NaN and negative values before any persistence
// attempt. Prices are stored as fixed-point NUMERIC(12,2) in the database.
func validatePrice(price float64) error {
	if math.IsNaN(price) {
		return domain.NewValidationError("price must be a number")
	}
	if price < 0 {
		return domain.NewValidationError("price cannot be negative")
	}
	return nil
}

// applyFields copies the supplied partial fields onto p; nil fields keep
// their previous values.
func applyFields(p *domain.Product, input ports.UpdateProductInput) {
	if input.Title != nil {
		p.Title = *input.Title
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Category != nil {
		p.Category = domain.Category(*input.Category)
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.ContactNumber != nil {
		p.ContactNumber = *input.ContactNumber
	}
	if input.Location != nil {
		p.Location = *input.Location
	}
	if input.Sold != nil {
		p.Sold = *input.Sold
	}
}
