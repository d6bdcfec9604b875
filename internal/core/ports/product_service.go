package ports

import (
	"context"

	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// ImageUpload carries a decoded image file from a multipart request.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// CreateProductInput carries all data needed to publish a listing.
// Image is optional; every other field is required.
type CreateProductInput struct {
	Title         string
	Price         float64
	Category      string
	Description   string
	ContactNumber string
	Location      string
	Image         *ImageUpload
}

// UpdateProductInput has partial-update semantics: nil fields keep their
// previous values. Supplying a new Image replaces the old blob.
type UpdateProductInput struct {
	Title         *string
	Price         *float64
	Category      *string
	Description   *string
	ContactNumber *string
	Location      *string
	Sold          *bool
	Image         *ImageUpload
}

// ProductService defines the listing use cases. Read operations need no
// identity; every mutation requires the owning identity resolved by the
// access gate.
type ProductService interface {
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, identity domain.Identity, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, identity domain.Identity, id string, input UpdateProductInput) (*domain.Product, error)
	MarkSold(ctx context.Context, identity domain.Identity, id string) (*domain.Product, error)
	Delete(ctx context.Context, identity domain.Identity, id string) error
}

// ProductCache is a best-effort read-through cache for single listings.
// Implementations must treat it as an optimisation only: a miss or an error
// is never a reason to fail a request.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, p *domain.Product) error
	Invalidate(ctx context.Context, id string) error
}
