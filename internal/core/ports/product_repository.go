package ports

import (
	"context"

	"github.com/sokoni/marketplace-api/internal/core/domain"
)

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	Category string // exact category match
	Search   string // case-insensitive substring match on title
}

// ProductRepository is pure persistence for listings; no business
// validation happens here. Every mutating operation is scoped by
// (id, seller_id) so ownership is enforced at the data-access layer as
// well as in the service. Reads join the user table to resolve SellerName.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindOwned returns domain.ErrProductNotFound when the row is absent
	// or belongs to a different seller.
	FindOwned(ctx context.Context, id, sellerID string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id, sellerID string) error
}
