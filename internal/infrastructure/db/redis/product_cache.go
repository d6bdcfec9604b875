package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sokoni/marketplace-api/internal/core/domain"
)

const cacheTTL = 5 * time.Minute

// ProductCache is a read-through cache for single listings.
// Key format: product:<id>
type ProductCache struct {
	client *redis.Client
}

// NewProductCache creates a ProductCache wrapping the given Redis client.
func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client}
}

// cachedProduct mirrors domain.Product with the image key included; the
// domain type deliberately hides the key from API JSON, but the cache must
// round-trip it.
type cachedProduct struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Price         float64         `json:"price"`
	Category      domain.Category `json:"category"`
	Description   string          `json:"description"`
	ImageKey      *string         `json:"image_key"`
	ContactNumber string          `json:"contact_number"`
	Location      string          `json:"location"`
	SellerID      string          `json:"seller_id"`
	SellerName    string          `json:"seller_name"`
	Sold          bool            `json:"sold"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Get returns the cached listing or (nil, nil) on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var cp cachedProduct
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}

	return &domain.Product{
		ID:            cp.ID,
		Title:         cp.Title,
		Price:         cp.Price,
		Category:      cp.Category,
		Description:   cp.Description,
		ImageKey:      cp.ImageKey,
		ContactNumber: cp.ContactNumber,
		Location:      cp.Location,
		SellerID:      cp.SellerID,
		SellerName:    cp.SellerName,
		Sold:          cp.Sold,
		CreatedAt:     cp.CreatedAt,
	}, nil
}

// Set stores the listing with a short TTL.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) error {
	raw, err := json.Marshal(cachedProduct{
		ID:            p.ID,
		Title:         p.Title,
		Price:         p.Price,
		Category:      p.Category,
		Description:   p.Description,
		ImageKey:      p.ImageKey,
		ContactNumber: p.ContactNumber,
		Location:      p.Location,
		SellerID:      p.SellerID,
		SellerName:    p.SellerName,
		Sold:          p.Sold,
		CreatedAt:     p.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(p.ID), raw, cacheTTL).Err()
}

// Invalidate drops the cached entry after a mutation.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *ProductCache) key(id string) string {
	return "product:" + id
}
