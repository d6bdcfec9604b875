package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sokoni/marketplace-api/internal/core/domain"
	"github.com/sokoni/marketplace-api/internal/core/ports"
)

// ProductRepository is the pgx-backed listing store. Mutations are always
// scoped by (id, seller_id); an unmatched scope surfaces as
// domain.ErrProductNotFound, indistinguishable from a missing row.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `p.id, p.title, p.price, p.category, p.description, p.image_key,
	       p.contact_number, p.location, p.seller_id, u.name, p.sold, p.created_at`

// validID filters ids that can never match the UUID primary key. Without
// this, pgx fails to encode the parameter and the lookup surfaces as an
// internal error instead of a plain not-found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	const query = `
		INSERT INTO products (id, title, price, category, description, image_key,
		                      contact_number, location, seller_id, sold, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	created := *p
	err := r.pool.QueryRow(ctx, query,
		created.ID, created.Title, created.Price, string(created.Category), created.Description,
		created.ImageKey, created.ContactNumber, created.Location, created.SellerID,
		created.Sold, created.CreatedAt,
	).Scan(&created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}

	return &created, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if !validID(id) {
		return nil, domain.ErrProductNotFound
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *ProductRepository) FindOwned(ctx context.Context, id, sellerID string) (*domain.Product, error) {
	if !validID(id) {
		return nil, domain.ErrProductNotFound
	}

	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN users u ON u.id = p.seller_id
		WHERE p.id = $1 AND p.seller_id = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, id, sellerID))
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products p
		JOIN users u ON u.id = p.seller_id
		WHERE ($1 = '' OR p.category = $1)
		  AND ($2 = '' OR p.title ILIKE '%' || $2 || '%')
		ORDER BY p.created_at DESC`

	rows, err := r.pool.Query(ctx, query, filter.Category, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Price, &p.Category, &p.Description, &p.ImageKey,
			&p.ContactNumber, &p.Location, &p.SellerID, &p.SellerName, &p.Sold, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	const query = `
		UPDATE products
		SET title = $3, price = $4, category = $5, description = $6,
		    image_key = $7, contact_number = $8, location = $9, sold = $10
		WHERE id = $1 AND seller_id = $2`

	cmd, err := r.pool.Exec(ctx, query,
		p.ID, p.SellerID, p.Title, p.Price, string(p.Category), p.Description,
		p.ImageKey, p.ContactNumber, p.Location, p.Sold,
	)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrProductNotFound
	}

	updated := *p
	return &updated, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id, sellerID string) error {
	if !validID(id) {
		return domain.ErrProductNotFound
	}

	const query = `DELETE FROM products WHERE id = $1 AND seller_id = $2`

	cmd, err := r.pool.Exec(ctx, query, id, sellerID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) scanOne(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Category, &p.Description, &p.ImageKey,
		&p.ContactNumber, &p.Location, &p.SellerID, &p.SellerName, &p.Sold, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}
