package postgres

import (
	"context"
	"fmt"

	"github.com/pawmart/storefront/pkg/database"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

// ProductRepository maintains the products projection.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product projection.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Exists reports whether the catalog knows the product.
func (r *ProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

// Upsert writes p unless a newer version is already stored, so replayed or
// reordered events cannot roll the projection back.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, slug, image, price, sale_price, in_stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			image = EXCLUDED.image,
			price = EXCLUDED.price,
			sale_price = EXCLUDED.sale_price,
			in_stock = EXCLUDED.in_stock,
			updated_at = EXCLUDED.updated_at
		WHERE products.updated_at <= EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Slug, p.Image, p.Price, p.SalePrice, p.InStock, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// Delete drops the product; wishlist rows referencing it cascade.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
