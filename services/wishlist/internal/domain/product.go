package domain

import (
	"context"
	"time"
)

// Product is the slice of catalog data the wishlist needs, kept up to date
// from product events.
type Product struct {
	ID        string
	Name      string
	Slug      string
	Image     string
	Price     int64
	SalePrice *int64
	InStock   bool
	UpdatedAt time.Time
}

// ProductRepository maintains the local catalog projection.
type ProductRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Upsert ignores writes older than the stored UpdatedAt.
	Upsert(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
