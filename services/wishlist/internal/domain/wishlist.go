package domain

import (
	"context"
	"time"
)

// WishlistItem is a product saved by a user, joined with its catalog data.
type WishlistItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     int64     `json:"price"`
	SalePrice *int64    `json:"salePrice,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
	InStock   bool      `json:"inStock"`
}

// WishlistRepository persists wishlist entries. Every method is scoped to a
// single user.
type WishlistRepository interface {
	// List returns the user's items, newest first.
	List(ctx context.Context, userID string) ([]WishlistItem, error)

	// Get returns one item or a NOT_FOUND AppError.
	Get(ctx context.Context, userID, productID string) (*WishlistItem, error)

	// Add inserts the product if it is not already present. It reports whether
	// a row was created.
	Add(ctx context.Context, userID, productID string) (bool, error)

	// Merge inserts the given products, skipping ones already present and
	// ones unknown to the catalog, and returns the number of rows created
	// together with the resulting list. Both happen in one transaction.
	Merge(ctx context.Context, userID string, productIDs []string) (int, []WishlistItem, error)

	// Remove deletes one item or returns a NOT_FOUND AppError.
	Remove(ctx context.Context, userID, productID string) error

	// Clear deletes all of the user's items and returns how many there were.
	Clear(ctx context.Context, userID string) (int, error)
}
