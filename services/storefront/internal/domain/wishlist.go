package domain

import (
	"fmt"
	"strings"
	"time"
)

// localIDPrefix marks ids minted on the client before the server assigns one.
const localIDPrefix = "local-"

// WishlistItem is a saved product. ID is a local id until the first
// successful sync replaces the list with server rows.
type WishlistItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     int64     `json:"price"`
	SalePrice *int64    `json:"salePrice,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
	InStock   bool      `json:"inStock"`
}

// NewWishlistItem is the caller-supplied part of a wishlist entry.
type NewWishlistItem struct {
	ProductID string
	Name      string
	Slug      string
	Image     string
	Price     int64
	SalePrice *int64
	InStock   bool
}

// LocalWishlistID returns the temporary id for a product added at t.
func LocalWishlistID(productID string, t time.Time) string {
	return fmt.Sprintf("%s%d-%s", localIDPrefix, t.UnixMilli(), productID)
}

// IsLocalID reports whether id was minted by LocalWishlistID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// Build turns the input into a locally identified item added at now.
func (n NewWishlistItem) Build(now time.Time) WishlistItem {
	return WishlistItem{
		ID:        LocalWishlistID(n.ProductID, now),
		ProductID: n.ProductID,
		Name:      n.Name,
		Slug:      n.Slug,
		Image:     n.Image,
		Price:     n.Price,
		SalePrice: n.SalePrice,
		AddedAt:   now,
		InStock:   n.InStock,
	}
}

// EffectivePrice returns the sale price when one is set.
func (w WishlistItem) EffectivePrice() int64 {
	if w.SalePrice != nil {
		return *w.SalePrice
	}
	return w.Price
}

// FindWishlistItem returns the index of the entry for productID, or -1.
func FindWishlistItem(items []WishlistItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
