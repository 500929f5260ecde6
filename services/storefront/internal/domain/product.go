// Package domain holds the storefront's client-side data model. Prices are
// integer minor units (cents).
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry a caller hands to the cart. Quantity,
// SelectedColor and SelectedSize are optional carried fields set by product
// pages that let the shopper pick them before adding.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug,omitempty"`
	Price         int64    `json:"price"`
	SalePrice     *int64   `json:"salePrice,omitempty"`
	Images        []string `json:"images,omitempty"`
	InStock       bool     `json:"inStock"`
	Quantity      int      `json:"quantity,omitempty"`
	SelectedColor string   `json:"selectedColor,omitempty"`
	SelectedSize  string   `json:"selectedSize,omitempty"`
}

// FormatPrice renders minor units as a decimal amount, e.g. 1299 -> "12.99".
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// ParsePrice reads a decimal amount such as "12.99" into minor units. More
// than two fractional digits or a negative amount is an error.
func ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid price %q: must not be negative", s)
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("invalid price %q: at most two decimal places", s)
	}
	return minor.IntPart(), nil
}
