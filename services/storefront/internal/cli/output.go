package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/table"

	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

func printCart(w io.Writer, items []domain.CartItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your cart is empty.")
		return
	}

	t := table.New().Headers("PRODUCT", "NAME", "OPTIONS", "QTY", "PRICE", "SUBTOTAL")
	for _, it := range items {
		t.Row(
			it.ID,
			it.Name,
			cartOptions(it),
			fmt.Sprint(it.Quantity),
			domain.FormatPrice(it.Price),
			domain.FormatPrice(it.Subtotal()),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Total: %s (%d items)\n", domain.FormatPrice(domain.CartTotal(items)), domain.CartCount(items))
}

func cartOptions(it domain.CartItem) string {
	var opts []string
	if it.SelectedColor != "" {
		opts = append(opts, it.SelectedColor)
	}
	if it.SelectedSize != "" {
		opts = append(opts, it.SelectedSize)
	}
	return strings.Join(opts, ", ")
}

func printWishlist(w io.Writer, items []domain.WishlistItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Your wishlist is empty.")
		return
	}

	t := table.New().Headers("PRODUCT", "NAME", "PRICE", "STOCK", "ADDED", "SAVED")
	for _, it := range items {
		price := domain.FormatPrice(it.Price)
		if it.SalePrice != nil {
			price = domain.FormatPrice(*it.SalePrice) + " (was " + price + ")"
		}
		stock := "out of stock"
		if it.InStock {
			stock = "in stock"
		}
		saved := "account"
		if domain.IsLocalID(it.ID) {
			saved = "local"
		}
		t.Row(it.ProductID, it.Name, price, stock, it.AddedAt.Format("2006-01-02"), saved)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d items\n", len(items))
}
