package domain

// CartItem is one line of the cart. Name, Price and Images are copied from
// the product when it is added so the cart renders without a catalog lookup.
type CartItem struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	Images        []string `json:"images,omitempty"`
	Quantity      int      `json:"quantity"`
	SelectedColor string   `json:"selectedColor,omitempty"`
	SelectedSize  string   `json:"selectedSize,omitempty"`
}

// NewCartItem copies the display fields of p into a line item.
func NewCartItem(p Product, quantity int) CartItem {
	var images []string
	if len(p.Images) > 0 {
		images = append([]string(nil), p.Images...)
	}
	return CartItem{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Images:        images,
		Quantity:      quantity,
		SelectedColor: p.SelectedColor,
		SelectedSize:  p.SelectedSize,
	}
}

// Subtotal returns price times quantity.
func (i CartItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// CartTotal sums the subtotals of items. Tax and shipping are not included.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// CartCount returns the total number of units across items.
func CartCount(items []CartItem) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// FindCartItem returns the index of the line item for productID, or -1.
func FindCartItem(items []CartItem, productID string) int {
	for i := range items {
		if items[i].ID == productID {
			return i
		}
	}
	return -1
}
