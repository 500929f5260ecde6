// Package cart is the shopper's cart: an in-memory list of line items that is
// written to the local store after every change.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pawmart/storefront/services/storefront/internal/domain"
	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/notify"
)

// Listener receives the item list after each change.
type Listener func(items []domain.CartItem)

// Container owns the cart state. All methods are safe for concurrent use;
// mutations and their snapshot writes are serialized.
type Container struct {
	mu        sync.Mutex
	items     []domain.CartItem
	store     localstore.Store
	notifier  notify.Notifier
	logger    *slog.Logger
	now       func() time.Time
	listeners map[int]Listener
	nextID    int
}

// New creates the cart and restores the stored snapshot. An unreadable
// snapshot is logged and the cart starts empty.
func New(ctx context.Context, store localstore.Store, notifier notify.Notifier, logger *slog.Logger) *Container {
	c := &Container{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}

	items, err := localstore.LoadItems[domain.CartItem](ctx, store, localstore.KeyCart)
	if err != nil {
		logger.Warn("discarding stored cart", slog.String("error", err.Error()))
		items = nil
	}
	c.items = items
	return c
}

// Add puts product in the cart. An existing line for the same product grows
// by product.Quantity when that is positive, otherwise by quantity, and takes
// the product's colour and size when they are set. Quantities are not
// validated here.
func (c *Container) Add(ctx context.Context, product domain.Product, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneItems(c.items)
	if i := domain.FindCartItem(next, product.ID); i >= 0 {
		delta := quantity
		if product.Quantity > 0 {
			delta = product.Quantity
		}
		next[i].Quantity += delta
		if product.SelectedColor != "" {
			next[i].SelectedColor = product.SelectedColor
		}
		if product.SelectedSize != "" {
			next[i].SelectedSize = product.SelectedSize
		}
	} else {
		next = append(next, domain.NewCartItem(product, quantity))
	}
	return c.commit(ctx, next)
}

// AddOne adds a single unit of product.
func (c *Container) AddOne(ctx context.Context, product domain.Product) error {
	return c.Add(ctx, product, 1)
}

// Remove drops the line for productID.
func (c *Container) Remove(ctx context.Context, productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, productID)
}

func (c *Container) removeLocked(ctx context.Context, productID string) error {
	next := make([]domain.CartItem, 0, len(c.items))
	for _, item := range c.items {
		if item.ID != productID {
			next = append(next, item)
		}
	}
	err := c.commit(ctx, next)
	c.notifier.Info("Item removed from cart")
	return err
}

// UpdateQuantity sets the quantity of productID's line. Anything below 1
// removes the line.
func (c *Container) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quantity < 1 {
		return c.removeLocked(ctx, productID)
	}
	next := cloneItems(c.items)
	if i := domain.FindCartItem(next, productID); i >= 0 {
		next[i].Quantity = quantity
	}
	return c.commit(ctx, next)
}

// Clear empties the cart.
func (c *Container) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.commit(ctx, nil)
	c.notifier.Info("Cart cleared")
	return err
}

// Reset empties the cart without notifying the shopper. It is the hook used
// by the logout policy.
func (c *Container) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(ctx, nil)
}

// Total is the sum of price times quantity over all lines, computed on each
// call. Tax and shipping are the caller's concern.
func (c *Container) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartTotal(c.items)
}

// Count is the number of units in the cart.
func (c *Container) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CartCount(c.items)
}

// Items returns a copy of the line items.
func (c *Container) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.items)
}

// Contains reports whether productID has a line.
func (c *Container) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.FindCartItem(c.items, productID) >= 0
}

// Subscribe registers fn to run after every change. Listeners run while the
// cart is locked and must not call back into it.
func (c *Container) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// commit installs next and writes the snapshot. The in-memory change stands
// even when the write fails.
func (c *Container) commit(ctx context.Context, next []domain.CartItem) error {
	c.items = next
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fn(cloneItems(next))
		}
	}
	if err := localstore.SaveItems(ctx, c.store, localstore.KeyCart, next, c.now()); err != nil {
		c.logger.Error("failed to persist cart", slog.String("error", err.Error()))
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	if len(items) == 0 {
		return nil
	}
	dup := make([]domain.CartItem, len(items))
	copy(dup, items)
	return dup
}
