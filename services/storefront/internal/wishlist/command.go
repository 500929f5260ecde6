package wishlist

import (
	"context"
	"fmt"

	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

// Remote is the server side of the wishlist.
type Remote interface {
	List(ctx context.Context) ([]domain.WishlistItem, error)
	Sync(ctx context.Context, productIDs []string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, productID string) (*domain.WishlistItem, error)
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Command is a remote mutation issued after the local state already changed.
type Command interface {
	// Name labels the command in logs and metrics.
	Name() string
	Execute(ctx context.Context, r Remote) error
	// FailureMessage is shown to the shopper when the command gives up.
	FailureMessage() string
}

// AddCommand mirrors a local add on the server.
type AddCommand struct {
	ProductID string
	// ItemName is used in the failure notification.
	ItemName string
}

func (AddCommand) Name() string { return "add" }

func (c AddCommand) Execute(ctx context.Context, r Remote) error {
	_, err := r.Add(ctx, c.ProductID)
	return err
}

func (c AddCommand) FailureMessage() string {
	return fmt.Sprintf("Could not save %s to your account wishlist", displayName(c.ItemName))
}

// RemoveCommand mirrors a local removal on the server.
type RemoveCommand struct {
	ProductID string
	// ItemName is used in the failure notification.
	ItemName string
}

func (RemoveCommand) Name() string { return "remove" }

func (c RemoveCommand) Execute(ctx context.Context, r Remote) error {
	return r.Remove(ctx, c.ProductID)
}

func (c RemoveCommand) FailureMessage() string {
	return fmt.Sprintf("Could not remove %s from your account wishlist", displayName(c.ItemName))
}

// ClearCommand mirrors a local clear on the server.
type ClearCommand struct{}

func (ClearCommand) Name() string { return "clear" }

func (ClearCommand) Execute(ctx context.Context, r Remote) error {
	return r.Clear(ctx)
}

func (ClearCommand) FailureMessage() string {
	return "Could not clear your account wishlist"
}

func displayName(name string) string {
	if name == "" {
		return "item"
	}
	return name
}
