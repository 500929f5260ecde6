package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawmart/storefront/services/storefront/internal/app"
	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

func newWishlistCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wishlist",
		Aliases: []string{"wl"},
		Short:   "View and change the wishlist",
	}
	cmd.AddCommand(
		newWishlistListCommand(opts),
		newWishlistAddCommand(opts),
		newWishlistRemoveCommand(opts),
		newWishlistToggleCommand(opts),
		newWishlistClearCommand(opts),
	)
	return cmd
}

func newWishlistListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved products",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, true, func(_ context.Context, a *app.App) error {
				printWishlist(cmd.OutOrStdout(), a.Wishlist().Items())
				return nil
			})
		},
	}
}

func registerWishlistFlags(cmd *cobra.Command, pf *productFlags) {
	pf.register(cmd)
	cmd.Flags().StringVar(&pf.slug, "slug", "", "product slug")
	cmd.Flags().StringVar(&pf.sale, "sale-price", "", "sale price, e.g. 9.99")
	cmd.Flags().BoolVar(&pf.outStock, "out-of-stock", false, "mark the product as out of stock")
}

func wishlistInput(pf *productFlags, id string) (domain.NewWishlistItem, error) {
	p, err := pf.product(id)
	if err != nil {
		return domain.NewWishlistItem{}, err
	}
	in := domain.NewWishlistItem{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		InStock:   p.InStock,
	}
	if len(p.Images) > 0 {
		in.Image = p.Images[0]
	}
	return in, nil
}

func newWishlistAddCommand(opts *rootOptions) *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Save a product to the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := wishlistInput(&pf, args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				return a.Wishlist().AddItem(ctx, in)
			})
		},
	}
	registerWishlistFlags(cmd, &pf)
	return cmd
}

func newWishlistRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a product from the wishlist",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				return a.Wishlist().RemoveItem(ctx, args[0])
			})
		},
	}
}

func newWishlistToggleCommand(opts *rootOptions) *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "toggle <product-id>",
		Short: "Save a product, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := wishlistInput(&pf, args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				saved, err := a.Wishlist().Toggle(ctx, in)
				if err != nil {
					return err
				}
				if saved {
					fmt.Fprintf(cmd.OutOrStdout(), "%s saved\n", in.ProductID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", in.ProductID)
				}
				return nil
			})
		},
	}
	registerWishlistFlags(cmd, &pf)
	return cmd
}

func newWishlistClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every saved product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.App) error {
				return a.Wishlist().Clear(ctx)
			})
		},
	}
}
