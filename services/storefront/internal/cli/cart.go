package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pawmart/storefront/services/storefront/internal/app"
	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

func newCartCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "View and change the shopping cart",
	}
	cmd.AddCommand(
		newCartListCommand(opts),
		newCartAddCommand(opts),
		newCartRemoveCommand(opts),
		newCartUpdateCommand(opts),
		newCartClearCommand(opts),
		newCartTotalCommand(opts),
	)
	return cmd
}

func newCartListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cart items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.App) error {
				printCart(cmd.OutOrStdout(), a.Cart().Items())
				return nil
			})
		},
	}
}

type productFlags struct {
	name     string
	slug     string
	price    string
	sale     string
	images   []string
	color    string
	size     string
	outStock bool
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.price, "price", "", "unit price, e.g. 12.99")
	cmd.Flags().StringSliceVar(&f.images, "image", nil, "product image URL (repeatable)")
	_ = cmd.MarkFlagRequired("price")
}

func (f *productFlags) product(id string) (domain.Product, error) {
	price, err := domain.ParsePrice(f.price)
	if err != nil {
		return domain.Product{}, err
	}
	p := domain.Product{
		ID:            id,
		Name:          f.name,
		Slug:          f.slug,
		Price:         price,
		Images:        f.images,
		InStock:       !f.outStock,
		SelectedColor: f.color,
		SelectedSize:  f.size,
	}
	if f.sale != "" {
		sale, err := domain.ParsePrice(f.sale)
		if err != nil {
			return domain.Product{}, err
		}
		p.SalePrice = &sale
	}
	if p.Name == "" {
		p.Name = id
	}
	return p, nil
}

func newCartAddCommand(opts *rootOptions) *cobra.Command {
	var (
		pf  productFlags
		qty int
	)
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Long: `Add a product to the cart. Adding a product that is already in the cart
increases its quantity; a colour or size given here replaces the previous one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if qty < 1 {
				return fmt.Errorf("quantity must be at least 1")
			}
			p, err := pf.product(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if err := a.Cart().Add(ctx, p, qty); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cart total: %s\n", domain.FormatPrice(a.Cart().Total()))
				return nil
			})
		},
	}
	pf.register(cmd)
	cmd.Flags().IntVarP(&qty, "quantity", "q", 1, "quantity to add")
	cmd.Flags().StringVar(&pf.color, "color", "", "selected colour")
	cmd.Flags().StringVar(&pf.size, "size", "", "selected size")
	return cmd
}

func newCartRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a product from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				return a.Cart().Remove(ctx, args[0])
			})
		},
	}
}

func newCartUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart item (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 0 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if !a.Cart().Contains(args[0]) {
					return fmt.Errorf("%s is not in the cart", args[0])
				}
				return a.Cart().UpdateQuantity(ctx, args[0], qty)
			})
		},
	}
}

func newCartClearCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				return a.Cart().Clear(ctx)
			})
		},
	}
}

func newCartTotalCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the cart total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), domain.FormatPrice(a.Cart().Total()))
				return nil
			})
		},
	}
}
