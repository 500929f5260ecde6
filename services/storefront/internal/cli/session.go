package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pawmart/storefront/services/storefront/internal/app"
	"github.com/pawmart/storefront/services/storefront/internal/domain"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Sign in with an access token",
		Long: `Sign in with an access token issued by the PawMart auth service.
Pass the token as an argument, or '-' (or nothing) to read it from stdin.

Signing in merges the local wishlist into your account.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 && args[0] != "-" {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token from stdin: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			return opts.withApp(cmd, true, func(_ context.Context, a *app.App) error {
				sess, err := a.Login(token)
				if err != nil {
					return err
				}
				who := sess.UserID
				if sess.Email != "" {
					who = sess.Email
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", who)
				return nil
			})
		},
	}
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, true, func(_ context.Context, a *app.App) error {
				if !a.Session().Active() {
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
					return nil
				}
				a.Logout()
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the local wishlist with your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.App) error {
				if !a.Session().Active() {
					return fmt.Errorf("not signed in; run 'storefront login' first")
				}
				if err := a.Sync(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wishlist synced: %d items\n", a.Wishlist().Count())
				return nil
			})
		},
	}
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show profile, session and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				cfg := a.Config()
				fmt.Fprintf(w, "Profile:  %s\n", cfg.Profile)
				fmt.Fprintf(w, "Store:    %s\n", cfg.Store.Backend)
				fmt.Fprintf(w, "API:      %s\n", cfg.API.URL)

				if sess := a.Session().Current(); sess != nil {
					line := sess.UserID
					if !sess.ExpiresAt.IsZero() {
						line += " (expires " + sess.ExpiresAt.Local().Format("2006-01-02 15:04") + ")"
					}
					fmt.Fprintf(w, "Session:  %s\n", line)
				} else {
					fmt.Fprintln(w, "Session:  signed out")
				}

				fmt.Fprintf(w, "Cart:     %d items, %s\n", a.Cart().Count(), domain.FormatPrice(a.Cart().Total()))
				fmt.Fprintf(w, "Wishlist: %d items\n", a.Wishlist().Count())
				return nil
			})
		},
	}
}
