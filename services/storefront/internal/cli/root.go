// Package cli is the storefront command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pawmart/storefront/pkg/logger"
	"github.com/pawmart/storefront/services/storefront/internal/app"
	"github.com/pawmart/storefront/services/storefront/internal/config"
	"github.com/pawmart/storefront/services/storefront/internal/notify"
)

type rootOptions struct {
	configPath string
	profile    string
	logLevel   string
	timeout    time.Duration
}

// NewRootCommand builds the storefront command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Manage your PawMart cart and wishlist",
		Long: `Manage your PawMart cart and wishlist from the terminal.

The cart and wishlist are kept locally per profile. Once you sign in with
'storefront login', wishlist changes are mirrored to your account and the
local wishlist is merged with the one on the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVarP(&opts.profile, "profile", "p", "", "profile to use")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "how long to wait for the server")

	root.AddCommand(
		newCartCommand(opts),
		newWishlistCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newSyncCommand(opts),
		newStatusCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	var opts []config.Option
	if o.profile != "" {
		opts = append(opts, config.WithProfile(o.profile))
	}
	if o.logLevel != "" {
		opts = append(opts, config.WithLogLevel(o.logLevel))
	}
	return config.Load(o.configPath, opts...)
}

// withApp builds the app, runs fn and closes the app, waiting for mirrored
// wishlist changes to reach the server. When autoSync is set the session
// watcher is started and any startup sync finishes before fn runs.
func (o *rootOptions) withApp(cmd *cobra.Command, autoSync bool, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewText("storefront", cfg.LogLevel, cmd.ErrOrStderr())
	notifier := notify.NewTerminal(cmd.ErrOrStderr())

	a, err := app.New(ctx, cfg, log, notifier)
	if err != nil {
		return err
	}

	if autoSync {
		a.Start(ctx)
		settleCtx, cancel := context.WithTimeout(ctx, o.timeout)
		if err := a.Settle(settleCtx); err != nil {
			log.Warn("startup sync did not finish", slog.String("error", err.Error()))
		}
		cancel()
	}

	runErr := fn(ctx, a)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()
	if err := a.Close(closeCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shut down: %w", err))
	}
	return runErr
}
