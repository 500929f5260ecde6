// Package app assembles the storefront state layer: local store, session,
// cart, wishlist, remote command dispatcher and sync coordinator.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pawmart/storefront/pkg/httpclient"
	"github.com/pawmart/storefront/services/storefront/internal/cart"
	"github.com/pawmart/storefront/services/storefront/internal/config"
	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/notify"
	"github.com/pawmart/storefront/services/storefront/internal/session"
	"github.com/pawmart/storefront/services/storefront/internal/syncer"
	"github.com/pawmart/storefront/services/storefront/internal/wishlist"
	"github.com/pawmart/storefront/services/storefront/internal/wishlistapi"
)

// App owns every container for one profile. Build it with New, call Start
// to begin syncing, and Close when done.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	notifier notify.Notifier
	now      func() time.Time

	store       localstore.Store
	signal      *session.Signal
	stopPersist func()
	remote      wishlist.Remote
	dispatcher  *wishlist.Dispatcher
	cart        *cart.Container
	wishlist    *wishlist.Container
	coordinator *syncer.Coordinator
}

// Option customizes New.
type Option func(*options)

type options struct {
	store  localstore.Store
	remote wishlist.Remote
	now    func() time.Time
}

// WithStore uses store instead of opening the configured backend. App.Close
// still closes it.
func WithStore(store localstore.Store) Option {
	return func(o *options) { o.store = store }
}

// WithRemote replaces the HTTP wishlist client.
func WithRemote(remote wishlist.Remote) Option {
	return func(o *options) { o.remote = remote }
}

// WithClock sets the time source used for session expiry and item timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New wires the state layer and restores persisted state.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, notifier notify.Notifier, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = localstore.Open(ctx, cfg.StoreOptions(), logger)
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
	}

	signal := session.NewSignal()
	sess, err := session.Load(ctx, store, o.now())
	if err != nil {
		logger.Warn("failed to restore session", slog.String("error", err.Error()))
	}
	if sess != nil {
		signal.Set(sess)
		logger.Debug("restored session", slog.String("user_id", sess.UserID))
	}
	stopPersist := session.Persist(signal, store, logger)

	remote := o.remote
	if remote == nil {
		remote = wishlistapi.New(cfg.API.URL, signal, httpConfig(cfg), breakerConfig(cfg), logger)
	}

	dispatcher := wishlist.NewDispatcher(remote, notifier, logger, dispatcherConfig(cfg))

	cartC := cart.New(ctx, store, notifier, logger)
	wishlistC := wishlist.New(ctx, wishlist.Deps{
		Store:    store,
		Remote:   remote,
		Session:  signal,
		Commands: dispatcher,
		Notifier: notifier,
		Logger:   logger,
		Now:      o.now,
	})

	coordinator := syncer.New(signal, wishlistC, syncer.Config{
		Interval:     time.Duration(cfg.Sync.Interval),
		Timeout:      time.Duration(cfg.Sync.Timeout),
		LogoutPolicy: cfg.LogoutPolicy(),
	}, logger, cartC, wishlistC)

	return &App{
		cfg:         cfg,
		logger:      logger,
		notifier:    notifier,
		now:         o.now,
		store:       store,
		signal:      signal,
		stopPersist: stopPersist,
		remote:      remote,
		dispatcher:  dispatcher,
		cart:        cartC,
		wishlist:    wishlistC,
		coordinator: coordinator,
	}, nil
}

func httpConfig(cfg config.Config) httpclient.Config {
	c := httpclient.DefaultConfig()
	c.Timeout = time.Duration(cfg.API.Timeout)
	c.MaxRetries = cfg.API.MaxRetries
	if cfg.API.RetryDelay > 0 {
		c.RetryWaitMin = time.Duration(cfg.API.RetryDelay)
		c.RetryWaitMax = 8 * time.Duration(cfg.API.RetryDelay)
	}
	return c
}

func breakerConfig(cfg config.Config) httpclient.CircuitBreakerConfig {
	c := httpclient.DefaultCircuitBreakerConfig("wishlist-api")
	if cfg.API.BreakerMaxRequests > 0 {
		c.MaxRequests = cfg.API.BreakerMaxRequests
	}
	if cfg.API.BreakerTimeout > 0 {
		c.Timeout = time.Duration(cfg.API.BreakerTimeout)
	}
	return c
}

func dispatcherConfig(cfg config.Config) wishlist.DispatcherConfig {
	c := wishlist.DefaultDispatcherConfig()
	if cfg.Sync.CommandQueue > 0 {
		c.QueueSize = cfg.Sync.CommandQueue
	}
	if cfg.Sync.CommandTimeout > 0 {
		c.Timeout = time.Duration(cfg.Sync.CommandTimeout)
	}
	if cfg.Sync.RetryAttempts > 0 {
		c.Retry = wishlist.Backoff{
			Attempts: 1 + cfg.Sync.RetryAttempts,
			Base:     500 * time.Millisecond,
			Max:      10 * time.Second,
		}
	}
	return c
}

// Start begins watching the session. If a restored session is present the
// wishlist sync starts right away in the background.
func (a *App) Start(ctx context.Context) {
	a.coordinator.Start(ctx)
}

// Settle waits for background syncs and queued remote commands, or until
// ctx is done.
func (a *App) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.coordinator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.dispatcher.Drain(ctx)
}

// Login starts a session from a bearer token. The coordinator syncs the
// wishlist once the session is set.
func (a *App) Login(token string) (*session.Session, error) {
	sess, err := session.FromToken(token, a.now())
	if err != nil {
		return nil, err
	}
	a.signal.Set(sess)
	a.logger.Info("signed in", slog.String("user_id", sess.UserID))
	return sess, nil
}

// Logout ends the session. What happens to local state depends on the
// configured logout policy.
func (a *App) Logout() {
	if !a.signal.Active() {
		return
	}
	a.signal.Clear()
	a.logger.Info("signed out")
}

// Sync runs the wishlist reconciliation in the foreground.
func (a *App) Sync(ctx context.Context) error {
	return a.wishlist.Sync(ctx)
}

func (a *App) Cart() *cart.Container         { return a.cart }
func (a *App) Wishlist() *wishlist.Container { return a.wishlist }
func (a *App) Session() *session.Signal      { return a.signal }
func (a *App) Config() config.Config         { return a.cfg }

// Close waits for in-flight work (bounded by ctx), then stops the
// coordinator and dispatcher and closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Settle(ctx); err != nil {
		errs = append(errs, fmt.Errorf("settle: %w", err))
	}
	a.coordinator.Stop()
	a.dispatcher.Close()
	a.stopPersist()

	if err := a.store.Close(); err != nil && !errors.Is(err, localstore.ErrClosed) {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
