// Package wishlist is the shopper's wishlist: local-first state with
// best-effort server mirroring and a full push-then-pull sync once a session
// exists.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pawmart/storefront/services/storefront/internal/domain"
	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/notify"
)

var (
	// ErrNoSession is returned by Sync when nobody is signed in.
	ErrNoSession = errors.New("wishlist: no active session")
	// ErrSessionChanged is returned by Sync when the shopper signed out or
	// the wishlist was reset before the server list arrived. The list is
	// discarded.
	ErrSessionChanged = errors.New("wishlist: session changed during sync")
)

// SessionState tells the container whether server calls can be made.
type SessionState interface {
	Active() bool
}

// CommandQueue accepts remote commands. *Dispatcher implements it.
type CommandQueue interface {
	Enqueue(cmd Command) error
}

// Listener receives the state after each transition.
type Listener func(s State)

// Deps are the collaborators of a Container.
type Deps struct {
	Store    localstore.Store
	Remote   Remote
	Session  SessionState
	Commands CommandQueue
	Notifier notify.Notifier
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Container owns the wishlist state. State changes only through Reduce;
// every change to the item list is written to the local store.
type Container struct {
	mu        sync.Mutex
	state     State
	listeners map[int]Listener
	nextID    int
	// epoch counts resets; a sync only applies its result in the epoch it
	// started in.
	epoch uint64

	// syncMu serializes Sync so two logins cannot interleave push and pull.
	syncMu sync.Mutex

	store    localstore.Store
	remote   Remote
	session  SessionState
	commands CommandQueue
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// New creates the container and restores the stored snapshot. An unreadable
// snapshot is logged and the wishlist starts empty.
func New(ctx context.Context, deps Deps) *Container {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := &Container{
		listeners: make(map[int]Listener),
		store:     deps.Store,
		remote:    deps.Remote,
		session:   deps.Session,
		commands:  deps.Commands,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		now:       deps.Now,
	}

	items, err := localstore.LoadItems[domain.WishlistItem](ctx, deps.Store, localstore.KeyWishlist)
	if err != nil {
		deps.Logger.Warn("discarding stored wishlist", slog.String("error", err.Error()))
		items = nil
	}
	c.state = State{Items: items}
	return c
}

// AddItem saves a product locally and, when signed in, on the server too.
// Adding a product that is already present leaves the list unchanged.
func (c *Container) AddItem(ctx context.Context, in domain.NewWishlistItem) error {
	item := in.Build(c.now())
	err := c.dispatch(ctx, AddItem(item))
	c.notifier.Success(fmt.Sprintf("Added %s to wishlist", displayName(in.Name)))

	if c.session.Active() {
		c.enqueue(AddCommand{ProductID: in.ProductID, ItemName: in.Name})
	}
	return err
}

// RemoveItem drops productID locally and, when signed in, on the server.
func (c *Container) RemoveItem(ctx context.Context, productID string) error {
	var name string
	c.mu.Lock()
	if i := domain.FindWishlistItem(c.state.Items, productID); i >= 0 {
		name = c.state.Items[i].Name
	}
	c.mu.Unlock()

	err := c.dispatch(ctx, RemoveItem(productID))
	c.notifier.Info(fmt.Sprintf("Removed %s from wishlist", displayName(name)))

	if c.session.Active() {
		c.enqueue(RemoveCommand{ProductID: productID, ItemName: name})
	}
	return err
}

// Toggle removes the product when present and adds it otherwise. It reports
// whether the product is in the wishlist afterwards.
func (c *Container) Toggle(ctx context.Context, in domain.NewWishlistItem) (bool, error) {
	if c.IsInWishlist(in.ProductID) {
		return false, c.RemoveItem(ctx, in.ProductID)
	}
	return true, c.AddItem(ctx, in)
}

// Clear empties the wishlist locally and, when signed in, on the server.
func (c *Container) Clear(ctx context.Context) error {
	err := c.dispatch(ctx, ClearWishlist())
	c.notifier.Info("Wishlist cleared")

	if c.session.Active() {
		c.enqueue(ClearCommand{})
	}
	return err
}

// Reset empties the wishlist locally without notifying or calling the
// server. It is the hook used by the logout policy.
func (c *Container) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	return c.apply(ctx, SetItems(nil))
}

// Sync reconciles with the server: local items are pushed (the server drops
// duplicates), then the server's list replaces the local one. On failure the
// local items are left as they were and the shopper is notified.
func (c *Container) Sync(ctx context.Context) error {
	if !c.session.Active() {
		return ErrNoSession
	}

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	_ = c.dispatch(ctx, SetLoading(true))
	defer func() { _ = c.dispatch(context.WithoutCancel(ctx), SetLoading(false)) }()

	local := c.Items()
	if len(local) > 0 {
		ids := make([]string, len(local))
		for i, item := range local {
			ids[i] = item.ProductID
		}
		if _, err := c.remote.Sync(ctx, ids); err != nil {
			c.notifySyncFailure(ctx)
			return fmt.Errorf("push wishlist: %w", err)
		}
	}

	server, err := c.remote.List(ctx)
	if err != nil {
		c.notifySyncFailure(ctx)
		return fmt.Errorf("fetch wishlist: %w", err)
	}

	applied, err := c.dispatchInEpoch(ctx, epoch, SetItems(server))
	if err != nil {
		return err
	}
	if !applied {
		c.logger.Info("wishlist sync discarded, session changed",
			slog.Int("items", len(server)),
		)
		return ErrSessionChanged
	}
	c.logger.Info("wishlist synced",
		slog.Int("pushed", len(local)),
		slog.Int("items", len(server)),
	)
	return nil
}

// IsInWishlist reports whether productID is saved.
func (c *Container) IsInWishlist(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.FindWishlistItem(c.state.Items, productID) >= 0
}

// Items returns a copy of the saved items.
func (c *Container) Items() []domain.WishlistItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneItems(c.state.Items)
}

// Count returns the number of saved items.
func (c *Container) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.Items)
}

// IsLoading reports whether a sync is in progress.
func (c *Container) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsLoading
}

// State returns a copy of the full state.
func (c *Container) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Items: cloneItems(c.state.Items), IsLoading: c.state.IsLoading}
}

// Subscribe registers fn to run after every transition. Listeners run while
// the container is locked and must not call back into it.
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

// dispatch applies a through Reduce and persists the items when they may
// have changed. The in-memory transition stands even if the write fails.
func (c *Container) dispatch(ctx context.Context, a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, a)
}

// dispatchInEpoch applies a only if no reset happened since epoch and the
// session is still active. The check and the transition share c.mu, so a
// logout reset either lands after a or makes the check fail.
func (c *Container) dispatchInEpoch(ctx context.Context, epoch uint64, a Action) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch || !c.session.Active() {
		return false, nil
	}
	return true, c.apply(ctx, a)
}

// apply runs a through Reduce. c.mu must be held.
func (c *Container) apply(ctx context.Context, a Action) error {
	c.state = Reduce(c.state, a)
	for id := 0; id < c.nextID; id++ {
		if fn, ok := c.listeners[id]; ok {
			fn(State{Items: cloneItems(c.state.Items), IsLoading: c.state.IsLoading})
		}
	}

	if !changesItems(a) {
		return nil
	}
	if err := localstore.SaveItems(ctx, c.store, localstore.KeyWishlist, c.state.Items, c.now()); err != nil {
		c.logger.Error("failed to persist wishlist",
			slog.String("action", string(a.Type)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("persist wishlist: %w", err)
	}
	return nil
}

// notifySyncFailure stays quiet when the sync was cancelled, which happens
// when the session ends mid-flight.
func (c *Container) notifySyncFailure(ctx context.Context) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	c.notifier.Error("Failed to sync wishlist")
}

func (c *Container) enqueue(cmd Command) {
	err := c.commands.Enqueue(cmd)
	if err != nil && !errors.Is(err, ErrQueueFull) {
		c.logger.Warn("wishlist command not queued",
			slog.String("command", cmd.Name()),
			slog.String("error", err.Error()),
		)
	}
}
