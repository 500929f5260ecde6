// Package syncer runs the wishlist reconciliation when a session appears and
// applies the logout policy when it goes away.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pawmart/storefront/services/storefront/internal/session"
)

// LogoutPolicy says what happens to local state when the session ends.
type LogoutPolicy string

const (
	// LogoutKeep leaves cart and wishlist untouched.
	LogoutKeep LogoutPolicy = "keep"
	// LogoutClear empties cart and wishlist locally, without server calls.
	LogoutClear LogoutPolicy = "clear"
)

// ParseLogoutPolicy accepts "keep" or "clear"; empty means keep.
func ParseLogoutPolicy(s string) (LogoutPolicy, error) {
	switch LogoutPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LogoutKeep:
		return LogoutKeep, nil
	case LogoutClear:
		return LogoutClear, nil
	default:
		return "", fmt.Errorf("unknown logout policy %q (want keep or clear)", s)
	}
}

// Syncer is the wishlist reconciliation.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Resetter empties local state.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Config tunes a Coordinator.
type Config struct {
	// Interval re-runs the sync periodically while signed in. Zero disables it.
	Interval time.Duration
	// Timeout bounds one sync run.
	Timeout      time.Duration
	LogoutPolicy LogoutPolicy
}

// Coordinator watches the session signal. Syncs run in the background so
// callers never wait on the network.
type Coordinator struct {
	signal    *session.Signal
	wishlist  Syncer
	resetters []Resetter
	cfg       Config
	logger    *slog.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup

	// sessionCtx is a child of ctx, replaced whenever the session starts,
	// changes user or ends, so syncs of a finished session are cancelled.
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
}

// New creates a coordinator. resetters are emptied on logout under
// LogoutClear.
func New(signal *session.Signal, wishlist Syncer, cfg Config, logger *slog.Logger, resetters ...Resetter) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.LogoutPolicy == "" {
		cfg.LogoutPolicy = LogoutKeep
	}
	return &Coordinator{
		signal:    signal,
		wishlist:  wishlist,
		resetters: resetters,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start subscribes to the session signal and syncs immediately when a
// session is already present. Calling Start twice is a no-op.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.ctx != nil {
		c.mu.Unlock()
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.sessionCtx, c.sessionCancel = context.WithCancel(c.ctx)
	c.unsubscribe = c.signal.Subscribe(c.onChange)
	c.mu.Unlock()

	if c.signal.Active() {
		c.Trigger("startup")
	}
	if c.cfg.Interval > 0 {
		c.wg.Add(1)
		go c.loop()
	}
}

// Trigger starts a background sync. reason is recorded in logs and metrics.
func (c *Coordinator) Trigger(reason string) {
	c.mu.Lock()
	ctx := c.sessionCtx
	if ctx == nil || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.run(ctx, reason)
	}()
}

// Wait blocks until in-flight syncs finish.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Stop unsubscribes, cancels running syncs and waits for them.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Coordinator) onChange(prev, next *session.Session) {
	switch {
	case next != nil && (prev == nil || prev.UserID != next.UserID):
		c.renewSession()
		c.logger.Info("session started, syncing wishlist", slog.String("user_id", next.UserID))
		c.Trigger("login")
	case prev != nil && next == nil:
		c.renewSession()
		c.onLogout(prev)
	}
}

// renewSession cancels syncs started for the previous session.
func (c *Coordinator) renewSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return
	}
	c.sessionCancel()
	c.sessionCtx, c.sessionCancel = context.WithCancel(c.ctx)
}

func (c *Coordinator) currentSessionCtx() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionCtx
}

func (c *Coordinator) onLogout(prev *session.Session) {
	if c.cfg.LogoutPolicy != LogoutClear {
		c.logger.Info("session ended, keeping local state", slog.String("user_id", prev.UserID))
		return
	}
	c.logger.Info("session ended, clearing local state", slog.String("user_id", prev.UserID))

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	for _, r := range c.resetters {
		if err := r.Reset(ctx); err != nil {
			c.logger.Error("failed to reset local state on logout", slog.String("error", err.Error()))
		}
	}
}

func (c *Coordinator) loop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.signal.Active() {
				c.run(c.currentSessionCtx(), "interval")
			}
		}
	}
}

func (c *Coordinator) run(parent context.Context, reason string) {
	ctx, cancel := context.WithTimeout(parent, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err := c.wishlist.Sync(ctx)
	syncDuration.WithLabelValues(reason).Observe(time.Since(start).Seconds())

	if err != nil {
		syncTotal.WithLabelValues(reason, "error").Inc()
		c.logger.Warn("wishlist sync failed",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}
	syncTotal.WithLabelValues(reason, "ok").Inc()
}
