package wishlist

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pawmart/storefront/services/storefront/internal/notify"
)

// ErrDispatcherClosed is returned by Enqueue after Close.
var ErrDispatcherClosed = errors.New("wishlist: dispatcher closed")

// ErrQueueFull is returned by Enqueue when the backlog is at capacity.
var ErrQueueFull = errors.New("wishlist: command queue full")

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	// QueueSize bounds the backlog of commands waiting to run.
	QueueSize int
	// Timeout bounds one attempt of one command.
	Timeout time.Duration
	// Retry decides whether a failed command runs again. Nil means NoRetry.
	Retry RetryPolicy
}

// DefaultDispatcherConfig runs each command once with a 15s timeout.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 64, Timeout: 15 * time.Second, Retry: NoRetry{}}
}

// Dispatcher runs remote commands one at a time on a background goroutine,
// in the order they were enqueued. Failures are reported to the notifier and
// never undo the local change that issued the command.
type Dispatcher struct {
	remote   Remote
	notifier notify.Notifier
	logger   *slog.Logger
	cfg      DispatcherConfig

	queue  chan Command
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	closed  bool
	pending int
	idle    chan struct{}
}

// NewDispatcher starts the worker goroutine. Call Close to stop it.
func NewDispatcher(remote Remote, notifier notify.Notifier, logger *slog.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDispatcherConfig().Timeout
	}
	if cfg.Retry == nil {
		cfg.Retry = NoRetry{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		queue:    make(chan Command, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Enqueue schedules cmd without blocking. When the queue is full or the
// dispatcher is closed the command is dropped and the shopper is told.
func (d *Dispatcher) Enqueue(cmd Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- cmd:
		d.pending++
		if d.idle == nil {
			d.idle = make(chan struct{})
		}
		return nil
	default:
		commandsTotal.WithLabelValues(cmd.Name(), "dropped").Inc()
		d.logger.Warn("wishlist command dropped, queue full", slog.String("command", cmd.Name()))
		d.notifier.Error(cmd.FailureMessage())
		return ErrQueueFull
	}
}

// Drain blocks until every enqueued command has finished or ctx ends.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	if d.pending == 0 {
		d.mu.Unlock()
		return nil
	}
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting commands, cancels the one in flight and waits for the
// worker to exit. Queued commands that have not started are discarded; call
// Drain first to let them finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.cancel()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for cmd := range d.queue {
		if d.ctx.Err() == nil {
			d.execute(cmd)
		}
		d.finish()
	}
}

func (d *Dispatcher) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending--
	if d.pending == 0 && d.idle != nil {
		close(d.idle)
		d.idle = nil
	}
}

func (d *Dispatcher) execute(cmd Command) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
		err := cmd.Execute(ctx, d.remote)
		cancel()

		if err == nil {
			commandsTotal.WithLabelValues(cmd.Name(), "ok").Inc()
			commandAttempts.Observe(float64(attempt))
			return
		}
		if d.ctx.Err() != nil {
			commandsTotal.WithLabelValues(cmd.Name(), "canceled").Inc()
			return
		}

		wait, retry := d.cfg.Retry.Next(attempt, err)
		if !retry {
			commandsTotal.WithLabelValues(cmd.Name(), "failed").Inc()
			commandAttempts.Observe(float64(attempt))
			d.logger.Error("wishlist command failed",
				slog.String("command", cmd.Name()),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			d.notifier.Error(cmd.FailureMessage())
			return
		}

		d.logger.Warn("retrying wishlist command",
			slog.String("command", cmd.Name()),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.String("error", err.Error()),
		)
		select {
		case <-time.After(wait):
		case <-d.ctx.Done():
			commandsTotal.WithLabelValues(cmd.Name(), "canceled").Inc()
			return
		}
	}
}
