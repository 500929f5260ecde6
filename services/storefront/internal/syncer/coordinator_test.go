package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/storefront/services/storefront/internal/session"
)

type fakeSyncer struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *fakeSyncer) Sync(ctx context.Context) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeResetter struct {
	mu     sync.Mutex
	resets int
}

func (f *fakeResetter) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeResetter) Resets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func user(id string) *session.Session {
	return &session.Session{UserID: id, Token: "tok-" + id}
}

// --- ParseLogoutPolicy ---

func TestParseLogoutPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    LogoutPolicy
		wantErr bool
	}{
		{"", LogoutKeep, false},
		{"keep", LogoutKeep, false},
		{" Clear ", LogoutClear, false},
		{"wipe", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLogoutPolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// --- Coordinator ---

func TestCoordinator_NoSessionAtStart_DoesNotSync(t *testing.T) {
	sig := session.NewSignal()
	ws := &fakeSyncer{}
	c := New(sig, ws, Config{}, testLogger())

	c.Start(context.Background())
	c.Wait()
	c.Stop()

	assert.Equal(t, 0, ws.Calls())
}

func TestCoordinator_SessionAtStart_Syncs(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	ws := &fakeSyncer{}
	c := New(sig, ws, Config{}, testLogger())

	c.Start(context.Background())
	c.Wait()
	defer c.Stop()

	assert.Equal(t, 1, ws.Calls())
}

func TestCoordinator_Login_Syncs(t *testing.T) {
	sig := session.NewSignal()
	ws := &fakeSyncer{}
	c := New(sig, ws, Config{}, testLogger())
	c.Start(context.Background())
	defer c.Stop()

	sig.Set(user("u1"))
	c.Wait()
	assert.Equal(t, 1, ws.Calls())

	// Refreshing the token for the same user does not resync.
	sig.Set(&session.Session{UserID: "u1", Token: "refreshed"})
	c.Wait()
	assert.Equal(t, 1, ws.Calls())

	// Switching users does.
	sig.Set(user("u2"))
	c.Wait()
	assert.Equal(t, 2, ws.Calls())
}

func TestCoordinator_SyncError_IsSwallowed(t *testing.T) {
	sig := session.NewSignal()
	ws := &fakeSyncer{err: errors.New("boom")}
	c := New(sig, ws, Config{}, testLogger())
	c.Start(context.Background())
	defer c.Stop()

	sig.Set(user("u1"))
	c.Wait()
	assert.Equal(t, 1, ws.Calls())
}

func TestCoordinator_LogoutKeep_DoesNotReset(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	r := &fakeResetter{}
	c := New(sig, &fakeSyncer{}, Config{LogoutPolicy: LogoutKeep}, testLogger(), r)
	c.Start(context.Background())
	defer c.Stop()
	c.Wait()

	sig.Clear()
	assert.Equal(t, 0, r.Resets())
}

func TestCoordinator_LogoutClear_ResetsAll(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	cartReset, wishlistReset := &fakeResetter{}, &fakeResetter{}
	c := New(sig, &fakeSyncer{}, Config{LogoutPolicy: LogoutClear}, testLogger(), cartReset, wishlistReset)
	c.Start(context.Background())
	defer c.Stop()
	c.Wait()

	sig.Clear()
	assert.Equal(t, 1, cartReset.Resets())
	assert.Equal(t, 1, wishlistReset.Resets())
}

func TestCoordinator_Logout_CancelsInFlightSync(t *testing.T) {
	sig := session.NewSignal()
	ws := &fakeSyncer{block: make(chan struct{})}
	c := New(sig, ws, Config{Timeout: time.Minute, LogoutPolicy: LogoutClear}, testLogger(), &fakeResetter{})
	c.Start(context.Background())
	defer c.Stop()

	sig.Set(user("u1"))
	sig.Clear()

	waited := make(chan struct{})
	go func() {
		c.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("logout did not cancel the running sync")
	}
	assert.Equal(t, 0, ws.Calls())

	// The next session syncs normally.
	close(ws.block)
	sig.Set(user("u2"))
	c.Wait()
	assert.Equal(t, 1, ws.Calls())
}

func TestCoordinator_UserSwitch_CancelsPreviousUsersSync(t *testing.T) {
	sig := session.NewSignal()
	ws := &fakeSyncer{block: make(chan struct{})}
	c := New(sig, ws, Config{Timeout: time.Minute}, testLogger())
	c.Start(context.Background())
	defer c.Stop()

	sig.Set(user("u1"))
	c.mu.Lock()
	first := c.sessionCtx
	c.mu.Unlock()

	sig.Set(user("u2"))
	require.ErrorIs(t, first.Err(), context.Canceled)
	c.mu.Lock()
	second := c.sessionCtx
	c.mu.Unlock()
	assert.NoError(t, second.Err())
}

func TestCoordinator_Stop_CancelsInFlightSync(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	ws := &fakeSyncer{block: make(chan struct{})}
	c := New(sig, ws, Config{}, testLogger())
	c.Start(context.Background())

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, 0, ws.Calls())

	// No further syncs after Stop.
	sig.Set(user("u2"))
	c.Wait()
	assert.Equal(t, 0, ws.Calls())
}

func TestCoordinator_Interval_ResyncsWhileSignedIn(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	ws := &fakeSyncer{}
	c := New(sig, ws, Config{Interval: 10 * time.Millisecond}, testLogger())
	c.Start(context.Background())
	defer c.Stop()

	assert.Eventually(t, func() bool { return ws.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestCoordinator_Timeout_BoundsSync(t *testing.T) {
	sig := session.NewSignal()
	sig.Set(user("u1"))
	ws := &fakeSyncer{block: make(chan struct{})}
	c := New(sig, ws, Config{Timeout: 20 * time.Millisecond}, testLogger())
	c.Start(context.Background())
	defer c.Stop()

	waited := make(chan struct{})
	go func() {
		c.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("sync was not bounded by the timeout")
	}
}
