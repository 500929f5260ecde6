package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pawmart/storefront/services/storefront/internal/localstore"
)

type storedSession struct {
	Token string `json:"token"`
}

// Load restores the session saved under localstore.KeySession. It returns
// nil without error when nothing usable is stored; an expired or unreadable
// entry is deleted.
func Load(ctx context.Context, store localstore.Store, now time.Time) (*Session, error) {
	data, err := store.Load(ctx, localstore.KeySession)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, forget(ctx, store)
	}
	sess, err := FromToken(stored.Token, now)
	if err != nil {
		return nil, forget(ctx, store)
	}
	return sess, nil
}

// Save persists the session token.
func Save(ctx context.Context, store localstore.Store, sess *Session) error {
	data, err := json.Marshal(storedSession{Token: sess.Token})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := store.Save(ctx, localstore.KeySession, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func forget(ctx context.Context, store localstore.Store) error {
	if err := store.Delete(ctx, localstore.KeySession); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Persist mirrors every change of sig into store until the returned function
// is called. Write failures are logged.
func Persist(sig *Signal, store localstore.Store, l *slog.Logger) (stop func()) {
	return sig.Subscribe(func(_, next *Session) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		if next == nil {
			err = forget(ctx, store)
		} else {
			err = Save(ctx, store, next)
		}
		if err != nil {
			l.Warn("session not persisted", slog.String("error", err.Error()))
		}
	})
}
