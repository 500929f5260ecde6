// Package session tracks the shopper's authenticated session and notifies
// subscribers when it appears or disappears. Issuing tokens is the auth
// service's job; this package only carries them.
package session

import (
	"sync"
	"time"
)

// Session is an authenticated shopper.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session's token has expired at now. A zero
// ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Listener observes a session change. prev or next is nil when no session
// was or is active.
type Listener func(prev, next *Session)

// Signal is the observable current session.
type Signal struct {
	mu        sync.Mutex
	current   *Session
	listeners map[int]Listener
	nextID    int
}

// NewSignal creates a signal with no active session.
func NewSignal() *Signal {
	return &Signal{listeners: make(map[int]Listener)}
}

// Current returns the active session or nil.
func (s *Signal) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Active reports whether a session is present.
func (s *Signal) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Token returns the bearer token of the active session, or "".
func (s *Signal) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Set makes sess the active session and notifies listeners. A nil sess is
// the same as Clear.
func (s *Signal) Set(sess *Session) {
	var next *Session
	if sess != nil {
		cp := *sess
		next = &cp
	}
	s.swap(next)
}

// Clear ends the active session, notifying listeners if one was present.
func (s *Signal) Clear() {
	s.swap(nil)
}

func (s *Signal) swap(next *Session) {
	s.mu.Lock()
	prev := s.current
	s.current = next
	if prev == nil && next == nil {
		s.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(copySession(prev), copySession(next))
	}
}

// Subscribe registers fn for future changes, in subscription order. The
// returned function removes it.
func (s *Signal) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
