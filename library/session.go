package library

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// SessionStore persists the logged-in admin between runs. Database
// implements it.
type SessionStore interface {
	SaveSession(user Admin) error
	LoadSession() (Admin, bool, error)
	ClearSession() error
}

// Session is the authenticated state of one dashboard user. It is
// created by Login or RestoreSession and ends with Logout, or with
// Invalidate when the API stops accepting it.
type Session struct {
	store SessionStore

	mu     sync.RWMutex
	user   Admin
	active bool
}

// Login checks the credentials against the API and, on success, records
// the admin in store. A false answer is ErrInvalidCredentials.
func Login(ctx context.Context, api API, store SessionStore, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	ok, err := api.Login(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "login")
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	user := Admin{Email: email}
	if store != nil {
		if err := store.SaveSession(user); err != nil {
			return nil, errors.Wrap(err, "persist session")
		}
	}
	return &Session{store: store, user: user, active: true}, nil
}

// RestoreSession returns the session saved by an earlier Login, or
// ErrNoSession when there is none.
func RestoreSession(store SessionStore) (*Session, error) {
	user, ok, err := store.LoadSession()
	if err != nil {
		return nil, errors.Wrap(err, "restore session")
	}
	if !ok {
		return nil, ErrNoSession
	}
	return &Session{store: store, user: user, active: true}, nil
}

// Active reports whether the session may still be used. A nil session is
// never active.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// User returns the admin the session belongs to.
func (s *Session) User() Admin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Logout ends the session and forgets it in the store.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return errors.Wrap(s.store.ClearSession(), "logout")
}

// Invalidate ends the session after the API rejected it. Unlike Logout
// it cannot fail; a store error only leaves a stale record that the next
// rejected request clears again.
func (s *Session) Invalidate() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	if s.store != nil {
		_ = s.store.ClearSession()
	}
}
