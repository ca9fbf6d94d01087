// Package session holds the signed-in user's token and profile. The token
// lives in the keyring and the profile in the local cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("not signed in (run 'invoicer auth login')")

// Session is an immutable snapshot of the authentication state
type Session struct {
	Token string
	User  *domain.User
}

// Authenticated reports whether a token is present
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Manager owns the session state. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	current Session

	keys   crypto.Keyring
	users  repository.UserCache
	logger *zap.Logger
}

func NewManager(keys crypto.Keyring, users repository.UserCache, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{keys: keys, users: users, logger: logger}
}

// Initialize restores the session from the keyring and the cache. A missing
// token or profile leaves the session signed out and is not an error.
func (m *Manager) Initialize(ctx context.Context) error {
	token, err := m.keys.Get(crypto.TokenKey)
	if err != nil {
		if errors.Is(err, crypto.ErrSecretNotFound) {
			m.set(Session{})
			return nil
		}
		return fmt.Errorf("failed to read token: %w", err)
	}

	var user *domain.User
	if m.users != nil {
		user, err = m.users.Get(ctx)
		if err != nil && !errors.Is(err, repository.ErrNotCached) {
			m.logger.Warn("cached user unreadable", zap.Error(err))
		}
	}

	m.set(Session{Token: token, User: user})
	m.logger.Debug("session restored", zap.Bool("has_user", user != nil))
	return nil
}

// Update stores a new token and profile. A nil user keeps the current one.
func (m *Manager) Update(ctx context.Context, token string, user *domain.User) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := m.keys.Set(crypto.TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if user == nil {
		user = m.Current().User
	} else if m.users != nil {
		if err := m.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to cache user: %w", err)
		}
	}

	m.set(Session{Token: token, User: user})
	return nil
}

// SetUser replaces the cached profile, keeping the token
func (m *Manager) SetUser(ctx context.Context, user *domain.User) error {
	cur := m.Current()
	if !cur.Authenticated() {
		return ErrNotAuthenticated
	}
	if m.users != nil {
		if err := m.users.Save(ctx, user); err != nil {
			return fmt.Errorf("failed to cache user: %w", err)
		}
	}
	m.set(Session{Token: cur.Token, User: user})
	return nil
}

// Clear signs out: the token is removed and the cache purged
func (m *Manager) Clear(ctx context.Context) error {
	m.set(Session{})

	var errs []error
	if err := m.keys.Delete(crypto.TokenKey); err != nil {
		errs = append(errs, err)
	}
	if m.users != nil {
		if err := m.users.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.logger.Info("session cleared")
	return errors.Join(errs...)
}

// Current returns a snapshot of the session
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// AccessToken satisfies the API client's token source
func (m *Manager) AccessToken() string {
	return m.Current().Token
}

// Require returns the session or ErrNotAuthenticated
func (m *Manager) Require() (Session, error) {
	s := m.Current()
	if !s.Authenticated() {
		return s, ErrNotAuthenticated
	}
	return s, nil
}

func (m *Manager) set(s Session) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}
