package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Static errors for err113 compliance.
var (
	ErrTokenRequired = errors.New("token is required")
)

// CredentialManager holds the bearer token together with the identity it
// belongs to, and mirrors every change to an optional persister.
type CredentialManager struct {
	mutex     sync.RWMutex
	store     *TokenStore
	user      *blog.User
	persister blog.SessionPersister
}

// NewCredentialManager restores a previously stored session, if any.
func NewCredentialManager(stored *blog.StoredSession, persister blog.SessionPersister) *CredentialManager {
	manager := &CredentialManager{
		store:     NewTokenStore(),
		persister: persister,
	}

	if stored != nil && stored.Token != "" {
		manager.store.Set(NewBearerToken(stored.Token, stored.ExpiresAt))
		manager.user = copyUser(stored.User)
	}

	return manager
}

func copyUser(user *blog.User) *blog.User {
	if user == nil {
		return nil
	}

	u := *user

	return &u
}

// GetToken returns the current token, or "" when there is none or it expired.
func (m *CredentialManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", nil
	}

	return token.AccessToken, nil
}

// SetToken replaces the token without touching the identity or persisting.
func (m *CredentialManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(NewBearerToken(token, expiresAt))
}

// ClearToken drops the token without persisting.
func (m *CredentialManager) ClearToken() {
	m.store.Clear()
}

// SetSession stores a freshly issued credential and persists it.
func (m *CredentialManager) SetSession(token string, expiresAt time.Time, user *blog.User) error {
	if token == "" {
		return ErrTokenRequired
	}

	m.mutex.Lock()
	m.store.Set(NewBearerToken(token, expiresAt))
	m.user = copyUser(user)
	m.mutex.Unlock()

	if m.persister == nil {
		return nil
	}

	err := m.persister.SaveSession(&blog.StoredSession{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      copyUser(user),
	})
	if err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}

	return nil
}

// SetUser replaces the cached identity, keeping the token.
func (m *CredentialManager) SetUser(user *blog.User) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.user = copyUser(user)
}

// Clear drops the token and identity and clears the persisted session.
func (m *CredentialManager) Clear() error {
	m.mutex.Lock()
	m.store.Clear()
	m.user = nil
	m.mutex.Unlock()

	if m.persister == nil {
		return nil
	}

	err := m.persister.ClearSession()
	if err != nil {
		return fmt.Errorf("clearing persisted session: %w", err)
	}

	return nil
}

// CurrentUser returns the cached identity while the token is valid.
func (m *CredentialManager) CurrentUser() *blog.User {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if !m.store.Get().Valid() {
		return nil
	}

	return copyUser(m.user)
}

// ExpiresAt returns the token expiry; zero when unknown or absent.
func (m *CredentialManager) ExpiresAt() time.Time {
	token := m.store.Get()
	if token == nil {
		return time.Time{}
	}

	return token.Expiry
}
