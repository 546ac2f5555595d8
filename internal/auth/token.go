// Package auth holds the bearer credential used by the transport and the
// identity cached alongside it.
package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenManager supplies the bearer token attached to requests. An empty
// token means the request is sent unauthenticated.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	SetToken(token string, expiresAt time.Time)
	ClearToken()
}

// TokenStore is a concurrency-safe holder for a single token.
type TokenStore struct {
	mutex sync.RWMutex
	token *oauth2.Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *oauth2.Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *oauth2.Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = nil
}

// NewBearerToken builds a bearer token. A zero expiresAt never expires.
func NewBearerToken(accessToken string, expiresAt time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      expiresAt,
	}
}
