// Package session holds the process-wide authenticated identity and tells
// subscribers whenever it changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fivetwenty-io/blog-client/internal/observe"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Static errors for err113 compliance.
var (
	ErrAuthClientRequired = errors.New("auth client is required")
)

// Observer receives the session after every change.
type Observer = func(session blog.Session)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger blog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is the single source of truth for who is logged in. It is safe for
// concurrent use; observers are called synchronously, in subscription order,
// without the store's lock held.
type Store struct {
	auth   blog.AuthClient
	logger blog.Logger

	mutex     sync.Mutex
	user      *blog.User
	observers observe.List[blog.Session]
}

// New creates a store whose initial identity is whatever auth currently
// holds.
func New(auth blog.AuthClient, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, ErrAuthClientRequired
	}

	store := &Store{
		auth:   auth,
		logger: blog.NopLogger(),
	}

	for _, opt := range opts {
		opt(store)
	}

	store.user = copyUser(auth.CurrentUser())

	return store, nil
}

func copyUser(user *blog.User) *blog.User {
	if user == nil {
		return nil
	}

	u := *user

	return &u
}

// User returns the current identity, or nil.
func (s *Store) User() *blog.User {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return copyUser(s.user)
}

// Session returns a snapshot of the session.
func (s *Store) Session() blog.Session {
	return blog.Session{User: s.User()}
}

// Authenticated reports whether someone is logged in.
func (s *Store) Authenticated() bool {
	return s.User() != nil
}

// Login authenticates and replaces the identity. On failure the identity is
// left untouched and the error returned. A login response without a user is
// completed by asking the server who the new credential belongs to; if that
// fails the credential is discarded.
func (s *Store) Login(ctx context.Context, username, password string) (*blog.LoginResponse, error) {
	response, err := s.auth.Login(ctx, &blog.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	user := response.User
	if user == nil {
		user, err = s.auth.Me(ctx)
		if err != nil {
			s.discardCredential(ctx)

			return nil, fmt.Errorf("resolving logged in user: %w", err)
		}
	}

	s.set(user)

	return response, nil
}

// Logout clears the identity and notifies subscribers, then invalidates the
// credential. Failures to reach the server are logged.
func (s *Store) Logout(ctx context.Context) {
	s.set(nil)

	err := s.auth.Logout(ctx)
	if err != nil {
		s.logger.Warn("logout request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Store) discardCredential(ctx context.Context) {
	err := s.auth.Logout(ctx)
	if err != nil {
		s.logger.Warn("failed to discard credential", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Refresh asks the server who the credential belongs to. A rejected
// credential clears the identity; other failures leave it unchanged.
func (s *Store) Refresh(ctx context.Context) error {
	user, err := s.auth.Me(ctx)
	if err != nil {
		if blog.IsUnauthorized(err) {
			s.set(nil)
		}

		return fmt.Errorf("refreshing session: %w", err)
	}

	s.set(user)

	return nil
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(observer Observer) func() {
	return s.observers.Subscribe(observer)
}

// set replaces the identity and notifies every subscriber.
func (s *Store) set(user *blog.User) {
	s.mutex.Lock()
	s.user = copyUser(user)
	s.mutex.Unlock()

	s.observers.Notify(blog.Session{User: copyUser(user)})
}
