package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/session"
)

var errNetwork = errors.New("network unreachable")

func newStore(t *testing.T, current *blog.User) (*session.Store, *blogtest.MockAuthClient) {
	t.Helper()

	auth := &blogtest.MockAuthClient{}
	auth.On("CurrentUser").Return(current).Once()

	store, err := session.New(auth)
	require.NoError(t, err)

	return store, auth
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires auth client", func(t *testing.T) {
		t.Parallel()

		_, err := session.New(nil)
		require.ErrorIs(t, err, session.ErrAuthClientRequired)
	})

	t.Run("loads stored identity once", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})

		assert.True(t, store.Authenticated())
		assert.Equal(t, "alice", store.User().Username)
		assert.Equal(t, "alice", store.Session().User.Username)
		auth.AssertNumberOfCalls(t, "CurrentUser", 1)
	})

	t.Run("starts anonymous without stored identity", func(t *testing.T) {
		t.Parallel()

		store, _ := newStore(t, nil)

		assert.False(t, store.Authenticated())
		assert.Nil(t, store.User())
		assert.False(t, store.Session().Authenticated())
	})
}

func TestStore_Login(t *testing.T) {
	t.Parallel()

	t.Run("success replaces identity and notifies", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, nil)
		bob := &blog.User{ID: "u2", Username: "bob"}

		auth.On("Login", mock.Anything, &blog.Credentials{Username: "bob", Password: "pw"}).
			Return(&blog.LoginResponse{Token: "t", User: bob}, nil)

		var notified []blog.Session

		store.Subscribe(func(s blog.Session) {
			notified = append(notified, s)
		})

		response, err := store.Login(context.Background(), "bob", "pw")
		require.NoError(t, err)
		assert.Equal(t, "t", response.Token)
		assert.Equal(t, "bob", store.User().Username)

		require.Len(t, notified, 1)
		assert.Equal(t, "bob", notified[0].User.Username)
		auth.AssertExpectations(t)
	})

	t.Run("response without user asks the server", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, nil)
		bob := &blog.User{ID: "u2", Username: "bob"}

		auth.On("Login", mock.Anything, mock.Anything).Return(&blog.LoginResponse{Token: "t"}, nil)
		auth.On("Me", mock.Anything).Return(bob, nil).Once()

		var notified []blog.Session

		store.Subscribe(func(s blog.Session) {
			notified = append(notified, s)
		})

		_, err := store.Login(context.Background(), "bob", "pw")
		require.NoError(t, err)
		assert.Equal(t, "bob", store.User().Username)

		require.Len(t, notified, 1)
		assert.True(t, notified[0].Authenticated())
		auth.AssertExpectations(t)
	})

	t.Run("unresolved user discards the credential", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, nil)

		auth.On("Login", mock.Anything, mock.Anything).Return(&blog.LoginResponse{Token: "t"}, nil)
		auth.On("Me", mock.Anything).Return(nil, errNetwork).Once()
		auth.On("Logout", mock.Anything).Return(nil).Once()

		notified := 0

		store.Subscribe(func(blog.Session) { notified++ })

		_, err := store.Login(context.Background(), "bob", "pw")
		require.ErrorIs(t, err, errNetwork)
		assert.False(t, store.Authenticated())
		assert.Zero(t, notified)
		auth.AssertExpectations(t)
	})

	t.Run("failure leaves identity untouched", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})
		apiErr := &blog.APIError{StatusCode: 401, Message: "Invalid credentials"}

		auth.On("Login", mock.Anything, mock.Anything).Return(nil, apiErr)

		notified := 0

		store.Subscribe(func(blog.Session) { notified++ })

		_, err := store.Login(context.Background(), "alice", "wrong")
		require.Error(t, err)
		assert.True(t, blog.IsUnauthorized(err))
		assert.Equal(t, "Invalid credentials", blog.ErrorMessage(err))
		assert.Equal(t, "alice", store.User().Username)
		assert.Zero(t, notified)
	})
}

func TestStore_Logout(t *testing.T) {
	t.Parallel()

	t.Run("clears identity before invalidating the credential", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})

		var order []string

		store.Subscribe(func(s blog.Session) {
			assert.False(t, s.Authenticated())
			order = append(order, "notified")
		})

		auth.On("Logout", mock.Anything).Run(func(mock.Arguments) {
			order = append(order, "logout")
		}).Return(nil)

		store.Logout(context.Background())

		assert.False(t, store.Authenticated())
		assert.Equal(t, []string{"notified", "logout"}, order)
	})

	t.Run("server failure is not surfaced", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})
		auth.On("Logout", mock.Anything).Return(errNetwork)

		store.Logout(context.Background())

		assert.Nil(t, store.User())
		auth.AssertExpectations(t)
	})
}

func TestStore_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("updates identity", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})
		auth.On("Me", mock.Anything).Return(&blog.User{ID: "u1", Username: "alice2"}, nil)

		require.NoError(t, store.Refresh(context.Background()))
		assert.Equal(t, "alice2", store.User().Username)
	})

	t.Run("unauthorized clears identity", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})
		auth.On("Me", mock.Anything).Return(nil, &blog.APIError{StatusCode: 401, Message: "expired"})

		err := store.Refresh(context.Background())
		require.Error(t, err)
		assert.False(t, store.Authenticated())
	})

	t.Run("transport failure keeps identity", func(t *testing.T) {
		t.Parallel()

		store, auth := newStore(t, &blog.User{ID: "u1", Username: "alice"})
		auth.On("Me", mock.Anything).Return(nil, blog.NewTransportError(errNetwork))

		err := store.Refresh(context.Background())
		require.ErrorIs(t, err, errNetwork)
		assert.True(t, store.Authenticated())
	})
}

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()

	store, auth := newStore(t, nil)
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&blog.LoginResponse{Token: "t", User: &blog.User{Username: "bob"}}, nil)
	auth.On("Logout", mock.Anything).Return(nil)

	var calls []string

	unsubscribeFirst := store.Subscribe(func(blog.Session) { calls = append(calls, "first") })
	store.Subscribe(func(s blog.Session) {
		// Reading the store from an observer must not deadlock.
		assert.Equal(t, s.Authenticated(), store.Authenticated())
		calls = append(calls, "second")
	})

	_, err := store.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)

	unsubscribeFirst()
	unsubscribeFirst()

	store.Logout(context.Background())
	assert.Equal(t, []string{"first", "second", "second"}, calls)
}

func TestStore_AgainstFakeServer(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddUser("alice", "secret")

	client := newFacade(t, server)

	store, err := session.New(client.Auth())
	require.NoError(t, err)
	assert.False(t, store.Authenticated())

	_, err = store.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", store.User().Username)
	assert.Equal(t, "alice", client.Auth().CurrentUser().Username)

	store.Logout(context.Background())
	assert.False(t, store.Authenticated())
	assert.Nil(t, client.Auth().CurrentUser())
	assert.Equal(t, 1, server.RequestCount("POST", "/auth/logout"))
}
