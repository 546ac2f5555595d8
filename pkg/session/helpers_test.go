package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/blogclient"
)

func newFacade(t *testing.T, server *blogtest.Server) blog.Client {
	t.Helper()

	client, err := blogclient.New(context.Background(), &blog.Config{APIURL: server.APIURL()})
	require.NoError(t, err)

	return client
}
