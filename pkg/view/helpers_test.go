package view_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/blogclient"
	"github.com/fivetwenty-io/blog-client/pkg/session"
)

var testCategories = []blog.Category{
	{ID: "c1", Name: "Go"},
	{ID: "c2", Name: "Travel"},
}

func makePosts(prefix string, n int) []blog.Post {
	posts := make([]blog.Post, 0, n)

	for i := 1; i <= n; i++ {
		posts = append(posts, blog.Post{
			ID:       fmt.Sprintf("%s-%d", prefix, i),
			Title:    fmt.Sprintf("%s post %d", prefix, i),
			Content:  "body",
			Category: blog.CategoryRef{ID: "c1", Name: "Go"},
		})
	}

	return posts
}

func postIDs(posts []blog.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}

	return ids
}

func withSearch(search string) interface{} {
	return mock.MatchedBy(func(q *blog.PostQuery) bool {
		return q.Search == search
	})
}

func withPage(page int) interface{} {
	return mock.MatchedBy(func(q *blog.PostQuery) bool {
		return q.Page == page
	})
}

func withCategoryPage(category string, page int) interface{} {
	return mock.MatchedBy(func(q *blog.PostQuery) bool {
		return q.Category == category && q.Page == page
	})
}

func newClientMock() *blogtest.MockClient {
	client := blogtest.NewMockClient()
	client.CategoriesMock.On("List", mock.Anything).Return(testCategories, nil)

	return client
}

// newSession builds a store over a mocked auth client holding current.
func newSession(t *testing.T, current *blog.User) (*session.Store, *blogtest.MockAuthClient) {
	t.Helper()

	auth := &blogtest.MockAuthClient{}
	auth.On("CurrentUser").Return(current).Once()

	store, err := session.New(auth)
	require.NoError(t, err)

	return store, auth
}

func newFacade(t *testing.T, server *blogtest.Server) blog.Client {
	t.Helper()

	client, err := blogclient.New(context.Background(), &blog.Config{APIURL: server.APIURL()})
	require.NoError(t, err)

	return client
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for call")
	}
}
