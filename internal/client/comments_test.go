package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

func TestCommentsClient_List(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	post := server.AddPost(blog.Post{Title: "Commented"})
	server.AddComment(post.ID, blog.Comment{Content: "first", Author: "bob"})
	server.AddComment(post.ID, blog.Comment{Content: "second", Author: "carol"})

	client := newTestClient(t, server)

	comments, err := client.Comments().List(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	assert.Equal(t, 1, server.RequestCount(http.MethodGet, "/posts/"+post.ID+"/comments"))
	assert.Zero(t, server.RequestCount(http.MethodPost, "/posts/"+post.ID+"/comments"))
}

func TestCommentsClient_ListEmpty(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	post := server.AddPost(blog.Post{Title: "Quiet"})
	client := newTestClient(t, server)

	comments, err := client.Comments().List(context.Background(), post.ID)
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)

	_, err = client.Comments().List(context.Background(), "")
	require.ErrorIs(t, err, blog.ErrPostIDRequired)
}

func TestCommentsClient_Create(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddUser("alice", "secret")
	post := server.AddPost(blog.Post{Title: "Commented"})

	client := newTestClient(t, server, func(config *blog.Config) {
		config.Session = &blog.StoredSession{Token: server.IssueToken("alice")}
	})

	comment, err := client.Comments().Create(context.Background(), post.ID, &blog.CommentCreateRequest{
		Content: "Nice post",
		Author:  "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
	assert.Equal(t, "Nice post", comment.Content)
	assert.Equal(t, "alice", comment.Author)

	requests := server.Requests()

	var body map[string]string
	require.NoError(t, json.Unmarshal(requests[len(requests)-1].Body, &body))
	assert.Equal(t, map[string]string{"content": "Nice post", "author": "alice"}, body)
	assert.Len(t, server.Comments(post.ID), 1)
}

func TestCommentsClient_CreateFailure(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	post := server.AddPost(blog.Post{Title: "Commented"})
	client := newTestClient(t, server)

	_, err := client.Comments().Create(context.Background(), post.ID, &blog.CommentCreateRequest{
		Content: "anonymous",
	})
	require.Error(t, err)
	assert.True(t, blog.IsUnauthorized(err))
	assert.Empty(t, server.Comments(post.ID))
}
