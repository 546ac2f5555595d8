package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/blog-client/internal/http"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// PostsClient implements blog.PostsClient.
type PostsClient struct {
	httpClient *http.Client
}

// NewPostsClient creates a new posts client.
func NewPostsClient(httpClient *http.Client) *PostsClient {
	return &PostsClient{
		httpClient: httpClient,
	}
}

// List implements blog.PostsClient.List.
func (c *PostsClient) List(ctx context.Context, query *blog.PostQuery) (*blog.PostPage, error) {
	var queryParams url.Values
	if query != nil {
		queryParams = query.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, "/posts", queryParams)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	var page blog.PostPage

	err = decode(resp, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing posts list: %w", err)
	}

	if page.Posts == nil {
		page.Posts = []blog.Post{}
	}

	return &page, nil
}

// Get implements blog.PostsClient.Get.
func (c *PostsClient) Get(ctx context.Context, id string) (*blog.Post, error) {
	if id == "" {
		return nil, blog.ErrPostIDRequired
	}

	resp, err := c.httpClient.Get(ctx, resourcePath("posts", id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}

	var post blog.Post

	err = decode(resp, &post)
	if err != nil {
		return nil, fmt.Errorf("parsing post: %w", err)
	}

	return &post, nil
}

// Create implements blog.PostsClient.Create.
func (c *PostsClient) Create(ctx context.Context, request *blog.PostCreateRequest) (*blog.Post, error) {
	resp, err := c.httpClient.Post(ctx, "/posts", request)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	var post blog.Post

	err = decode(resp, &post)
	if err != nil {
		return nil, fmt.Errorf("parsing post response: %w", err)
	}

	return &post, nil
}

// Update implements blog.PostsClient.Update.
func (c *PostsClient) Update(ctx context.Context, id string, request *blog.PostUpdateRequest) (*blog.Post, error) {
	if id == "" {
		return nil, blog.ErrPostIDRequired
	}

	resp, err := c.httpClient.Put(ctx, resourcePath("posts", id), request)
	if err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	var post blog.Post

	err = decode(resp, &post)
	if err != nil {
		return nil, fmt.Errorf("parsing post response: %w", err)
	}

	return &post, nil
}

// Delete implements blog.PostsClient.Delete.
func (c *PostsClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return blog.ErrPostIDRequired
	}

	_, err := c.httpClient.Delete(ctx, resourcePath("posts", id))
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	return nil
}
