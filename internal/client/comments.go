package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/blog-client/internal/http"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// CommentsClient implements blog.CommentsClient.
type CommentsClient struct {
	httpClient *http.Client
}

// NewCommentsClient creates a new comments client.
func NewCommentsClient(httpClient *http.Client) *CommentsClient {
	return &CommentsClient{
		httpClient: httpClient,
	}
}

// List implements blog.CommentsClient.List.
func (c *CommentsClient) List(ctx context.Context, postID string) ([]blog.Comment, error) {
	if postID == "" {
		return nil, blog.ErrPostIDRequired
	}

	resp, err := c.httpClient.Get(ctx, resourcePath("posts", postID, "comments"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	comments := []blog.Comment{}

	err = decode(resp, &comments)
	if err != nil {
		return nil, fmt.Errorf("parsing comments list: %w", err)
	}

	return comments, nil
}

// Create implements blog.CommentsClient.Create.
func (c *CommentsClient) Create(ctx context.Context, postID string, request *blog.CommentCreateRequest) (*blog.Comment, error) {
	if postID == "" {
		return nil, blog.ErrPostIDRequired
	}

	resp, err := c.httpClient.Post(ctx, resourcePath("posts", postID, "comments"), request)
	if err != nil {
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	var comment blog.Comment

	err = decode(resp, &comment)
	if err != nil {
		return nil, fmt.Errorf("parsing comment response: %w", err)
	}

	return &comment, nil
}
