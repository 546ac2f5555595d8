package blogclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/blog-client/internal/client"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// New creates a new blog API client.
func New(ctx context.Context, config *blog.Config) (blog.Client, error) {
	if config == nil {
		return nil, blog.ErrConfigRequired
	}

	if strings.TrimSpace(config.APIURL) == "" {
		return nil, blog.ErrAPIURLRequired
	}

	normalized := *config
	normalized.APIURL = NormalizeURL(config.APIURL)
	normalized.RequestInterceptors = requestInterceptors(config)
	normalized.ResponseInterceptors = responseInterceptors(config)

	c, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithURL creates an unauthenticated client for apiURL.
func NewWithURL(ctx context.Context, apiURL string) (blog.Client, error) {
	return New(ctx, &blog.Config{APIURL: apiURL})
}

// NewWithToken creates a client that sends token on every request.
func NewWithToken(ctx context.Context, apiURL, token string) (blog.Client, error) {
	return New(ctx, &blog.Config{
		APIURL:  apiURL,
		Session: &blog.StoredSession{Token: token},
	})
}

// NormalizeURL trims whitespace and a trailing slash and adds https:// when
// no scheme is present.
func NormalizeURL(apiURL string) string {
	apiURL = strings.TrimSuffix(strings.TrimSpace(apiURL), "/")
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		apiURL = "https://" + apiURL
	}

	return apiURL
}

func requestInterceptors(config *blog.Config) []blog.RequestInterceptor {
	interceptors := []blog.RequestInterceptor{
		blog.RequestIDInterceptor(),
		blog.TimingInterceptor(),
	}

	if config.RateLimit > 0 {
		interceptors = append(interceptors, blog.RateLimitInterceptor(config.RateLimit))
	}

	if len(config.Headers) > 0 {
		interceptors = append(interceptors, blog.HeaderInterceptor(config.Headers))
	}

	interceptors = append(interceptors, config.RequestInterceptors...)

	if config.Debug && config.Logger != nil {
		interceptors = append(interceptors, blog.LoggingInterceptor(config.Logger))
	}

	return interceptors
}

func responseInterceptors(config *blog.Config) []blog.ResponseInterceptor {
	interceptors := append([]blog.ResponseInterceptor(nil), config.ResponseInterceptors...)

	if config.Debug && config.Logger != nil {
		interceptors = append(interceptors, blog.LoggingResponseInterceptor(config.Logger))
	}

	return interceptors
}
