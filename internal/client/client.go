package client

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/blog-client/internal/auth"
	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/internal/http"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Static errors for err113 compliance.
var (
	ErrAPIURLRequired = errors.New("API URL is required")
)

// Client implements blog.Client.
type Client struct {
	httpClient  *http.Client
	credentials *auth.CredentialManager
	baseURL     string
	logger      blog.Logger

	// Resource clients
	auth       *AuthClient
	posts      *PostsClient
	comments   *CommentsClient
	categories *CategoriesClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *blog.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if len(config.RequestInterceptors) > 0 || len(config.ResponseInterceptors) > 0 {
		chain := blog.NewInterceptorChain()
		for _, interceptor := range config.RequestInterceptors {
			chain.AddRequestInterceptor(interceptor)
		}

		for _, interceptor := range config.ResponseInterceptors {
			chain.AddResponseInterceptor(interceptor)
		}

		httpOpts = append(httpOpts, http.WithInterceptors(chain))
	}

	return httpOpts
}

// New creates a blog API client. The credential is restored from
// config.Session and every change is reported to config.Persister.
func New(config *blog.Config) (*Client, error) {
	if config == nil {
		return nil, blog.ErrConfigRequired
	}

	if config.APIURL == "" {
		return nil, ErrAPIURLRequired
	}

	credentials := auth.NewCredentialManager(config.Session, config.Persister)

	return NewWithCredentials(config, credentials)
}

// NewWithCredentials creates a blog API client around an existing credential
// manager.
func NewWithCredentials(config *blog.Config, credentials *auth.CredentialManager) (*Client, error) {
	if config == nil {
		return nil, blog.ErrConfigRequired
	}

	if config.APIURL == "" {
		return nil, ErrAPIURLRequired
	}

	httpClient := http.NewClient(config.APIURL, credentials, createHTTPClientOptions(config)...)

	logger := config.Logger
	if logger == nil {
		logger = blog.NopLogger()
	}

	client := &Client{
		httpClient:  httpClient,
		credentials: credentials,
		baseURL:     httpClient.BaseURL(),
		logger:      logger,
	}

	client.initializeResourceClients(config.Cache, config.CategoryTTL)

	return client, nil
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients(cache blog.Cache, categoryTTL time.Duration) {
	c.auth = NewAuthClient(c.httpClient, c.credentials, c.logger)
	c.posts = NewPostsClient(c.httpClient)
	c.comments = NewCommentsClient(c.httpClient)
	c.categories = NewCategoriesClient(c.httpClient, cache, categoryTTL, c.logger)
}

// Credentials returns the credential manager for this client.
func (c *Client) Credentials() *auth.CredentialManager {
	return c.credentials
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Auth implements blog.Client.Auth.
func (c *Client) Auth() blog.AuthClient {
	return c.auth
}

// Posts implements blog.Client.Posts.
func (c *Client) Posts() blog.PostsClient {
	return c.posts
}

// Comments implements blog.Client.Comments.
func (c *Client) Comments() blog.CommentsClient {
	return c.comments
}

// Categories implements blog.Client.Categories.
func (c *Client) Categories() blog.CategoriesClient {
	return c.categories
}

// FeaturedImageURL implements blog.Client.FeaturedImageURL.
func (c *Client) FeaturedImageURL(post *blog.Post) string {
	if post == nil || post.FeaturedImage == "" {
		return ""
	}

	return c.baseURL + "/" + strings.TrimPrefix(post.FeaturedImage, "/")
}

// decode unmarshals a successful response body, reporting failures as a
// *blog.APIError.
func decode(resp *http.Response, target interface{}) error {
	err := json.Unmarshal(resp.Body, target)
	if err != nil {
		return blog.NewDecodeError(resp.StatusCode, err)
	}

	return nil
}

// resourcePath joins path segments, escaping each one.
func resourcePath(segments ...string) string {
	var builder strings.Builder

	for _, segment := range segments {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(segment))
	}

	return builder.String()
}

var _ blog.Client = (*Client)(nil)
