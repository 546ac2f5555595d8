package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/internal/http"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// CategoriesClient implements blog.CategoriesClient. When a cache is
// configured the category list is served from it until the TTL expires.
type CategoriesClient struct {
	httpClient *http.Client
	cache      blog.Cache
	ttl        time.Duration
	logger     blog.Logger
}

// NewCategoriesClient creates a new categories client. cache may be nil.
func NewCategoriesClient(httpClient *http.Client, cache blog.Cache, ttl time.Duration, logger blog.Logger) *CategoriesClient {
	if ttl <= 0 {
		ttl = constants.DefaultCategoryTTL
	}

	if logger == nil {
		logger = blog.NopLogger()
	}

	return &CategoriesClient{
		httpClient: httpClient,
		cache:      cache,
		ttl:        ttl,
		logger:     logger,
	}
}

// List implements blog.CategoriesClient.List.
func (c *CategoriesClient) List(ctx context.Context) ([]blog.Category, error) {
	if categories, ok := c.cached(ctx); ok {
		return categories, nil
	}

	resp, err := c.httpClient.Get(ctx, "/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	categories := []blog.Category{}

	err = decode(resp, &categories)
	if err != nil {
		return nil, fmt.Errorf("parsing categories list: %w", err)
	}

	if categories == nil {
		categories = []blog.Category{}
	}

	c.store(ctx, resp.Body, resp.Headers.Get("ETag"))

	return categories, nil
}

// Invalidate drops the cached category list.
func (c *CategoriesClient) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}

	err := c.cache.Delete(ctx, constants.CategoriesCacheKey)
	if err != nil {
		return fmt.Errorf("invalidating categories cache: %w", err)
	}

	return nil
}

func (c *CategoriesClient) cached(ctx context.Context) ([]blog.Category, bool) {
	if c.cache == nil {
		return nil, false
	}

	entry, err := c.cache.Get(ctx, constants.CategoriesCacheKey)
	if err != nil {
		return nil, false
	}

	var categories []blog.Category

	err = json.Unmarshal(entry.Data, &categories)
	if err != nil {
		c.logger.Warn("discarding unreadable categories cache entry", map[string]interface{}{
			"error": err.Error(),
		})

		return nil, false
	}

	c.logger.Debug("categories served from cache", map[string]interface{}{
		"count": len(categories),
	})

	return categories, true
}

func (c *CategoriesClient) store(ctx context.Context, body []byte, etag string) {
	if c.cache == nil {
		return
	}

	err := c.cache.Set(ctx, constants.CategoriesCacheKey, &blog.CacheEntry{
		Data:      body,
		ExpiresAt: time.Now().Add(c.ttl),
		ETag:      etag,
	})
	if err != nil {
		c.logger.Warn("failed to cache categories", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
