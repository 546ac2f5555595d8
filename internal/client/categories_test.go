package client_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	. "github.com/fivetwenty-io/blog-client/internal/client"
	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

func TestCategoriesClient_ListWithoutCache(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddCategory("Tech")
	server.AddCategory("Life")

	client := newTestClient(t, server)
	ctx := context.Background()

	for range 2 {
		categories, err := client.Categories().List(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Tech", categories[0].Name)
	}

	assert.Equal(t, 2, server.RequestCount(http.MethodGet, "/categories"))
}

func TestCategoriesClient_ListServedFromCache(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddCategory("Tech")

	cache := blog.NewMemoryCache(10)
	client := newTestClient(t, server, func(config *blog.Config) {
		config.Cache = cache
		config.CategoryTTL = time.Minute
	})
	ctx := context.Background()

	first, err := client.Categories().List(ctx)
	require.NoError(t, err)

	second, err := client.Categories().List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, server.RequestCount(http.MethodGet, "/categories"))
	assert.True(t, cache.Has(ctx, constants.CategoriesCacheKey))

	categories, ok := client.Categories().(*CategoriesClient)
	require.True(t, ok)
	require.NoError(t, categories.Invalidate(ctx))

	_, err = client.Categories().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, server.RequestCount(http.MethodGet, "/categories"))
}

func TestCategoriesClient_ExpiredEntryRefetches(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddCategory("Tech")

	cache := blog.NewMemoryCache(10)
	require.NoError(t, cache.Set(context.Background(), constants.CategoriesCacheKey, &blog.CacheEntry{
		Data:      []byte(`[{"_id":"old","name":"Stale"}]`),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	client := newTestClient(t, server, func(config *blog.Config) {
		config.Cache = cache
	})

	categories, err := client.Categories().List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Tech", categories[0].Name)
	assert.Equal(t, 1, server.RequestCount(http.MethodGet, "/categories"))
}

func TestCategoriesClient_FailureIsNotCached(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	server.AddCategory("Tech")
	server.FailNext(http.MethodGet, "/categories", http.StatusServiceUnavailable, "maintenance")

	cache := blog.NewMemoryCache(10)
	client := newTestClient(t, server, func(config *blog.Config) {
		config.Cache = cache
	})
	ctx := context.Background()

	_, err := client.Categories().List(ctx)
	require.Error(t, err)
	assert.Equal(t, "maintenance", blog.ErrorMessage(err))
	assert.False(t, cache.Has(ctx, constants.CategoriesCacheKey))

	categories, err := client.Categories().List(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
