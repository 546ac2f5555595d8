package blog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

func TestNewCacheFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("nil config is memory", func(t *testing.T) {
		t.Parallel()

		cache, err := blog.NewCacheFromConfig(nil)
		require.NoError(t, err)
		assert.IsType(t, &blog.MemoryCache{}, cache)
	})

	t.Run("empty type is memory", func(t *testing.T) {
		t.Parallel()

		cache, err := blog.NewCacheFromConfig(&blog.CacheConfig{})
		require.NoError(t, err)
		assert.IsType(t, &blog.MemoryCache{}, cache)
	})

	t.Run("none never stores", func(t *testing.T) {
		t.Parallel()

		cache, err := blog.NewCacheFromConfig(&blog.CacheConfig{Type: blog.CacheTypeNone})
		require.NoError(t, err)

		ctx := context.Background()
		require.NoError(t, cache.Set(ctx, "k", &blog.CacheEntry{Data: []byte("v")}))

		_, err = cache.Get(ctx, "k")
		require.ErrorIs(t, err, blog.ErrCacheDisabled)
		assert.False(t, cache.Has(ctx, "k"))
	})

	t.Run("nats needs its config", func(t *testing.T) {
		t.Parallel()

		_, err := blog.NewCacheFromConfig(&blog.CacheConfig{Type: blog.CacheTypeNATS})
		require.ErrorIs(t, err, blog.ErrNATSConfigRequired)

		_, err = blog.NewCacheFromConfig(&blog.CacheConfig{Type: blog.CacheTypeNATS, NATS: &blog.NATSKVConfig{Bucket: "b"}})
		require.ErrorIs(t, err, blog.ErrNATSURLRequired)

		_, err = blog.NewCacheFromConfig(&blog.CacheConfig{Type: blog.CacheTypeNATS, NATS: &blog.NATSKVConfig{URL: "nats://127.0.0.1:4222"}})
		require.ErrorIs(t, err, blog.ErrNATSBucketRequired)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		_, err := blog.NewCacheFromConfig(&blog.CacheConfig{Type: "redis"})
		require.ErrorIs(t, err, blog.ErrUnsupportedCacheType)
	})
}

type closingCache struct {
	*blog.NoOpCache

	closed int
}

func (c *closingCache) Close() {
	c.closed++
}

func TestCloseCache(t *testing.T) {
	t.Parallel()

	t.Run("chain closes members that hold resources", func(t *testing.T) {
		t.Parallel()

		first := &closingCache{NoOpCache: blog.NewNoOpCache()}
		second := &closingCache{NoOpCache: blog.NewNoOpCache()}
		chain := blog.NewCacheChain(blog.NewMemoryCache(4), first, second)

		blog.CloseCache(chain)

		assert.Equal(t, 1, first.closed)
		assert.Equal(t, 1, second.closed)
	})

	t.Run("caches without resources are ignored", func(t *testing.T) {
		t.Parallel()

		assert.NotPanics(t, func() {
			blog.CloseCache(blog.NewMemoryCache(4))
			blog.CloseCache(blog.NewNoOpCache())
			blog.CloseCache(nil)
		})
	})
}
