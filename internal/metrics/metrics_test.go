package metrics_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/blog-client/internal/blogtest"
	"github.com/fivetwenty-io/blog-client/internal/metrics"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/blogclient"
)

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/posts":                  "/posts",
		"/posts/":                 "/posts",
		"/posts/abc123":           "/posts/:id",
		"/posts/abc123/comments":  "/posts/:id/comments",
		"/auth/login":             "/auth/login",
		"/categories?x=1":         "/categories",
		"/posts/a%2Fb/comments/c": "/posts/:id/comments/:id",
	}

	for path, want := range tests {
		assert.Equal(t, want, metrics.Route(path), path)
	}
}

func TestCollector_Summarize(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	collector.Record(http.MethodGet, "/posts/a", http.StatusOK, 100*time.Millisecond)
	collector.Record(http.MethodGet, "/posts/b", http.StatusNotFound, 300*time.Millisecond)
	collector.Record(http.MethodDelete, "/posts/a", 0, 0)
	collector.Record(http.MethodGet, "/categories", http.StatusOK, 50*time.Millisecond)

	stats, err := metrics.Summarize(reg)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "GET", stats[0].Method)
	assert.Equal(t, "/categories", stats[0].Route)
	assert.Equal(t, 1, stats[0].Requests)
	assert.Zero(t, stats[0].Failures)
	assert.InDelta(t, float64(50*time.Millisecond), float64(stats[0].Mean), float64(time.Millisecond))

	assert.Equal(t, "DELETE", stats[1].Method)
	assert.Equal(t, "/posts/:id", stats[1].Route)
	assert.Equal(t, 1, stats[1].Requests)
	assert.Equal(t, 1, stats[1].Failures)

	assert.Equal(t, "GET", stats[2].Method)
	assert.Equal(t, 2, stats[2].Requests)
	assert.Equal(t, 1, stats[2].Failures)
	assert.InDelta(t, float64(200*time.Millisecond), float64(stats[2].Mean), float64(time.Millisecond))
}

func TestCollector_ResponseInterceptor(t *testing.T) {
	t.Parallel()

	server := blogtest.NewServer()
	defer server.Close()

	post := server.AddPost(blog.Post{Title: "Hello"})

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	client, err := blogclient.New(context.Background(), &blog.Config{
		APIURL:               server.APIURL(),
		ResponseInterceptors: []blog.ResponseInterceptor{collector.ResponseInterceptor()},
	})
	require.NoError(t, err)

	_, err = client.Posts().Get(context.Background(), post.ID)
	require.NoError(t, err)

	_, err = client.Posts().Get(context.Background(), "missing")
	require.Error(t, err)

	stats, err := metrics.Summarize(reg)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "/posts/:id", stats[0].Route)
	assert.Equal(t, 2, stats[0].Requests)
	assert.Equal(t, 1, stats[0].Failures)
	assert.Positive(t, stats[0].Mean)
}
