package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/blog-client/internal/constants"
	"github.com/fivetwenty-io/blog-client/internal/logging"
	"github.com/fivetwenty-io/blog-client/internal/metrics"
	"github.com/fivetwenty-io/blog-client/internal/sanitize"
	"github.com/fivetwenty-io/blog-client/pkg/blog"
	"github.com/fivetwenty-io/blog-client/pkg/blogclient"
	"github.com/fivetwenty-io/blog-client/pkg/session"
)

// app bundles what a command needs to talk to the blog.
type app struct {
	config    *Config
	client    blog.Client
	session   *session.Store
	logger    blog.Logger
	sanitizer *sanitize.Sanitizer
	registry  *prometheus.Registry
	cache     blog.Cache
}

func newApp(cmd *cobra.Command) (*app, error) {
	config := loadConfig()
	if config.APIURL == "" {
		return nil, ErrNoAPIConfigured
	}

	verbose := viper.GetBool("verbose")
	logger := logging.New(logging.Options{Writer: cmd.ErrOrStderr(), Verbose: verbose})

	headers, err := requestHeaders(cmd)
	if err != nil {
		return nil, err
	}

	cache, err := blog.NewCacheFromConfig(config.CacheConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	clientConfig := &blog.Config{
		APIURL:      config.APIURL,
		Session:     config.StoredSession(),
		Persister:   NewConfigPersister(),
		HTTPTimeout: config.Timeout,
		RetryMax:    config.RetryMax,
		RateLimit:   config.RateLimit,
		Debug:       verbose,
		Logger:      logger,
		UserAgent:   constants.DefaultUserAgent,
		Headers:     headers,
		Cache:       cache,
		CategoryTTL: config.Cache.TTL,
	}

	a := &app{
		config:    config,
		logger:    logger,
		sanitizer: sanitize.New(),
		cache:     cache,
	}

	if viper.GetBool("metrics") {
		a.registry = prometheus.NewRegistry()
		collector := metrics.NewCollector(a.registry)
		clientConfig.ResponseInterceptors = append(clientConfig.ResponseInterceptors, collector.ResponseInterceptor())
	}

	a.client, err = blogclient.New(cmd.Context(), clientConfig)
	if err != nil {
		a.close()

		return nil, err
	}

	a.session, err = session.New(a.client.Auth(), session.WithLogger(logger))
	if err != nil {
		a.close()

		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return a, nil
}

// requestHeaders parses the repeatable --header flag.
func requestHeaders(cmd *cobra.Command) (map[string]string, error) {
	values, _ := cmd.Flags().GetStringArray("header")
	if len(values) == 0 {
		return nil, nil
	}

	headers := make(map[string]string, len(values))

	for _, value := range values {
		name, content, found := strings.Cut(value, ":")
		name = strings.TrimSpace(name)

		if !found || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHeader, value)
		}

		headers[name] = strings.TrimSpace(content)
	}

	return headers, nil
}

func (a *app) pageSize() int {
	if a.config.PageSize > 0 {
		return a.config.PageSize
	}

	return constants.DefaultPageSize
}

// reportMetrics prints the per-route request summary when --metrics is set.
func (a *app) reportMetrics(w io.Writer) {
	if a.registry == nil {
		return
	}

	stats, err := metrics.Summarize(a.registry)
	if err != nil {
		a.logger.Warn("failed to gather metrics", map[string]interface{}{"error": err.Error()})

		return
	}

	_, _ = io.WriteString(w, "\nRequests:\n")

	table := newTable(w, "Method", "Route", "Requests", "Failures", "Mean Latency")
	for _, s := range stats {
		_ = table.Append([]string{
			s.Method,
			s.Route,
			strconv.Itoa(s.Requests),
			strconv.Itoa(s.Failures),
			s.Mean.String(),
		})
	}

	_ = renderTable(table)
}

type appRunner func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error

// close releases the cache connection, if any.
func (a *app) close() {
	blog.CloseCache(a.cache)
}

// withApp builds an app for the command, runs fn and reports metrics.
func withApp(fn appRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		err = fn(cmd.Context(), cmd, a, args)
		a.reportMetrics(cmd.ErrOrStderr())

		return err
	}
}

func (a *app) requireLogin() error {
	if !a.session.Authenticated() {
		return ErrLoginRequired
	}

	return nil
}

// resolveCategory accepts a category id or a case-insensitive name.
func (a *app) resolveCategory(ctx context.Context, idOrName string) (*blog.Category, error) {
	categories, err := a.client.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	for _, category := range categories {
		if category.ID == idOrName {
			return &category, nil
		}
	}

	for _, category := range categories {
		if strings.EqualFold(category.Name, idOrName) {
			return &category, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, idOrName)
}
