// Package metrics collects per-route request counts and latencies for the
// blog API client.
package metrics

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// Metric names.
const (
	RequestsTotal  = "blog_client_requests_total"
	RequestLatency = "blog_client_request_duration_seconds"
)

// StatusTransportError labels requests that never got an HTTP status.
const StatusTransportError = "error"

var staticSegments = map[string]bool{
	"auth":       true,
	"login":      true,
	"logout":     true,
	"me":         true,
	"posts":      true,
	"comments":   true,
	"categories": true,
}

// Collector records API calls into a Prometheus registry.
type Collector struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RequestsTotal,
			Help: "Blog API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    RequestLatency,
			Help:    "Blog API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(c.requests, c.latency)

	return c
}

// Route collapses resource ids so that "/posts/abc/comments" and
// "/posts/def/comments" share the label "/posts/:id/comments".
func Route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		if segment != "" && !staticSegments[segment] {
			segments[i] = ":id"
		}
	}

	return "/" + strings.Join(segments, "/")
}

// Record counts one call.
func (c *Collector) Record(method, path string, statusCode int, latency time.Duration) {
	route := Route(path)

	status := StatusTransportError
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}

	c.requests.WithLabelValues(method, route, status).Inc()
	c.latency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ResponseInterceptor records every response. Latency comes from
// blog.TimingInterceptor and is zero when that did not run.
func (c *Collector) ResponseInterceptor() blog.ResponseInterceptor {
	return func(ctx context.Context, req *blog.Request, resp *blog.Response) error {
		latency, _ := req.Latency()

		c.Record(req.Method, req.Path, resp.StatusCode, latency)

		return nil
	}
}

// RouteStats summarizes the calls made to one route.
type RouteStats struct {
	Method   string        `json:"method"       yaml:"method"`
	Route    string        `json:"route"        yaml:"route"`
	Requests int           `json:"requests"     yaml:"requests"`
	Failures int           `json:"failures"     yaml:"failures"`
	Mean     time.Duration `json:"mean_latency" yaml:"mean_latency"`
}

// Summarize reads the collector's metrics back from gatherer, sorted by
// route then method. Responses with status 400 and above, and transport
// errors, count as failures.
func Summarize(gatherer prometheus.Gatherer) ([]RouteStats, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return nil, err
	}

	stats := make(map[[2]string]*RouteStats)

	entry := func(metric *dto.Metric) *RouteStats {
		labels := labelMap(metric)
		key := [2]string{labels["method"], labels["route"]}

		if stats[key] == nil {
			stats[key] = &RouteStats{Method: key[0], Route: key[1]}
		}

		return stats[key]
	}

	for _, family := range families {
		switch family.GetName() {
		case RequestsTotal:
			for _, metric := range family.GetMetric() {
				count := int(metric.GetCounter().GetValue())
				s := entry(metric)
				s.Requests += count

				if failed(labelMap(metric)["status"]) {
					s.Failures += count
				}
			}
		case RequestLatency:
			for _, metric := range family.GetMetric() {
				histogram := metric.GetHistogram()
				if histogram.GetSampleCount() == 0 {
					continue
				}

				mean := histogram.GetSampleSum() / float64(histogram.GetSampleCount())
				entry(metric).Mean = time.Duration(mean * float64(time.Second))
			}
		}
	}

	result := make([]RouteStats, 0, len(stats))
	for _, s := range stats {
		result = append(result, *s)
	}

	slices.SortFunc(result, func(a, b RouteStats) int {
		if c := strings.Compare(a.Route, b.Route); c != 0 {
			return c
		}

		return strings.Compare(a.Method, b.Method)
	})

	return result, nil
}

func labelMap(metric *dto.Metric) map[string]string {
	labels := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}

	return labels
}

func failed(status string) bool {
	if status == StatusTransportError {
		return true
	}

	code, err := strconv.Atoi(status)

	return err == nil && code >= 400
}
