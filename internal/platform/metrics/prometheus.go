// Package metrics provides Prometheus collectors for the web server
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "web_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// CMS metrics
	CMSQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "web_cms_query_duration_seconds",
			Help:    "Latency of remote CMS queries",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"resource", "outcome"},
	)

	CMSFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web_cms_fallbacks_total",
			Help: "Number of times local content was served instead of the remote CMS",
		},
		[]string{"resource"},
	)

	CMSCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web_cms_cache_lookups_total",
			Help: "CMS cache lookups by result",
		},
		[]string{"result"},
	)

	// Catalog metrics
	CatalogResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "web_catalog_filter_results",
			Help:    "Number of products left after applying catalog facets",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// RecordRequest records one served HTTP request.
func RecordRequest(route, method string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordCMSQuery records the latency and outcome of a remote CMS query.
func RecordCMSQuery(resource string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CMSQueryDuration.WithLabelValues(resource, outcome).Observe(duration.Seconds())
}

// RecordFallback counts a local content fallback for resource.
func RecordFallback(resource string) {
	CMSFallbacksTotal.WithLabelValues(resource).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		CMSCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	CMSCacheTotal.WithLabelValues("miss").Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
