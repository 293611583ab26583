// metrics.go - Prometheus collectors and the /metrics exposition handler.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the node's Prometheus collectors. Each Server carries
// its own registry so tests can construct servers freely without
// duplicate-registration panics.
type metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadsTotal    *prometheus.CounterVec
	uploadBytes     prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etnode_http_requests_total",
				Help: "HTTP requests handled, by method, route, and status.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etnode_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etnode_uploads_total",
				Help: "Upload attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		uploadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "etnode_upload_bytes_total",
				Help: "Total bytes of successfully stored reports.",
			},
		),
	}
}

// middleware records a count and a duration for every request. The path
// label is the matched route pattern, never the raw URL: requests that
// match no route collapse into a single "unmatched" series, so
// path-scanning traffic cannot mint unbounded label pairs.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		// The pattern is only known after routing has run.
		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}

		m.requestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(lrw.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// handler returns the Prometheus exposition endpoint for this registry.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// recordUpload tracks one upload attempt and, on success, its size.
func (m *metrics) recordUpload(outcome string, bytes int64) {
	m.uploadsTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}
