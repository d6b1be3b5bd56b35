// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route pattern and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unipulse_http_requests_total",
		Help: "HTTP requests served, by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency by route pattern
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unipulse_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// IngestRows counts bulk attendance rows by outcome: inserted, skipped, rejected
	IngestRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unipulse_attendance_ingest_rows_total",
		Help: "Bulk attendance CSV rows, by outcome.",
	}, []string{"outcome"})

	// BlobOperations counts blob store calls by backend, operation and result
	BlobOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unipulse_blob_operations_total",
		Help: "Blob store operations, by backend, operation and result.",
	}, []string{"backend", "op", "result"})
)

// Ingest outcomes
const (
	OutcomeInserted = "inserted"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Middleware records HTTPRequests and HTTPDuration. The route label is the
// chi pattern so that path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
