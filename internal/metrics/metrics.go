// Package metrics exposes prometheus counters for the lead pipeline and an
// HTTP middleware for the webhook server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	leadsUpserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_leads_upserted_total",
			Help: "Lead upsert outcomes by source and result",
		},
		[]string{"source", "outcome"},
	)

	callListSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_call_list_syncs_total",
			Help: "Call-list reconciliation outcomes by tier and action",
		},
		[]string{"tier", "action"},
	)

	remoteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_remote_errors_total",
			Help: "Remote API failures by service",
		},
		[]string{"service"},
	)
)

// RecordUpsert counts one upsert outcome ("created" or "skipped").
func RecordUpsert(source, outcome string) {
	leadsUpserted.WithLabelValues(source, outcome).Inc()
}

// RecordCallListSync counts one call-list reconciliation action.
func RecordCallListSync(tier, action string) {
	callListSyncs.WithLabelValues(tier, action).Inc()
}

// RecordRemoteError counts a failed remote call against a service name.
func RecordRemoteError(service string) {
	remoteErrors.WithLabelValues(service).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency for every route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		status := strconv.Itoa(rw.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}
