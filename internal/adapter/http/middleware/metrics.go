package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/paymaster/internal/infrastructure/metrics"
)

// MetricsMiddleware records per-request counters and latency.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates a new MetricsMiddleware.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Wrap wraps an http.Handler with metrics recording.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := normalizePath(r.URL.Path)
		m.metrics.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.metrics.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath collapses path parameters to keep label cardinality low.
// /api/v1/breakers/search-svc/reset -> /api/v1/breakers/:service/reset
// /api/v1/ledger/entries/01ABC...   -> /api/v1/ledger/entries/:id
func normalizePath(path string) string {
	const (
		breakersPrefix = "/api/v1/breakers/"
		entriesPrefix  = "/api/v1/ledger/entries/"
	)
	switch {
	case strings.HasPrefix(path, breakersPrefix) && len(path) > len(breakersPrefix):
		rest := path[len(breakersPrefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return breakersPrefix + ":service" + rest[i:]
		}
		return breakersPrefix + ":service"
	case strings.HasPrefix(path, entriesPrefix) && len(path) > len(entriesPrefix):
		return entriesPrefix + ":id"
	}
	return path
}
