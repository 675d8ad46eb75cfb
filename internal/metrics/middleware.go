package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Ops endpoint metrics, labeled by chi route pattern and status code.
var (
	opsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "termgen",
			Subsystem: "ops",
			Name:      "request_duration_seconds",
			Help:      "Ops endpoint request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"path", "status"},
	)

	opsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Subsystem: "ops",
			Name:      "requests_total",
			Help:      "Total number of ops endpoint requests",
		},
		[]string{"path", "status"},
	)
)

// Middleware records ops request duration and count.
// Requests outside the router's patterns are recorded under "unknown".
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			labels := prometheus.Labels{
				"path":   routePattern(r),
				"status": strconv.Itoa(statusOf(ww)),
			}
			opsRequestDuration.With(labels).Observe(time.Since(start).Seconds())
			opsRequestsTotal.With(labels).Inc()
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

// statusOf treats a handler that never wrote a header as an implicit 200.
func statusOf(ww chiMiddleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
