package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scan pipeline Prometheus metrics.
var (
	PagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "pages_total",
			Help:      "Total non-empty cursor pages consumed",
		},
	)

	HitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "hits_total",
			Help:      "Total documents returned by the scan cursor",
		},
	)

	EventsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "events_emitted_total",
			Help:      "Total events extracted from term vectors",
		},
	)

	EventsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "events_completed_total",
			Help:      "Total events that finished the dispatch chain",
		},
		[]string{"status"}, // "ok" / "error"
	)

	DocumentFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "document_failures_total",
			Help:      "Documents skipped during extraction",
		},
		[]string{"reason"}, // "lookup" / "missing_id" / "extract"
	)

	BatchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termgen",
			Name:      "batch_failures_total",
			Help:      "Term vector batch calls that failed as a whole",
		},
	)

	GateWaitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "termgen",
			Name:      "gate_wait_duration_seconds",
			Help:      "Time the driver waited for the previous batch to drain",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DriverState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "termgen",
			Name:      "driver_state",
			Help:      "Scan driver state: 0 awaiting_cursor, 1 awaiting_page, 2 draining, 3 done",
		},
	)
)

var termgenMetricsRegistered bool

// RegisterTermgenMetrics registers the scan pipeline and ops endpoint metrics
// with the default registry. Must be called from main before serving /metrics.
func RegisterTermgenMetrics() {
	if termgenMetricsRegistered {
		return
	}
	prometheus.MustRegister(PagesTotal)
	prometheus.MustRegister(HitsTotal)
	prometheus.MustRegister(EventsEmittedTotal)
	prometheus.MustRegister(EventsCompletedTotal)
	prometheus.MustRegister(DocumentFailuresTotal)
	prometheus.MustRegister(BatchFailuresTotal)
	prometheus.MustRegister(GateWaitDuration)
	prometheus.MustRegister(DriverState)
	prometheus.MustRegister(opsRequestDuration)
	prometheus.MustRegister(opsRequestsTotal)
	termgenMetricsRegistered = true
}
