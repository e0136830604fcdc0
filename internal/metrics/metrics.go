package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled HTTP requests by route, method and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroapp_http_requests_total",
			Help: "The total number of HTTP requests handled.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration is a histogram of request handling time per route.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astroapp_http_request_duration_seconds",
			Help:    "A histogram of HTTP request handling duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// StorageFailures counts storage errors that were degraded to defaults.
	// The caller still sees a well-formed response when one of these fires.
	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroapp_storage_failures_total",
			Help: "The total number of swallowed storage failures.",
		},
		[]string{"operation"},
	)

	// ActionsDispatched counts Mini App actions by name.
	ActionsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroapp_actions_total",
			Help: "The total number of dispatched user actions.",
		},
		[]string{"action"},
	)

	// InvoicesCreated counts invoice requests by method and outcome.
	InvoicesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astroapp_invoices_total",
			Help: "The total number of invoice creation attempts.",
		},
		[]string{"method", "status"},
	)

	// AuthRejections counts init-data verifications that failed.
	AuthRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "astroapp_auth_rejections_total",
			Help: "The total number of rejected init-data payloads.",
		},
	)
)
