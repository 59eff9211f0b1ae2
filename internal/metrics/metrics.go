package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by tier, endpoint and status.",
		},
		[]string{"tier", "endpoint", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shareit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by tier and endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tier", "endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingsDecided = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "bookings_decided_total",
			Help:      "Booking approvals and rejections.",
		},
		[]string{"status"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "user_cache_lookups_total",
			Help:      "User cache lookups by outcome (hit, miss, error).",
		},
		[]string{"outcome"},
	)

	ledgerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "ledger_tasks_total",
			Help:      "Ledger sync tasks by outcome (completed, retried, failed).",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingsCreated, bookingsDecided, cacheLookups, ledgerTasks)
	})
}

// ObserveHTTP records one handled request.
func ObserveHTTP(tier, endpoint, status string, seconds float64) {
	httpRequests.WithLabelValues(tier, endpoint, status).Inc()
	httpDuration.WithLabelValues(tier, endpoint).Observe(seconds)
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncBookingDecided(status string) { bookingsDecided.WithLabelValues(status).Inc() }

func IncCacheLookup(outcome string) { cacheLookups.WithLabelValues(outcome).Inc() }

func IncLedgerTask(outcome string) { ledgerTasks.WithLabelValues(outcome).Inc() }
