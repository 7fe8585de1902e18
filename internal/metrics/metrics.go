package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pickupsched"

var (
	once sync.Once

	availabilityQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_queries_total",
			Help:      "Count of availability queries by operation and result.",
		},
		[]string{"op", "result"},
	)

	availabilityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "availability_query_duration_seconds",
			Help:      "Time to resolve an availability query.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)

	scheduleMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_mutations_total",
			Help:      "Count of schedule edits by operation and result.",
		},
		[]string{"op", "result"},
	)

	demandWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "demand_warnings_total",
			Help:      "Count of exception writes that reduced capacity below outstanding demand.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code class.",
		},
		[]string{"route", "code"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Count of schedule cache lookups by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	holidaysApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "holiday_blocks_applied_total",
			Help:      "Count of holiday block exceptions inserted from the holiday calendar.",
		},
	)

	backups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Count of database backups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			availabilityQueries,
			availabilityDuration,
			scheduleMutations,
			demandWarnings,
			httpRequests,
			cacheLookups,
			holidaysApplied,
			backups,
		)
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveAvailability(op string, started time.Time, err error) {
	availabilityQueries.WithLabelValues(op, result(err)).Inc()
	availabilityDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func IncMutation(op string, err error) {
	scheduleMutations.WithLabelValues(op, result(err)).Inc()
}

func IncDemandWarning() {
	demandWarnings.Inc()
}

// IncHTTP counts a request; code is collapsed to its class ("2xx", "4xx").
func IncHTTP(route string, status int) {
	httpRequests.WithLabelValues(route, codeClass(status)).Inc()
}

func codeClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func IncCacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	cacheLookups.WithLabelValues(kind, outcome).Inc()
}

func AddHolidaysApplied(n int) {
	if n > 0 {
		holidaysApplied.Add(float64(n))
	}
}

func IncBackup(err error) {
	backups.WithLabelValues(result(err)).Inc()
}
