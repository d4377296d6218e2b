package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "token_cache_lookups_total",
		Help: "Record cache lookups by result",
	}, []string{"result"})

	cacheWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_cache_write_errors_total",
		Help: "Record cache writes that failed",
	})

	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Upstream feed requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Time spent waiting on the upstream feed",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stream_active_sessions",
		Help: "Currently connected streaming subscribers",
	})

	pushedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_pushed_records_total",
		Help: "Changed records pushed to subscribers",
	})

	roundFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stream_fetch_errors_total",
		Help: "Per-token fetch failures during broadcast rounds",
	})

	roundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stream_round_duration_seconds",
		Help:    "Time spent on one broadcast round",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
	})
)

func CacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

func CacheWriteError() {
	cacheWriteErrors.Inc()
}

func UpstreamRequest(endpoint, outcome string, took time.Duration) {
	upstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	upstreamDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

func SessionOpened() {
	activeSessions.Inc()
}

func SessionClosed() {
	activeSessions.Dec()
}

func RecordPushed() {
	pushedRecords.Inc()
}

func RoundFetchError() {
	roundFetchErrors.Inc()
}

func RecordRoundDuration(d time.Duration) {
	roundDuration.Observe(d.Seconds())
}
