// Package metrics exposes the resolver's Prometheus counters and a
// promhttp handler for scraping them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolved_queries_total", Help: "Total queries received by type"},
		[]string{"type"},
	)
	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolved_answers_total", Help: "Total answers returned by source"},
		[]string{"source"}, // always "resolve": cache hits are served through the resolver and not labelled separately
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "resolved_errors_total", Help: "Total query failures by kind"},
		[]string{"kind"},
	)
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "resolved_query_duration_seconds", Help: "End-to-end query handling latency", Buckets: prometheus.DefBuckets},
	)

	// The cache counters are registered but not incremented by any package
	// here; cache activity is reported through cache.Stats instead.
	CacheHits      = prometheus.NewCounter(prometheus.CounterOpts{Name: "resolved_cache_hits_total", Help: "Cache hits"})
	CacheMisses    = prometheus.NewCounter(prometheus.CounterOpts{Name: "resolved_cache_misses_total", Help: "Cache misses"})
	CacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{Name: "resolved_cache_evictions_total", Help: "Cache entries evicted for space"})
)

func init() {
	prometheus.MustRegister(
		QueriesTotal,
		AnswersTotal,
		ErrorsTotal,
		QueryDuration,
		CacheHits,
		CacheMisses,
		CacheEvictions,
	)
}

// Handler returns the promhttp handler for a debug metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
