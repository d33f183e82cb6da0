package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine build metrics
	EngineBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_engine_builds_total",
			Help: "Total number of engine builds by outcome",
		},
		[]string{"outcome"}, // "success", "error"
	)

	EngineBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_engine_build_duration_seconds",
			Help:    "Duration of catalog load plus vectorization and similarity precomputation",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_catalog_items",
			Help: "Number of items in the active catalog",
		},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommender_vocabulary_size",
			Help: "Number of terms in the active vocabulary",
		},
	)

	// Query metrics
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_queries_total",
			Help: "Total number of recommendation queries",
		},
		[]string{"mode", "outcome"}, // mode: name, text, none; outcome: ok, unknown_item, offline, error
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommender_query_duration_seconds",
			Help:    "Duration of recommendation queries",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"mode"},
	)

	// Response cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommender_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_cache_errors_total",
			Help: "Total number of response cache errors",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommender_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordBuild updates engine gauges after a successful build
func RecordBuild(items, vocabulary int, seconds float64) {
	EngineBuilds.WithLabelValues("success").Inc()
	EngineBuildDuration.Observe(seconds)
	CatalogItems.Set(float64(items))
	VocabularySize.Set(float64(vocabulary))
}

// RecordBuildError counts a failed build
func RecordBuildError() {
	EngineBuilds.WithLabelValues("error").Inc()
}

// RecordQuery counts a query and its latency
func RecordQuery(mode, outcome string, seconds float64) {
	Recommendations.WithLabelValues(mode, outcome).Inc()
	RecommendationDuration.WithLabelValues(mode).Observe(seconds)
}
