package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandidatesScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_candidates_scored_total",
			Help: "Candidates scored, by pass",
		},
		[]string{"pass"},
	)

	CandidatesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_candidates_rejected_total",
			Help: "Candidates removed by the hard constraint filter, by pass",
		},
		[]string{"pass"},
	)

	Enrichments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_enrichments_total",
			Help: "Image enrichment attempts by outcome",
		},
		[]string{"outcome"},
	)

	EnrichmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artmatch_enrichment_duration_seconds",
			Help:    "Image enrichment call duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	StrategyAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_strategy_attempts_total",
			Help: "Fallback strategy attempts by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_runs_total",
			Help: "Matching runs by final reason",
		},
		[]string{"reason"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artmatch_run_duration_seconds",
			Help:    "Matching run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	MatchScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artmatch_match_score",
			Help:    "Scores of accepted matches",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_cache_lookups_total",
			Help: "Cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_upstream_requests_total",
			Help: "Upstream HTTP requests by service and status",
		},
		[]string{"service", "status"},
	)

	VisionTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_vision_tokens_total",
			Help: "Tokens consumed by the vision model",
		},
		[]string{"model"},
	)

	VisionCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_vision_cost_usd_total",
			Help: "Estimated vision spend in USD",
		},
		[]string{"model"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artmatch_http_requests_total",
			Help: "API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call repeatedly.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CandidatesScored,
			CandidatesRejected,
			Enrichments,
			EnrichmentDuration,
			StrategyAttempts,
			RunsTotal,
			RunDuration,
			MatchScore,
			CacheLookups,
			UpstreamRequests,
			VisionTokens,
			VisionCost,
			HTTPRequests,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CacheResult labels a cache lookup.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
