package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors.
var Metrics = struct {
	AnalyzeRequests prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	RateLimited     prometheus.Counter
}{
	AnalyzeRequests: promauto.NewCounter(prometheus.CounterOpts{
		Name: "resona_analyze_requests_total",
		Help: "Total analysis submissions received.",
	}),
	CacheHits: promauto.NewCounter(prometheus.CounterOpts{
		Name: "resona_analysis_cache_hits_total",
		Help: "Submissions resolved from the completed-analysis cache.",
	}),
	CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
		Name: "resona_analysis_cache_misses_total",
		Help: "Analysis fetches that had to go to the audio service.",
	}),
	RateLimited: promauto.NewCounter(prometheus.CounterOpts{
		Name: "resona_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	}),
}

// MetricsHandler exposes the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
