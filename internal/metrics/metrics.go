// Package metrics exposes prometheus instrumentation for provider calls, the result cache and
// neighborhood verification.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_provider_requests_total",
		Help: "Places provider requests by endpoint and normalized outcome",
	}, []string{"endpoint", "outcome"})
	ProviderDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "location_provider_duration_ms",
		Help:    "Places provider call duration in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2500, 5000},
	}, []string{"endpoint"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_cache_lookups_total",
		Help: "Result cache lookups by result (hit, negative_hit, miss, expired, error)",
	}, []string{"result"})
	VerificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_verifications_total",
		Help: "Neighborhood verifications by terminal status",
	}, []string{"status"})
	LandmarkTypeFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "location_landmark_type_failures_total",
		Help: "Per-type nearby searches that failed during landmark aggregation",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderDurationMs)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(VerificationsTotal)
	prometheus.MustRegister(LandmarkTypeFailuresTotal)
}

// Handler returns the /metrics handler.
func Handler() http.Handler { return promhttp.Handler() }
