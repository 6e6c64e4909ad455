package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bouquet_recommendations_total",
			Help: "Total number of recommendation results by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bouquet_fallbacks_total",
			Help: "Total number of times the fallback recommender was used, by reason",
		},
		[]string{"reason"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bouquet_generation_duration_seconds",
			Help:    "Duration of text generation calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "status"},
	)

	GenerationCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bouquet_generation_cache_total",
			Help: "Generation cache lookups by result",
		},
		[]string{"result"},
	)

	RecommendationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bouquet_recommendations_active",
			Help: "Number of recommendation requests in progress",
		},
	)
)
