package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	regenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wages",
			Subsystem: "analysis",
			Name:      "regenerations_total",
			Help:      "Artifact regenerations by outcome.",
		},
		[]string{"outcome"},
	)

	regenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wages",
			Subsystem: "analysis",
			Name:      "regeneration_duration_seconds",
			Help:      "Time to recompute and store one partition's artifacts.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
