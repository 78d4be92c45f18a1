package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "trip_validation", Name: "validations_total", Help: "Validation attempts by category and verdict"},
		[]string{"category", "verdict", "mode"},
	)
	ValidationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "trip_validation", Name: "validation_duration_seconds", Help: "End-to-end validation run latency", Buckets: prometheus.DefBuckets},
	)
	ValidationScore = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "trip_validation", Name: "validation_score", Help: "Total score distribution of scored attempts", Buckets: prometheus.LinearBuckets(0, 10, 11)},
	)
	ScheduledTimers = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "trip_validation", Name: "scheduled_timers", Help: "Currently armed validation timers"},
	)
	DeferralsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "trip_validation", Name: "deferrals_total", Help: "Carpool validations deferred waiting for partner data"},
	)
	OverridesTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "trip_validation", Name: "overrides_total", Help: "Administrative result overrides"},
	)
)
