// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts POST /api/apply outcomes: success,
	// validation_failed, persist_failed, notify_failed.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"outcome"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_step_duration_seconds",
			Help:    "Duration of submission pipeline steps in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_notifications_total",
			Help: "Total number of notification sends by kind and status",
		},
		[]string{"kind", "status"},
	)

	ListCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_list_cache_lookups_total",
			Help: "Application list cache lookups by result (hit, miss, bypass, error)",
		},
		[]string{"result"},
	)

	NavigationEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_navigation_events_total",
			Help: "Total number of navigation events logged",
		},
	)
)
