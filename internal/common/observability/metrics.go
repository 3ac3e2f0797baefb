package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"from", "to"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Total number of step validations that blocked navigation",
		},
		[]string{"step"},
	)

	DraftSaves = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_draft_saves_total",
			Help: "Total number of draft writes that reached storage",
		},
	)

	DraftSavesCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_draft_saves_coalesced_total",
			Help: "Total number of scheduled saves absorbed by the debounce window",
		},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "catalog_lookup_duration_seconds",
			Help: "Duration of catalog lookups by kind",
		},
		[]string{"kind"},
	)

	LookupStaleDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookup_stale_drops_total",
			Help: "Responses discarded because a newer lookup of the same kind was issued",
		},
		[]string{"kind"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Subscription submissions by outcome",
		},
		[]string{"outcome"},
	)
)
