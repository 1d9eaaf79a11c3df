package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PollOutcomes counts finished job waits by outcome kind
	PollOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medscribe_poll_outcomes_total",
			Help: "Finished recognition job waits by outcome.",
		},
		[]string{"outcome"},
	)
	// PollTransient counts swallowed poll failures
	PollTransient = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medscribe_poll_transient_errors_total",
			Help: "Status checks that failed and were counted as wasted attempts.",
		},
	)
	// Notes counts produced notes by source: ai or heuristic
	Notes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medscribe_notes_total",
			Help: "Generated notes by source.",
		},
		[]string{"source"},
	)
	// StorageDeleteFailures counts best-effort deletes that did not succeed
	StorageDeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medscribe_storage_delete_failures_total",
			Help: "Audio object deletions that failed and were ignored.",
		},
	)
)

func init() {
	prometheus.MustRegister(PollOutcomes, PollTransient, Notes, StorageDeleteFailures)
}
