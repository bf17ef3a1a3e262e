package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_submissions_total",
			Help: "Total number of maintenance submissions by verdict",
		},
		[]string{"verdict"},
	)

	RuleMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_rule_messages_total",
			Help: "Total number of errors and warnings reported per validation rule",
		},
		[]string{"rule", "severity"},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintenance_submission_duration_seconds",
			Help:    "Time taken to validate and store a submission",
			Buckets: prometheus.DefBuckets,
		},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "maintenance_event_publish_failures_total",
			Help: "Total number of maintenance events that could not be published",
		},
	)
)

// ObserveRule records the messages one rule produced.
func ObserveRule(rule string, errors, warnings int) {
	if errors > 0 {
		RuleMessagesTotal.WithLabelValues(rule, "error").Add(float64(errors))
	}
	if warnings > 0 {
		RuleMessagesTotal.WithLabelValues(rule, "warning").Add(float64(warnings))
	}
}

// ObserveSubmission counts a submission under "accepted" or "rejected".
func ObserveSubmission(accepted bool) {
	verdict := "rejected"
	if accepted {
		verdict = "accepted"
	}
	SubmissionsTotal.WithLabelValues(verdict).Inc()
}
