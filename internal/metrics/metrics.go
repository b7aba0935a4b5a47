package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_total",
			Help: "Total number of eligibility assessments by decision",
		},
		[]string{"decision"},
	)

	GateDeclinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gate_declines_total",
			Help: "Total number of applications declined at each gate",
		},
		[]string{"gate"},
	)

	LenderMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lender_matches_total",
			Help: "Total number of lender outcomes by bucket",
		},
		[]string{"lender", "bucket"},
	)

	AssessmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_duration_seconds",
			Help:    "Duration of assessment requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"endpoint"},
	)
)

// Lender outcome buckets.
const (
	BucketApproved    = "approved"
	BucketConditional = "conditional"
	BucketDeclined    = "declined"
)

// RecordDecision counts one completed assessment. declinedAt is the gate that
// stopped it, or empty.
func RecordDecision(decision, declinedAt string, approved, conditional, declined []string) {
	AssessmentsTotal.WithLabelValues(decision).Inc()
	if declinedAt != "" {
		GateDeclinesTotal.WithLabelValues(declinedAt).Inc()
		return
	}
	for _, name := range approved {
		LenderMatchesTotal.WithLabelValues(name, BucketApproved).Inc()
	}
	for _, name := range conditional {
		LenderMatchesTotal.WithLabelValues(name, BucketConditional).Inc()
	}
	for _, name := range declined {
		LenderMatchesTotal.WithLabelValues(name, BucketDeclined).Inc()
	}
}
