package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_analysis_runs_total",
			Help: "Total analysis runs by terminal state",
		},
		[]string{"state"},
	)

	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compliance_analysis_duration_seconds",
			Help:    "End-to-end analysis run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	AnalyzerInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_analyzer_invocations_total",
			Help: "Framework analyzer invocations by framework and outcome",
		},
		[]string{"framework", "outcome"},
	)

	FindingsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_findings_recorded_total",
			Help: "Findings persisted by severity",
		},
		[]string{"severity"},
	)

	FeedbackReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_feedback_received_total",
			Help: "User feedback submissions by verdict",
		},
		[]string{"feedback"},
	)

	PatternUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_pattern_upserts_total",
			Help: "Pattern store upserts by outcome",
		},
		[]string{"outcome"},
	)

	PatternsMatched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compliance_patterns_matched_count",
			Help:    "Patterns retrieved per matcher call",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		},
	)

	LearnerProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compliance_learner_processed_total",
			Help: "Learner finding applications by result",
		},
		[]string{"result"},
	)

	OverallScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compliance_overall_score",
			Help:    "Overall compliance scores computed per run",
			Buckets: []float64{0, 10, 25, 50, 75, 90, 100},
		},
	)
)

func init() {
	prometheus.MustRegister(
		AnalysisRunsTotal,
		AnalysisDuration,
		AnalyzerInvocations,
		FindingsRecorded,
		FeedbackReceived,
		PatternUpserts,
		PatternsMatched,
		LearnerProcessed,
		OverallScore,
	)
}

// Handler exposes the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
