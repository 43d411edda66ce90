package patterns

import (
	"fmt"
	"time"

	"compliance-backend/internal/findings"
)

// FrameworkAll marks a pattern applicable to every framework.
const FrameworkAll = "all"

// Feedback outcomes a pattern observation can carry.
const (
	OutcomeTruePositive  = "true_positive"
	OutcomeFalsePositive = "false_positive"
)

// RiskPattern is one entry in the distilled semantic memory: an
// aggregated, precision-scored regularity over resolved findings.
type RiskPattern struct {
	ID             string `json:"id"`
	PatternKey     string `json:"patternKey"`
	Description    string `json:"description"`
	Framework      string `json:"framework"`
	DocumentType   string `json:"documentType,omitempty"`
	RiskIndicator  string `json:"riskIndicator"`
	Frequency      int    `json:"frequencyObserved"`
	TruePositives  int    `json:"truePositiveCount"`
	FalsePositives int    `json:"falsePositiveCount"`
	// Precision is nil until at least one observation carried feedback.
	Precision           *float64  `json:"precision,omitempty"`
	Confidence          float64   `json:"confidence"`
	SeverityPoints      int       `json:"-"`
	AvgSeverity         string    `json:"avgSeverity"`
	LearnedRule         string    `json:"learnedRule"`
	RemediationTemplate string    `json:"remediationTemplate,omitempty"`
	FirstObservedAt     time.Time `json:"firstObservedAt"`
	LastUpdatedAt       time.Time `json:"lastUpdatedAt"`
}

// Delta is one observation folded into a pattern.
type Delta struct {
	Outcome       string
	Severity      string
	Framework     string
	DocumentType  string
	RiskIndicator string
	Description   string
	Remediation   string
}

// confidenceSaturation controls how fast confidence approaches 1 with
// observation count: confidence = n / (n + confidenceSaturation).
const confidenceSaturation = 20.0

// ConfidenceFor returns the saturating confidence for n observations.
func ConfidenceFor(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) / (float64(n) + confidenceSaturation)
}

// PrecisionFor recomputes precision from the feedback counters. It
// returns nil when no observation carried feedback yet.
func PrecisionFor(tp, fp int) *float64 {
	total := tp + fp
	if total == 0 {
		return nil
	}
	p := float64(tp) / float64(total)
	return &p
}

// AvgSeverityFor maps accumulated severity points back to a label.
func AvgSeverityFor(points, frequency int) string {
	if frequency <= 0 {
		return findings.SeverityMedium
	}
	// Round-half-up on the integer mean.
	weight := (points*2 + frequency) / (2 * frequency)
	return findings.SeverityFromWeight(weight)
}

// BuildLearnedRule renders the human-readable rule for a pattern. The
// rule always embeds current precision so stale text cannot outlive the
// counters.
func BuildLearnedRule(p RiskPattern) string {
	precision := "unrated"
	if p.Precision != nil {
		precision = fmt.Sprintf("%.0f%% precision", *p.Precision*100)
	}
	return fmt.Sprintf("Documents containing %q tend to show %s severity issues: %s (observed %d times, %s)",
		p.RiskIndicator, p.AvgSeverity, p.Description, p.Frequency, precision)
}
