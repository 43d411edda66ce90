package findings

import "time"

// Finding types.
const (
	TypeViolation    = "violation"
	TypeGap          = "gap"
	TypeRisk         = "risk"
	TypeBestPractice = "best_practice"
	TypeCompliant    = "compliant"
)

// Severities, ordered from most to least severe.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// Feedback verdicts a reviewer may attach to a finding.
const (
	FeedbackAccepted      = "accepted"
	FeedbackRejected      = "rejected"
	FeedbackFalsePositive = "false_positive"
)

// severityWeights totally orders severities for scoring and averaging.
var severityWeights = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// SeverityWeight returns the numeric weight of a severity; unknown
// severities weigh as medium.
func SeverityWeight(severity string) int {
	if w, ok := severityWeights[severity]; ok {
		return w
	}
	return severityWeights[SeverityMedium]
}

// SeverityFromWeight maps a weight back to the nearest severity label.
func SeverityFromWeight(weight int) string {
	switch {
	case weight >= 4:
		return SeverityCritical
	case weight == 3:
		return SeverityHigh
	case weight == 2:
		return SeverityMedium
	case weight == 1:
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// ValidSeverity reports whether s is a known severity.
func ValidSeverity(s string) bool {
	_, ok := severityWeights[s]
	return ok
}

// ValidFeedback reports whether f is a known feedback verdict.
func ValidFeedback(f string) bool {
	switch f {
	case FeedbackAccepted, FeedbackRejected, FeedbackFalsePositive:
		return true
	}
	return false
}

// ValidType reports whether t is a known finding type.
func ValidType(t string) bool {
	switch t {
	case TypeViolation, TypeGap, TypeRisk, TypeBestPractice, TypeCompliant:
		return true
	}
	return false
}

// RawFinding is an analyzer-produced finding before persistence: the same
// shape as Finding minus identity and lifecycle fields.
type RawFinding struct {
	Framework      string `json:"framework"`
	FindingType    string `json:"finding_type"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location,omitempty"`
	Evidence       string `json:"evidence"`
	Recommendation string `json:"recommendation,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
	PatternKey     string `json:"pattern_key,omitempty"`
}

// Finding is one persisted unit of episodic memory: a flagged issue and,
// once reviewed, the human verdict on it.
type Finding struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"documentId"`
	Framework      string     `json:"framework"`
	FindingType    string     `json:"findingType"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Location       string     `json:"location,omitempty"`
	Evidence       string     `json:"evidence"`
	Recommendation string     `json:"recommendation,omitempty"`
	AgentName      string     `json:"agentName,omitempty"`
	AgentReasoning string     `json:"agentReasoning,omitempty"`
	PatternKey     string     `json:"patternKey,omitempty"`
	UserFeedback   string     `json:"userFeedback,omitempty"`
	ActionTaken    string     `json:"actionTaken,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	LearnedAt      *time.Time `json:"-"`
}

// Resolved reports whether a reviewer has attached feedback.
func (f Finding) Resolved() bool {
	return f.UserFeedback != ""
}
