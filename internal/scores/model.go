package scores

import (
	"time"

	"compliance-backend/internal/findings"
)

// ComplianceScore is one write-once scoring row for a (document,
// framework, run) triple. The latest row per document and framework is
// the current score.
type ComplianceScore struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"documentId"`
	Framework     string    `json:"framework"`
	RunID         string    `json:"runId"`
	OverallScore  int       `json:"overallScore"`
	CriticalCount int       `json:"criticalCount"`
	HighCount     int       `json:"highCount"`
	MediumCount   int       `json:"mediumCount"`
	LowCount      int       `json:"lowCount"`
	InfoCount     int       `json:"infoCount"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Deduction points per severity. Info findings are observations and cost
// nothing.
const (
	criticalPenalty = 25
	highPenalty     = 15
	mediumPenalty   = 5
	lowPenalty      = 1
)

// Counts tallies findings by severity.
type Counts struct {
	Critical int
	High     int
	Medium   int
	Low      int
	Info     int
}

// Add increments the tally for one severity.
func (c *Counts) Add(severity string) {
	switch severity {
	case findings.SeverityCritical:
		c.Critical++
	case findings.SeverityHigh:
		c.High++
	case findings.SeverityMedium:
		c.Medium++
	case findings.SeverityLow:
		c.Low++
	case findings.SeverityInfo:
		c.Info++
	}
}

// Total returns the number of counted findings.
func (c Counts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// Compute returns the overall score for a severity tally: a clean
// document scores 100, and each finding deducts by severity, floored at
// zero.
func Compute(c Counts) int {
	score := 100 - (criticalPenalty*c.Critical + highPenalty*c.High + mediumPenalty*c.Medium + lowPenalty*c.Low)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
