package analyzers

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"compliance-backend/internal/findings"
	"compliance-backend/internal/shared/telemetry"
)

type analysisPayload struct {
	Findings []findings.RawFinding `json:"findings"`
	Summary  string                `json:"summary"`
}

// parseFindings decodes an analyzer response and normalizes each
// finding. Findings without evidence are dropped: a claim the model
// cannot anchor to document text is treated as fabricated.
func parseFindings(raw json.RawMessage, framework string) ([]findings.RawFinding, error) {
	var payload analysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode %s analysis: %w", framework, err)
	}

	out := make([]findings.RawFinding, 0, len(payload.Findings))
	dropped := 0
	for _, finding := range payload.Findings {
		if strings.TrimSpace(finding.Title) == "" || strings.TrimSpace(finding.Evidence) == "" {
			dropped++
			continue
		}
		finding.Framework = framework
		finding.FindingType = normalizeType(finding.FindingType)
		if !findings.ValidSeverity(finding.Severity) {
			finding.Severity = findings.SeverityMedium
		}
		out = append(out, finding)
	}

	if dropped > 0 {
		telemetry.Warn("analyzer.findings_dropped",
			zap.String("framework", framework),
			zap.Int("dropped", dropped),
		)
	}
	return out, nil
}

// normalizeType maps model vocabulary onto the stored finding types. The
// contract analyzer speaks in favorable/standard terms.
func normalizeType(t string) string {
	switch t {
	case "favorable":
		return findings.TypeBestPractice
	case "standard":
		return findings.TypeCompliant
	}
	if findings.ValidType(t) {
		return t
	}
	return findings.TypeGap
}
