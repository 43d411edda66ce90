package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"compliance-backend/internal/alerts"
	"compliance-backend/internal/analyzers"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/findings"
	"compliance-backend/internal/patterns"
	"compliance-backend/internal/scores"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// FrameworkAuto asks the orchestrator to pick frameworks from the
// document itself.
const FrameworkAuto = "auto"

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Report is the outcome of one analysis run.
type Report struct {
	RunID           string                   `json:"runId"`
	DocumentID      string                   `json:"documentId"`
	Status          string                   `json:"status"`
	Frameworks      []string                 `json:"frameworksAnalyzed"`
	Failures        []AnalyzerFailure        `json:"failures,omitempty"`
	Findings        []findings.Finding       `json:"findings"`
	Scores          []scores.ComplianceScore `json:"scores"`
	OverallScore    int                      `json:"overallScore"`
	AppliedPatterns []string                 `json:"appliedPatterns,omitempty"`
	Summary         string                   `json:"summary"`
	StartedAt       time.Time                `json:"startedAt"`
	FinishedAt      time.Time                `json:"finishedAt"`
}

// Service runs the perceive / plan / act / reflect loop over a
// document.
type Service struct {
	Documents *documents.Service
	Findings  *findings.Service
	Scores    scores.Repo
	Alerts    *alerts.Service
	Matcher   *patterns.Matcher
	Registry  *analyzers.Registry
	Events    EventSink

	AnalyzerTimeout time.Duration
	MaxParallel     int
}

// frameworkResult is the output of one analyzer invocation in Act.
type frameworkResult struct {
	framework string
	raw       []findings.RawFinding
	patterns  []patterns.RiskPattern
	agentName string
	err       error
}

// Analyze runs one full analysis over a document. Frameworks may name
// concrete frameworks or "auto" (also the meaning of an empty list).
func (s *Service) Analyze(ctx context.Context, documentID string, requested []string) (Report, error) {
	started := time.Now().UTC()
	report := Report{
		RunID:      uuid.NewString(),
		DocumentID: documentID,
		StartedAt:  started,
	}

	// Perceive. Input validation happens before any document state
	// changes or analyzer work.
	doc, err := s.Documents.Get(ctx, documentID)
	if err != nil {
		return Report{}, err
	}
	text, err := s.Documents.Text(ctx, documentID)
	if err != nil {
		return Report{}, err
	}

	frameworks, err := s.resolveFrameworks(requested, doc.DocumentType, text)
	if err != nil {
		return Report{}, err
	}

	if err := s.Documents.SetStatus(ctx, documentID, documents.StatusProcessing); err != nil {
		return Report{}, err
	}
	s.emit(ctx, Event{
		Type:       EventAnalysisStarted,
		RunID:      report.RunID,
		DocumentID: documentID,
		Payload:    map[string]any{"frameworks": frameworks},
	})
	telemetry.Info("run.started",
		zap.String("run_id", report.RunID),
		zap.String("document_id", documentID),
		zap.Strings("frameworks", frameworks),
	)

	// Plan: retrieve learned patterns per framework.
	matchedByFramework := make(map[string][]patterns.RiskPattern, len(frameworks))
	for _, framework := range frameworks {
		matched, err := s.Matcher.Match(ctx, text, framework, doc.DocumentType)
		if err != nil {
			telemetry.Warn("run.pattern_match_failed",
				zap.String("framework", framework),
				zap.Error(err),
			)
			continue
		}
		matchedByFramework[framework] = matched
	}

	// Act: bounded-parallel analyzer invocations, failures isolated.
	results := s.act(ctx, frameworks, text, doc, matchedByFramework)

	// Reflect: persist findings, alerts, and scores; settle run status.
	report = s.reflect(ctx, report, doc, results)
	report.FinishedAt = time.Now().UTC()

	metrics.AnalysisDuration.Observe(report.FinishedAt.Sub(started).Seconds())
	metrics.AnalysisRunsTotal.WithLabelValues(report.Status).Inc()

	status := documents.StatusAnalyzed
	if report.Status == StatusFailed {
		status = documents.StatusError
	}
	if err := s.Documents.SetStatus(ctx, documentID, status); err != nil {
		telemetry.Error("run.status_update_failed",
			zap.String("document_id", documentID),
			zap.Error(err),
		)
	}

	s.emit(ctx, Event{
		Type:       EventAnalysisComplete,
		RunID:      report.RunID,
		DocumentID: documentID,
		Payload: map[string]any{
			"status":       report.Status,
			"overallScore": report.OverallScore,
			"findings":     len(report.Findings),
		},
	})
	return report, nil
}

// resolveFrameworks expands "auto" and validates every framework against
// the registry.
func (s *Service) resolveFrameworks(requested []string, documentType, text string) ([]string, error) {
	auto := len(requested) == 0
	for _, framework := range requested {
		if framework == FrameworkAuto {
			auto = true
			break
		}
	}
	if auto {
		return analyzers.DetectFrameworks(documentType, text), nil
	}

	seen := make(map[string]bool, len(requested))
	out := make([]string, 0, len(requested))
	for _, framework := range requested {
		if _, ok := s.Registry.Get(framework); !ok {
			return nil, ConfigurationError{Field: "framework", Value: framework}
		}
		if !seen[framework] {
			seen[framework] = true
			out = append(out, framework)
		}
	}
	return out, nil
}

func (s *Service) act(ctx context.Context, frameworks []string, text string, doc documents.Document, matched map[string][]patterns.RiskPattern) []frameworkResult {
	limit := s.MaxParallel
	if limit <= 0 {
		limit = 2
	}
	timeout := s.AnalyzerTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	var mu sync.Mutex
	results := make([]frameworkResult, 0, len(frameworks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, framework := range frameworks {
		framework := framework
		g.Go(func() error {
			result := frameworkResult{framework: framework, patterns: matched[framework]}

			analyzer, ok := s.Registry.Get(framework)
			if !ok {
				result.err = ConfigurationError{Field: "framework", Value: framework}
			} else {
				result.agentName = analyzer.Name()
				runCtx, cancel := context.WithTimeout(gctx, timeout)
				result.raw, result.err = analyzer.Analyze(runCtx, analyzers.Input{
					DocumentText:    text,
					Metadata:        analyzers.Metadata{Filename: doc.Filename, DocumentType: doc.DocumentType},
					MatchedPatterns: matched[framework],
				})
				cancel()
			}

			outcome := "ok"
			if result.err != nil {
				outcome = "error"
			}
			metrics.AnalyzerInvocations.WithLabelValues(framework, outcome).Inc()

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			// Failures are captured in the result, never returned: one
			// broken framework must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].framework < results[j].framework })
	return results
}

func (s *Service) reflect(ctx context.Context, report Report, doc documents.Document, results []frameworkResult) Report {
	var overall scores.Counts
	patternKeys := make(map[string]bool)

	for _, result := range results {
		if result.err != nil {
			report.Failures = append(report.Failures, AnalyzerFailure{
				Framework: result.framework,
				Cause:     result.err.Error(),
			})
			telemetry.Warn("run.framework_failed",
				zap.String("run_id", report.RunID),
				zap.String("framework", result.framework),
				zap.Error(result.err),
			)
			s.emit(ctx, Event{
				Type:       EventFrameworkFailed,
				RunID:      report.RunID,
				DocumentID: doc.ID,
				Payload:    map[string]any{"framework": result.framework, "cause": result.err.Error()},
			})
			continue
		}

		var counts scores.Counts
		for _, raw := range result.raw {
			finding, err := s.Findings.Record(ctx, doc.ID, result.agentName, raw)
			if err != nil {
				telemetry.Warn("run.finding_persist_failed",
					zap.String("framework", result.framework),
					zap.Error(err),
				)
				continue
			}
			counts.Add(finding.Severity)
			overall.Add(finding.Severity)
			report.Findings = append(report.Findings, finding)

			s.emit(ctx, Event{
				Type:       EventFindingDiscovered,
				RunID:      report.RunID,
				DocumentID: doc.ID,
				Payload: map[string]any{
					"findingId": finding.ID,
					"framework": finding.Framework,
					"severity":  finding.Severity,
					"title":     finding.Title,
				},
			})

			if _, _, err := s.Alerts.RaiseForFinding(ctx, finding); err != nil {
				telemetry.Warn("run.alert_failed",
					zap.String("finding_id", finding.ID),
					zap.Error(err),
				)
			}
		}

		for _, pattern := range result.patterns {
			patternKeys[pattern.PatternKey] = true
		}

		score := scores.ComplianceScore{
			ID:            uuid.NewString(),
			DocumentID:    doc.ID,
			Framework:     result.framework,
			RunID:         report.RunID,
			OverallScore:  scores.Compute(counts),
			CriticalCount: counts.Critical,
			HighCount:     counts.High,
			MediumCount:   counts.Medium,
			LowCount:      counts.Low,
			InfoCount:     counts.Info,
			Summary:       frameworkSummary(result.framework, counts),
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.Scores.Create(ctx, score); err != nil {
			telemetry.Error("run.score_persist_failed",
				zap.String("framework", result.framework),
				zap.Error(err),
			)
		} else {
			report.Scores = append(report.Scores, score)
		}
		metrics.OverallScore.Observe(float64(score.OverallScore))

		report.Frameworks = append(report.Frameworks, result.framework)
		s.emit(ctx, Event{
			Type:       EventFrameworkCompleted,
			RunID:      report.RunID,
			DocumentID: doc.ID,
			Payload:    map[string]any{"framework": result.framework, "score": score.OverallScore},
		})
	}

	report.OverallScore = scores.Compute(overall)
	for key := range patternKeys {
		report.AppliedPatterns = append(report.AppliedPatterns, key)
	}
	sort.Strings(report.AppliedPatterns)

	if len(report.Frameworks) > 0 {
		report.Status = StatusCompleted
	} else {
		report.Status = StatusFailed
	}
	report.Summary = runSummary(report, overall)
	return report
}

func (s *Service) emit(ctx context.Context, event Event) {
	if s.Events == nil {
		return
	}
	s.Events.Emit(ctx, event)
}

func frameworkSummary(framework string, c scores.Counts) string {
	return fmt.Sprintf("%s: %d findings (%d critical, %d high, %d medium, %d low, %d info)",
		framework, c.Total(), c.Critical, c.High, c.Medium, c.Low, c.Info)
}

func runSummary(report Report, c scores.Counts) string {
	if report.Status == StatusFailed {
		return fmt.Sprintf("analysis failed: no framework completed (%d failures)", len(report.Failures))
	}
	summary := fmt.Sprintf("analyzed %d framework(s), %d findings, overall score %d",
		len(report.Frameworks), c.Total(), report.OverallScore)
	if len(report.AppliedPatterns) > 0 {
		summary += fmt.Sprintf(", %d learned pattern(s) applied", len(report.AppliedPatterns))
	}
	if len(report.Failures) > 0 {
		summary += fmt.Sprintf(", %d framework(s) failed", len(report.Failures))
	}
	return summary
}
