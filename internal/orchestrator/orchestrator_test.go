package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"compliance-backend/internal/alerts"
	"compliance-backend/internal/analyzers"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/findings"
	"compliance-backend/internal/patterns"
	"compliance-backend/internal/scores"
)

// stubAnalyzer returns canned findings or an error.
type stubAnalyzer struct {
	framework string
	raw       []findings.RawFinding
	err       error
	delay     time.Duration
}

func (a *stubAnalyzer) Name() string      { return a.framework + "_agent" }
func (a *stubAnalyzer) Framework() string { return a.framework }

func (a *stubAnalyzer) Analyze(ctx context.Context, input analyzers.Input) ([]findings.RawFinding, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.raw, nil
}

// recordingSink captures emitted events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(ctx context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) byType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, event := range s.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	docs     *documents.Service
	findings *findings.Service
	scores   scores.Repo
	alerts   *alerts.Service
	sink     *recordingSink
}

func newFixture(t *testing.T, analyzerList ...analyzers.Analyzer) *fixture {
	t.Helper()

	registry := analyzers.NewRegistry()
	for _, a := range analyzerList {
		registry.Register(a)
	}

	docs := &documents.Service{Repo: documents.NewMemoryRepo()}
	findingSvc := &findings.Service{Repo: findings.NewMemoryRepo()}
	scoreRepo := scores.NewMemoryRepo()
	alertSvc := alerts.NewService(alerts.NewMemoryRepo())
	sink := &recordingSink{}

	svc := &Service{
		Documents:       docs,
		Findings:        findingSvc,
		Scores:          scoreRepo,
		Alerts:          alertSvc,
		Matcher:         patterns.NewMatcher(patterns.NewMemoryStore(), 0.1, 3, 10),
		Registry:        registry,
		Events:          sink,
		AnalyzerTimeout: time.Second,
		MaxParallel:     2,
	}
	return &fixture{svc: svc, docs: docs, findings: findingSvc, scores: scoreRepo, alerts: alertSvc, sink: sink}
}

func registerDocument(t *testing.T, f *fixture, text string) documents.Document {
	t.Helper()
	doc, err := f.docs.Register(context.Background(), "contract.txt", "contract", text)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return doc
}

func rawFinding(severity string) findings.RawFinding {
	return findings.RawFinding{
		FindingType: findings.TypeRisk,
		Severity:    severity,
		Title:       "Unlimited liability",
		Description: "The contract has no liability cap.",
		Evidence:    "liability shall be unlimited",
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{
		framework: analyzers.FrameworkContractRisk,
		raw:       []findings.RawFinding{rawFinding(findings.SeverityCritical), rawFinding(findings.SeverityLow)},
	})
	doc := registerDocument(t, f, "liability shall be unlimited")
	ctx := context.Background()

	report, err := f.svc.Analyze(ctx, doc.ID, []string{analyzers.FrameworkContractRisk})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Fatalf("status = %q", report.Status)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(report.Findings))
	}
	if report.OverallScore != 100-25-1 {
		t.Fatalf("overall score = %d, want 74", report.OverallScore)
	}
	if len(report.Scores) != 1 || report.Scores[0].Framework != analyzers.FrameworkContractRisk {
		t.Fatalf("scores = %+v", report.Scores)
	}

	// Document settles to analyzed.
	got, err := f.docs.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get document: %v", err)
	}
	if got.Status != documents.StatusAnalyzed {
		t.Fatalf("document status = %q", got.Status)
	}

	// Critical finding raised an alert.
	alertList, err := f.alerts.List(ctx, alerts.Filter{DocumentID: doc.ID}, 0)
	if err != nil {
		t.Fatalf("List alerts: %v", err)
	}
	if len(alertList) != 1 || alertList[0].Severity != findings.SeverityCritical {
		t.Fatalf("alerts = %+v", alertList)
	}

	if len(f.sink.byType(EventAnalysisStarted)) != 1 {
		t.Fatal("missing analysis_started event")
	}
	if got := len(f.sink.byType(EventFindingDiscovered)); got != 2 {
		t.Fatalf("finding_discovered events = %d, want 2", got)
	}
	if len(f.sink.byType(EventFrameworkCompleted)) != 1 {
		t.Fatal("missing framework_completed event")
	}
	if len(f.sink.byType(EventAnalysisComplete)) != 1 {
		t.Fatal("missing analysis_complete event")
	}
}

func TestAnalyzePartialFailureCompletes(t *testing.T) {
	f := newFixture(t,
		&stubAnalyzer{framework: analyzers.FrameworkGDPR, raw: []findings.RawFinding{rawFinding(findings.SeverityHigh)}},
		&stubAnalyzer{framework: analyzers.FrameworkSOC2, err: errors.New("provider down")},
	)
	doc := registerDocument(t, f, "personal data and security controls")
	ctx := context.Background()

	report, err := f.svc.Analyze(ctx, doc.ID, []string{analyzers.FrameworkGDPR, analyzers.FrameworkSOC2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Fatalf("one surviving framework must complete the run, got %q", report.Status)
	}
	if len(report.Failures) != 1 || report.Failures[0].Framework != analyzers.FrameworkSOC2 {
		t.Fatalf("failures = %+v", report.Failures)
	}
	if len(report.Frameworks) != 1 || report.Frameworks[0] != analyzers.FrameworkGDPR {
		t.Fatalf("frameworks = %v", report.Frameworks)
	}
	if len(f.sink.byType(EventFrameworkFailed)) != 1 {
		t.Fatal("missing framework_failed event")
	}
}

func TestAnalyzeAllFailuresFails(t *testing.T) {
	f := newFixture(t,
		&stubAnalyzer{framework: analyzers.FrameworkGDPR, err: errors.New("boom")},
	)
	doc := registerDocument(t, f, "personal data")
	ctx := context.Background()

	report, err := f.svc.Analyze(ctx, doc.ID, []string{analyzers.FrameworkGDPR})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", report.Status)
	}

	got, err := f.docs.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get document: %v", err)
	}
	if got.Status != documents.StatusError {
		t.Fatalf("document status = %q, want error", got.Status)
	}
}

func TestAnalyzeTimeoutIsolated(t *testing.T) {
	// Three frameworks on MaxParallel=2 so the slow analyzer both hits
	// its timeout and holds a slot while the third waits its turn.
	f := newFixture(t,
		&stubAnalyzer{framework: analyzers.FrameworkGDPR, raw: []findings.RawFinding{rawFinding(findings.SeverityMedium)}},
		&stubAnalyzer{framework: analyzers.FrameworkSOC2, delay: time.Second},
		&stubAnalyzer{framework: analyzers.FrameworkContractRisk, raw: []findings.RawFinding{rawFinding(findings.SeverityLow)}},
	)
	f.svc.AnalyzerTimeout = 20 * time.Millisecond
	doc := registerDocument(t, f, "text")
	ctx := context.Background()

	report, err := f.svc.Analyze(ctx, doc.ID, []string{
		analyzers.FrameworkGDPR, analyzers.FrameworkSOC2, analyzers.FrameworkContractRisk,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("status = %q", report.Status)
	}
	if len(report.Failures) != 1 || report.Failures[0].Framework != analyzers.FrameworkSOC2 {
		t.Fatalf("timed-out framework must fail in isolation: %+v", report.Failures)
	}
	if len(report.Frameworks) != 2 {
		t.Fatalf("frameworks = %v, want the two survivors", report.Frameworks)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("findings = %d, want one per surviving framework", len(report.Findings))
	}
	if len(report.Scores) != 2 {
		t.Fatalf("scores = %d, want one per surviving framework", len(report.Scores))
	}
	if got := len(f.sink.byType(EventFrameworkCompleted)); got != 2 {
		t.Fatalf("framework_completed events = %d, want 2", got)
	}
	if got := len(f.sink.byType(EventFrameworkFailed)); got != 1 {
		t.Fatalf("framework_failed events = %d, want 1", got)
	}
}

func TestAnalyzeUnknownFrameworkRejectedBeforeWork(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{framework: analyzers.FrameworkGDPR})
	doc := registerDocument(t, f, "text")
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, doc.ID, []string{"hipaa"})
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	// Rejected before any state change.
	got, err := f.docs.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get document: %v", err)
	}
	if got.Status != documents.StatusPending {
		t.Fatalf("document status = %q, want pending", got.Status)
	}
	if len(f.sink.events) != 0 {
		t.Fatalf("no events expected, got %+v", f.sink.events)
	}
}

func TestAnalyzeZeroFindingsScoresClean(t *testing.T) {
	f := newFixture(t, &stubAnalyzer{framework: analyzers.FrameworkSOC2})
	doc := registerDocument(t, f, "text")
	ctx := context.Background()

	report, err := f.svc.Analyze(ctx, doc.ID, []string{analyzers.FrameworkSOC2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Fatalf("status = %q", report.Status)
	}
	if report.OverallScore != 100 {
		t.Fatalf("clean run must score 100, got %d", report.OverallScore)
	}
}

func TestAnalyzeAutoDetect(t *testing.T) {
	f := newFixture(t,
		&stubAnalyzer{framework: analyzers.FrameworkContractRisk, raw: []findings.RawFinding{rawFinding(findings.SeverityHigh)}},
	)
	doc := registerDocument(t, f, "the parties agree")
	ctx := context.Background()

	// Empty framework list means auto-detect; document_type contract
	// resolves to contract_risk.
	report, err := f.svc.Analyze(ctx, doc.ID, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(report.Frameworks) != 1 || report.Frameworks[0] != analyzers.FrameworkContractRisk {
		t.Fatalf("auto-detect picked %v", report.Frameworks)
	}
}
