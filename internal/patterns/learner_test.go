package patterns

import (
	"context"
	"errors"
	"testing"

	"compliance-backend/internal/findings"
)

func seedResolvedFinding(t *testing.T, repo findings.Repo, feedback string) findings.Finding {
	t.Helper()
	svc := &findings.Service{Repo: repo}
	finding, err := svc.Record(context.Background(), "doc-1", "gdpr_agent", findings.RawFinding{
		Framework:   "gdpr",
		FindingType: findings.TypeViolation,
		Severity:    findings.SeverityHigh,
		Title:       "Missing lawful basis",
		Description: "No lawful basis stated for processing.",
		Evidence:    "we collect user data for various purposes",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if feedback != "" {
		if err := svc.AttachFeedback(context.Background(), finding.ID, feedback, ""); err != nil {
			t.Fatalf("AttachFeedback: %v", err)
		}
	}
	return finding
}

func TestLearnerProcessAccepted(t *testing.T) {
	repo := findings.NewMemoryRepo()
	store := NewMemoryStore()
	learner := NewLearner(repo, store)
	ctx := context.Background()

	finding := seedResolvedFinding(t, repo, findings.FeedbackAccepted)
	if err := learner.Process(ctx, finding.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	pattern, err := store.Get(ctx, DeriveKey("gdpr", "Missing lawful basis"))
	if err != nil {
		t.Fatalf("Get pattern: %v", err)
	}
	if pattern.TruePositives != 1 || pattern.FalsePositives != 0 {
		t.Fatalf("accepted feedback must bump true positives: %+v", pattern)
	}
	if pattern.Framework != "gdpr" {
		t.Fatalf("framework = %q", pattern.Framework)
	}
}

func TestLearnerProcessRejectedCountsFalsePositive(t *testing.T) {
	repo := findings.NewMemoryRepo()
	store := NewMemoryStore()
	learner := NewLearner(repo, store)
	ctx := context.Background()

	finding := seedResolvedFinding(t, repo, findings.FeedbackRejected)
	if err := learner.Process(ctx, finding.ID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	pattern, err := store.Get(ctx, DeriveKey("gdpr", "Missing lawful basis"))
	if err != nil {
		t.Fatalf("Get pattern: %v", err)
	}
	if pattern.FalsePositives != 1 || pattern.TruePositives != 0 {
		t.Fatalf("rejected feedback must bump false positives: %+v", pattern)
	}
}

func TestLearnerProcessIdempotent(t *testing.T) {
	repo := findings.NewMemoryRepo()
	store := NewMemoryStore()
	learner := NewLearner(repo, store)
	ctx := context.Background()

	finding := seedResolvedFinding(t, repo, findings.FeedbackAccepted)

	for i := 0; i < 3; i++ {
		if err := learner.Process(ctx, finding.ID); err != nil {
			t.Fatalf("Process round %d: %v", i, err)
		}
	}

	pattern, err := store.Get(ctx, DeriveKey("gdpr", "Missing lawful basis"))
	if err != nil {
		t.Fatalf("Get pattern: %v", err)
	}
	if pattern.Frequency != 1 || pattern.TruePositives != 1 {
		t.Fatalf("duplicate processing must not double count: %+v", pattern)
	}
}

func TestLearnerProcessUnresolved(t *testing.T) {
	repo := findings.NewMemoryRepo()
	learner := NewLearner(repo, NewMemoryStore())

	finding := seedResolvedFinding(t, repo, "")
	if err := learner.Process(context.Background(), finding.ID); !errors.Is(err, ErrNotResolved) {
		t.Fatalf("expected ErrNotResolved, got %v", err)
	}
}

func TestLearnerSweepProcessesBacklog(t *testing.T) {
	repo := findings.NewMemoryRepo()
	store := NewMemoryStore()
	learner := NewLearner(repo, store)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		seedResolvedFinding(t, repo, findings.FeedbackAccepted)
	}

	processed, err := learner.Sweep(ctx, 10)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if processed != 4 {
		t.Fatalf("processed = %d, want 4", processed)
	}

	// Backlog drained: a second sweep finds nothing.
	processed, err = learner.Sweep(ctx, 10)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if processed != 0 {
		t.Fatalf("second sweep processed %d, want 0", processed)
	}

	pattern, err := store.Get(ctx, DeriveKey("gdpr", "Missing lawful basis"))
	if err != nil {
		t.Fatalf("Get pattern: %v", err)
	}
	if pattern.Frequency != 4 {
		t.Fatalf("frequency = %d, want 4", pattern.Frequency)
	}
}

func TestOutcomeForFeedbackUnknown(t *testing.T) {
	_, err := outcomeForFeedback("maybe")
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
