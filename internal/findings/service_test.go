package findings

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRaw() RawFinding {
	return RawFinding{
		Framework:      "gdpr",
		FindingType:    TypeViolation,
		Severity:       SeverityHigh,
		Title:          "Missing lawful basis",
		Description:    "Data is processed without a stated lawful basis.",
		Location:       "section 4",
		Evidence:       "we collect user data for various purposes",
		Recommendation: "State the lawful basis for each processing purpose.",
		Reasoning:      "Article 6 requires a lawful basis.",
		PatternKey:     "gdpr_missing_lawful_basis",
	}
}

func TestServiceRecordAssignsIdentity(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	finding, err := svc.Record(context.Background(), "doc-1", "gdpr_agent", testRaw())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if finding.ID == "" {
		t.Fatal("expected generated id")
	}
	if finding.DocumentID != "doc-1" || finding.AgentName != "gdpr_agent" {
		t.Fatalf("unexpected finding: %+v", finding)
	}
	if finding.Resolved() {
		t.Fatal("new finding must be unresolved")
	}

	got, err := svc.Get(context.Background(), finding.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Missing lawful basis" {
		t.Fatalf("unexpected title %q", got.Title)
	}
}

func TestServiceRecordRejectsEmptyEvidence(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	raw := testRaw()
	raw.Evidence = "   "
	if _, err := svc.Record(context.Background(), "doc-1", "gdpr_agent", raw); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceRecordNormalizesUnknownEnums(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	raw := testRaw()
	raw.FindingType = "surprise"
	raw.Severity = "catastrophic"
	finding, err := svc.Record(context.Background(), "doc-1", "gdpr_agent", raw)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if finding.FindingType != TypeGap {
		t.Fatalf("unknown type should fall back to gap, got %q", finding.FindingType)
	}
	if finding.Severity != SeverityMedium {
		t.Fatalf("unknown severity should fall back to medium, got %q", finding.Severity)
	}
}

func TestServiceAttachFeedbackOnce(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	finding, err := svc.Record(context.Background(), "doc-1", "gdpr_agent", testRaw())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if err := svc.AttachFeedback(context.Background(), finding.ID, FeedbackAccepted, "updated policy"); err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}

	err = svc.AttachFeedback(context.Background(), finding.ID, FeedbackRejected, "")
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}

	got, err := svc.Get(context.Background(), finding.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.UserFeedback != FeedbackAccepted {
		t.Fatalf("first feedback must win, got %q", got.UserFeedback)
	}
	if got.ResolvedAt == nil {
		t.Fatal("resolved_at must be set")
	}
}

func TestServiceAttachFeedbackValidation(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	if err := svc.AttachFeedback(context.Background(), "f-1", "maybe", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown feedback, got %v", err)
	}
	if err := svc.AttachFeedback(context.Background(), "missing", FeedbackAccepted, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoClaimForLearning(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	ctx := context.Background()

	finding, err := svc.Record(ctx, "doc-1", "gdpr_agent", testRaw())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.AttachFeedback(ctx, finding.ID, FeedbackFalsePositive, ""); err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}

	unlearned, err := repo.ListResolvedUnlearned(ctx, 10)
	if err != nil {
		t.Fatalf("ListResolvedUnlearned: %v", err)
	}
	if len(unlearned) != 1 || unlearned[0].ID != finding.ID {
		t.Fatalf("expected one unlearned finding, got %+v", unlearned)
	}

	claimed, err := repo.ClaimForLearning(ctx, finding.ID, time.Now().UTC())
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}
	claimed, err = repo.ClaimForLearning(ctx, finding.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("second claim must be a no-op")
	}

	unlearned, err = repo.ListResolvedUnlearned(ctx, 10)
	if err != nil {
		t.Fatalf("ListResolvedUnlearned after claim: %v", err)
	}
	if len(unlearned) != 0 {
		t.Fatalf("claimed finding must leave the unlearned set, got %+v", unlearned)
	}

	if err := repo.ReleaseClaim(ctx, finding.ID); err != nil {
		t.Fatalf("ReleaseClaim: %v", err)
	}
	unlearned, _ = repo.ListResolvedUnlearned(ctx, 10)
	if len(unlearned) != 1 {
		t.Fatal("released finding must be eligible again")
	}
}

func TestMemoryRepoListByDocumentFilter(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	high := testRaw()
	low := testRaw()
	low.Severity = SeverityLow
	low.Title = "Vague retention period"
	if _, err := svc.Record(ctx, "doc-1", "gdpr_agent", high); err != nil {
		t.Fatalf("Record high: %v", err)
	}
	if _, err := svc.Record(ctx, "doc-1", "gdpr_agent", low); err != nil {
		t.Fatalf("Record low: %v", err)
	}

	all, err := svc.ListByDocument(ctx, "doc-1", Filter{})
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(all))
	}

	highOnly, err := svc.ListByDocument(ctx, "doc-1", Filter{Severity: SeverityHigh})
	if err != nil {
		t.Fatalf("ListByDocument filtered: %v", err)
	}
	if len(highOnly) != 1 || highOnly[0].Severity != SeverityHigh {
		t.Fatalf("severity filter failed: %+v", highOnly)
	}
}
