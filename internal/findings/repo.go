package findings

import (
	"context"
	"time"
)

// Filter narrows ListByDocument results.
type Filter struct {
	Framework string
	Severity  string
}

// Repo defines persistence operations for the episodic finding log.
type Repo interface {
	Create(ctx context.Context, finding Finding) error
	GetByID(ctx context.Context, findingID string) (Finding, error)
	ListByDocument(ctx context.Context, documentID string, filter Filter) ([]Finding, error)

	// AttachFeedback sets the feedback fields exactly once; it returns
	// ErrAlreadyResolved if feedback was previously recorded.
	AttachFeedback(ctx context.Context, findingID, feedback, actionTaken string, resolvedAt time.Time) error

	// ClaimForLearning marks a finding as consumed by the pattern learner.
	// It returns false without error when the finding was already claimed,
	// which is how double-processing stays a no-op.
	ClaimForLearning(ctx context.Context, findingID string, at time.Time) (bool, error)
	ReleaseClaim(ctx context.Context, findingID string) error
	ListResolvedUnlearned(ctx context.Context, limit int) ([]Finding, error)
}
