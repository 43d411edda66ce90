package findings

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Finding
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Finding)}
}

// Create stores a finding.
func (r *MemoryRepo) Create(ctx context.Context, finding Finding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[finding.ID] = finding
	return nil
}

// GetByID returns a finding by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, findingID string) (Finding, error) {
	if err := ctx.Err(); err != nil {
		return Finding{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	finding, ok := r.data[findingID]
	if !ok {
		return Finding{}, ErrNotFound
	}
	return finding, nil
}

// ListByDocument returns a document's findings newest-first.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string, filter Filter) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []Finding
	for _, finding := range r.data {
		if finding.DocumentID != documentID {
			continue
		}
		if filter.Framework != "" && finding.Framework != filter.Framework {
			continue
		}
		if filter.Severity != "" && finding.Severity != filter.Severity {
			continue
		}
		out = append(out, finding)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AttachFeedback records feedback exactly once.
func (r *MemoryRepo) AttachFeedback(ctx context.Context, findingID, feedback, actionTaken string, resolvedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	finding, ok := r.data[findingID]
	if !ok {
		return ErrNotFound
	}
	if finding.UserFeedback != "" {
		return ErrAlreadyResolved
	}
	finding.UserFeedback = feedback
	finding.ActionTaken = actionTaken
	finding.ResolvedAt = &resolvedAt
	r.data[findingID] = finding
	return nil
}

// ClaimForLearning marks the finding as learner-consumed, once.
func (r *MemoryRepo) ClaimForLearning(ctx context.Context, findingID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	finding, ok := r.data[findingID]
	if !ok {
		return false, ErrNotFound
	}
	if finding.LearnedAt != nil {
		return false, nil
	}
	finding.LearnedAt = &at
	r.data[findingID] = finding
	return true, nil
}

// ReleaseClaim clears the learner marker after a failed application.
func (r *MemoryRepo) ReleaseClaim(ctx context.Context, findingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	finding, ok := r.data[findingID]
	if !ok {
		return ErrNotFound
	}
	finding.LearnedAt = nil
	r.data[findingID] = finding
	return nil
}

// ListResolvedUnlearned returns resolved findings the learner has not
// consumed yet, oldest resolution first.
func (r *MemoryRepo) ListResolvedUnlearned(ctx context.Context, limit int) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	var out []Finding
	for _, finding := range r.data {
		if finding.ResolvedAt != nil && finding.LearnedAt == nil {
			out = append(out, finding)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ResolvedAt.Equal(*out[j].ResolvedAt) {
			return out[i].ResolvedAt.Before(*out[j].ResolvedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
