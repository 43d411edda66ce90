package scores

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo implements Repo with in-process state.
type MemoryRepo struct {
	mu     sync.RWMutex
	scores []ComplianceScore
}

// NewMemoryRepo constructs an empty in-memory score repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create appends a score row.
func (r *MemoryRepo) Create(ctx context.Context, score ComplianceScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores = append(r.scores, score)
	return nil
}

// Latest returns the newest score per framework for a document.
func (r *MemoryRepo) Latest(ctx context.Context, documentID string) ([]ComplianceScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := make(map[string]ComplianceScore)
	for _, score := range r.scores {
		if score.DocumentID != documentID {
			continue
		}
		current, ok := latest[score.Framework]
		if !ok || score.CreatedAt.After(current.CreatedAt) {
			latest[score.Framework] = score
		}
	}

	out := make([]ComplianceScore, 0, len(latest))
	for _, score := range latest {
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Framework < out[j].Framework })
	return out, nil
}

// History returns every score row for a document, newest first.
func (r *MemoryRepo) History(ctx context.Context, documentID string, limit int) ([]ComplianceScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ComplianceScore
	for _, score := range r.scores {
		if score.DocumentID == documentID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Framework < out[j].Framework
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
