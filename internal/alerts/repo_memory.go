package alerts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo with in-process state.
type MemoryRepo struct {
	mu     sync.RWMutex
	alerts map[string]Alert
}

// NewMemoryRepo constructs an empty in-memory alert repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{alerts: make(map[string]Alert)}
}

// Create stores an alert.
func (r *MemoryRepo) Create(ctx context.Context, alert Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = alert
	return nil
}

// GetByID fetches an alert.
func (r *MemoryRepo) GetByID(ctx context.Context, alertID string) (Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return Alert{}, ErrNotFound
	}
	return alert, nil
}

// List returns alerts matching the filter, newest first.
func (r *MemoryRepo) List(ctx context.Context, filter Filter, limit int) ([]Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Alert
	for _, alert := range r.alerts {
		if filter.DocumentID != "" && alert.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		out = append(out, alert)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpdateStatus sets an alert status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, alertID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return ErrNotFound
	}
	alert.Status = status
	r.alerts[alertID] = alert
	return nil
}

// Acknowledge marks an alert acknowledged.
func (r *MemoryRepo) Acknowledge(ctx context.Context, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	alert.Status = StatusAcknowledged
	alert.AcknowledgedAt = &now
	r.alerts[alertID] = alert
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
