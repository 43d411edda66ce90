package alerts

import (
	"context"
	"errors"
)

// ErrNotFound indicates an unknown alert id.
var ErrNotFound = errors.New("alert not found")

// Filter narrows alert listings.
type Filter struct {
	DocumentID string
	Status     string
}

// Repo persists alerts.
type Repo interface {
	Create(ctx context.Context, alert Alert) error
	GetByID(ctx context.Context, alertID string) (Alert, error)
	List(ctx context.Context, filter Filter, limit int) ([]Alert, error)
	UpdateStatus(ctx context.Context, alertID, status string) error
	// Acknowledge sets status and the acknowledgment timestamp.
	Acknowledge(ctx context.Context, alertID string) error
}
