package scores

import (
	"context"
	"errors"
)

// ErrNotFound indicates no score exists for the document.
var ErrNotFound = errors.New("score not found")

// Repo persists compliance scores. Rows are write-once; history is kept.
type Repo interface {
	Create(ctx context.Context, score ComplianceScore) error
	// Latest returns the newest score per framework for a document.
	Latest(ctx context.Context, documentID string) ([]ComplianceScore, error)
	// History returns every score row for a document, newest first.
	History(ctx context.Context, documentID string, limit int) ([]ComplianceScore, error)
}
