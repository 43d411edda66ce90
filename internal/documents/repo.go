package documents

import "context"

// Repo defines persistence operations for documents and their text chunks.
type Repo interface {
	Create(ctx context.Context, doc Document, chunks []Chunk) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	List(ctx context.Context, includeArchived bool, limit, offset int) ([]Document, error)
	UpdateStatus(ctx context.Context, documentID, status string) error
	SetArchived(ctx context.Context, documentID string, archived bool) error
	Delete(ctx context.Context, documentID string) error
	Text(ctx context.Context, documentID string) (string, error)
}
