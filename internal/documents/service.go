package documents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/shared/util"
)

// chunkSize bounds the content of one document_chunks row.
const chunkSize = 4000

// Service contains business logic for documents.
type Service struct {
	Repo Repo
}

// Register records an ingested document: metadata plus already-extracted
// text, chunked for storage. Text extraction happens upstream.
func (s *Service) Register(ctx context.Context, filename, documentType, text string) (Document, error) {
	filename, err := util.SanitizeFileName(filename)
	if err != nil || strings.TrimSpace(text) == "" {
		return Document{}, ErrInvalidInput
	}
	if strings.TrimSpace(documentType) == "" {
		documentType = "unknown"
	}

	doc := Document{
		ID:           uuid.NewString(),
		Filename:     filename,
		DocumentType: documentType,
		SizeBytes:    int64(len(text)),
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc, splitChunks(doc.ID, text)); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents newest-first.
func (s *Service) List(ctx context.Context, includeArchived bool, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, includeArchived, limit, offset)
}

// Text returns the reassembled document text.
func (s *Service) Text(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", ErrInvalidInput
	}
	return s.Repo.Text(ctx, documentID)
}

// SetStatus transitions the document lifecycle state.
func (s *Service) SetStatus(ctx context.Context, documentID, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidInput
	}
	return s.Repo.UpdateStatus(ctx, documentID, status)
}

// Archive hides a document from active views without deleting it.
func (s *Service) Archive(ctx context.Context, documentID string, archived bool) error {
	if documentID == "" {
		return ErrInvalidInput
	}
	return s.Repo.SetArchived(ctx, documentID, archived)
}

// Delete removes a document and, by cascade, everything owned by it.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, documentID)
}

func splitChunks(documentID, text string) []Chunk {
	var chunks []Chunk
	for i := 0; len(text) > 0; i++ {
		end := chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			ChunkIndex: i,
			Content:    text[:end],
		})
		text = text[end:]
	}
	return chunks
}
