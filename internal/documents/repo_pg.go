package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a document row and its chunks in one transaction.
func (r *PGRepo) Create(ctx context.Context, doc Document, chunks []Chunk) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const docQuery = `
INSERT INTO documents (id, filename, document_type, size_bytes, status, archived, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.ExecContext(ctx, docQuery,
		doc.ID,
		doc.Filename,
		doc.DocumentType,
		doc.SizeBytes,
		doc.Status,
		doc.Archived,
		doc.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	const chunkQuery = `
INSERT INTO document_chunks (id, document_id, chunk_index, content)
VALUES ($1, $2, $3, $4)`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, chunkQuery, chunk.ID, chunk.DocumentID, chunk.ChunkIndex, chunk.Content); err != nil {
			return fmt.Errorf("insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	return tx.Commit()
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT id, filename, document_type, size_bytes, status, archived, created_at
FROM documents
WHERE id = $1`
	var doc Document
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.Filename,
		&doc.DocumentType,
		&doc.SizeBytes,
		&doc.Status,
		&doc.Archived,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns documents newest-first; archived rows only when requested.
func (r *PGRepo) List(ctx context.Context, includeArchived bool, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT id, filename, document_type, size_bytes, status, archived, created_at
FROM documents`
	if !includeArchived {
		query += `
WHERE archived = FALSE`
	}
	query += `
ORDER BY created_at DESC, id
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID,
			&doc.Filename,
			&doc.DocumentType,
			&doc.SizeBytes,
			&doc.Status,
			&doc.Archived,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateStatus transitions a document's status.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID, status string) error {
	const query = `
UPDATE documents
SET status = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, status, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchived flips the archived flag.
func (r *PGRepo) SetArchived(ctx context.Context, documentID string, archived bool) error {
	const query = `
UPDATE documents
SET archived = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, archived, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document; chunks, findings, scores and alerts cascade.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	const query = `
DELETE FROM documents
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Text reassembles the document text from its chunks in order.
func (r *PGRepo) Text(ctx context.Context, documentID string) (string, error) {
	if _, err := r.GetByID(ctx, documentID); err != nil {
		return "", err
	}
	const query = `
SELECT content
FROM document_chunks
WHERE document_id = $1
ORDER BY chunk_index`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var sb strings.Builder
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		sb.WriteString(content)
	}
	return sb.String(), rows.Err()
}

var _ Repo = (*PGRepo)(nil)
