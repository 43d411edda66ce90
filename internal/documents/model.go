package documents

import "time"

// Document lifecycle states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusAnalyzed   = "analyzed"
	StatusError      = "error"
)

// Document represents a registered document awaiting or holding analysis.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"documentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	Status       string    `json:"status"`
	Archived     bool      `json:"archived"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Chunk is one ordered slice of a document's ingested text.
type Chunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
}

// ValidStatus reports whether s is a known document status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusAnalyzed, StatusError:
		return true
	}
	return false
}
