package alerts

import "time"

// Alert statuses.
const (
	StatusPending      = "pending"
	StatusSent         = "sent"
	StatusAcknowledged = "acknowledged"
)

// Alert flags a severe finding for human attention.
type Alert struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"documentId"`
	FindingID      string     `json:"findingId"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`
}

// ValidStatus reports whether s is a known alert status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusSent, StatusAcknowledged:
		return true
	}
	return false
}
