package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"compliance-backend/internal/shared/telemetry"
)

// Event types emitted over the lifetime of a run.
const (
	EventAnalysisStarted    = "analysis_started"
	EventFindingDiscovered  = "finding_discovered"
	EventFrameworkCompleted = "framework_completed"
	EventFrameworkFailed    = "framework_failed"
	EventAnalysisComplete   = "analysis_complete"
)

// Event is one progress notification for a run.
type Event struct {
	Type       string         `json:"type"`
	RunID      string         `json:"runId"`
	DocumentID string         `json:"documentId"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// EventSink receives run progress events. Sinks must not block the run;
// slow consumers should buffer internally.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// LoggingSink writes events to the structured log. It is the default
// sink when no streaming consumer is attached.
type LoggingSink struct{}

// Emit logs the event.
func (LoggingSink) Emit(ctx context.Context, event Event) {
	telemetry.Info("run.event",
		zap.String("type", event.Type),
		zap.String("run_id", event.RunID),
		zap.String("document_id", event.DocumentID),
		zap.Any("payload", event.Payload),
	)
}
