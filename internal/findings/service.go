package findings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compliance-backend/internal/queue"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Service contains business logic for the finding store. Queue is
// optional: when set, every resolved finding is published for the
// pattern learner.
type Service struct {
	Repo  Repo
	Queue queue.Client
}

// Record persists one raw finding for a document and returns it with
// identity assigned.
func (s *Service) Record(ctx context.Context, documentID, agentName string, raw RawFinding) (Finding, error) {
	if documentID == "" || strings.TrimSpace(raw.Title) == "" {
		return Finding{}, ErrInvalidInput
	}
	if strings.TrimSpace(raw.Evidence) == "" {
		// Every finding must cite the document span that triggered it.
		return Finding{}, ErrInvalidInput
	}

	findingType := raw.FindingType
	if !ValidType(findingType) {
		findingType = TypeGap
	}
	severity := raw.Severity
	if !ValidSeverity(severity) {
		severity = SeverityMedium
	}

	finding := Finding{
		ID:             uuid.NewString(),
		DocumentID:     documentID,
		Framework:      raw.Framework,
		FindingType:    findingType,
		Severity:       severity,
		Title:          strings.TrimSpace(raw.Title),
		Description:    raw.Description,
		Location:       raw.Location,
		Evidence:       raw.Evidence,
		Recommendation: raw.Recommendation,
		AgentName:      agentName,
		AgentReasoning: raw.Reasoning,
		PatternKey:     raw.PatternKey,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, finding); err != nil {
		return Finding{}, err
	}
	metrics.FindingsRecorded.WithLabelValues(finding.Severity).Inc()
	return finding, nil
}

// Get returns a finding by ID.
func (s *Service) Get(ctx context.Context, findingID string) (Finding, error) {
	if findingID == "" {
		return Finding{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, findingID)
}

// ListByDocument returns a document's findings, optionally filtered.
func (s *Service) ListByDocument(ctx context.Context, documentID string, filter Filter) ([]Finding, error) {
	if documentID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByDocument(ctx, documentID, filter)
}

// AttachFeedback records the reviewer verdict on a finding, exactly once,
// and hands the resolved finding to the learning pipeline.
func (s *Service) AttachFeedback(ctx context.Context, findingID, feedback, actionTaken string) error {
	if findingID == "" {
		return ErrInvalidInput
	}
	if !ValidFeedback(feedback) {
		return ErrInvalidInput
	}

	resolvedAt := time.Now().UTC()
	if err := s.Repo.AttachFeedback(ctx, findingID, feedback, actionTaken, resolvedAt); err != nil {
		return err
	}
	metrics.FeedbackReceived.WithLabelValues(feedback).Inc()
	telemetry.Info("finding.resolved",
		zap.String("finding_id", findingID),
		zap.String("feedback", feedback),
	)

	if s.Queue != nil {
		msg := queue.Message{
			FindingID:  findingID,
			EnqueuedAt: resolvedAt.Format(time.RFC3339),
			Version:    queue.MessageVersion,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			// The periodic learner sweep will pick the finding up anyway.
			telemetry.Warn("finding.enqueue_failed",
				zap.String("finding_id", findingID),
				zap.Error(err),
			)
		}
	}
	return nil
}
