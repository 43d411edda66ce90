package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compliance-backend/internal/findings"
	"compliance-backend/internal/shared/telemetry"
)

// Service derives alerts from severe findings.
type Service struct {
	Repo Repo
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// alertable reports whether a finding severity warrants an alert.
func alertable(severity string) bool {
	return severity == findings.SeverityCritical || severity == findings.SeverityHigh
}

// RaiseForFinding creates a pending alert for a critical or high finding
// and returns it. Lower severities return ok=false without side effects.
func (s *Service) RaiseForFinding(ctx context.Context, finding findings.Finding) (Alert, bool, error) {
	if !alertable(finding.Severity) {
		return Alert{}, false, nil
	}

	alert := Alert{
		ID:         uuid.NewString(),
		DocumentID: finding.DocumentID,
		FindingID:  finding.ID,
		Severity:   finding.Severity,
		Message:    fmt.Sprintf("[%s] %s: %s", finding.Severity, finding.Framework, finding.Title),
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, alert); err != nil {
		return Alert{}, false, err
	}
	telemetry.Info("alert.raised",
		zap.String("alert_id", alert.ID),
		zap.String("finding_id", finding.ID),
		zap.String("severity", finding.Severity),
	)
	return alert, true, nil
}

// List returns alerts matching the filter.
func (s *Service) List(ctx context.Context, filter Filter, limit int) ([]Alert, error) {
	return s.Repo.List(ctx, filter, limit)
}

// Acknowledge marks an alert acknowledged.
func (s *Service) Acknowledge(ctx context.Context, alertID string) (Alert, error) {
	if err := s.Repo.Acknowledge(ctx, alertID); err != nil {
		return Alert{}, err
	}
	return s.Repo.GetByID(ctx, alertID)
}
