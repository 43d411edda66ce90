package patterns

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"compliance-backend/internal/findings"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Learner distills resolved findings into the pattern store. Processing
// is idempotent by construction: a finding is claimed (learned_at set)
// before its observation is applied, so replays and duplicate queue
// deliveries become no-ops instead of double counts.
type Learner struct {
	Findings findings.Repo
	Store    Store
}

// NewLearner constructs a learner.
func NewLearner(findingRepo findings.Repo, store Store) *Learner {
	return &Learner{Findings: findingRepo, Store: store}
}

// Process folds one resolved finding into its pattern.
func (l *Learner) Process(ctx context.Context, findingID string) error {
	finding, err := l.Findings.GetByID(ctx, findingID)
	if err != nil {
		return err
	}
	if !finding.Resolved() {
		return ErrNotResolved
	}

	outcome, err := outcomeForFeedback(finding.UserFeedback)
	if err != nil {
		metrics.LearnerProcessed.WithLabelValues("invalid").Inc()
		return err
	}

	claimed, err := l.Findings.ClaimForLearning(ctx, findingID, time.Now().UTC())
	if err != nil {
		return err
	}
	if !claimed {
		// Already learned, likely a duplicate delivery.
		telemetry.Info("learner.duplicate_skipped", zap.String("finding_id", findingID))
		metrics.LearnerProcessed.WithLabelValues("duplicate").Inc()
		return nil
	}

	key := finding.PatternKey
	if key == "" {
		key = DeriveKey(finding.Framework, finding.Title)
	}

	pattern, err := l.Store.Upsert(ctx, key, Delta{
		Outcome:       outcome,
		Severity:      finding.Severity,
		Framework:     finding.Framework,
		RiskIndicator: indicatorFor(finding),
		Description:   finding.Title,
		Remediation:   finding.Recommendation,
	})
	if err != nil {
		// Give the observation back to the sweep rather than losing it.
		if releaseErr := l.Findings.ReleaseClaim(ctx, findingID); releaseErr != nil {
			telemetry.Error("learner.release_claim_failed",
				zap.String("finding_id", findingID),
				zap.Error(releaseErr),
			)
		}
		metrics.PatternUpserts.WithLabelValues("error").Inc()
		metrics.LearnerProcessed.WithLabelValues("error").Inc()
		return fmt.Errorf("upsert pattern %s: %w", key, err)
	}

	metrics.PatternUpserts.WithLabelValues("ok").Inc()
	metrics.LearnerProcessed.WithLabelValues("ok").Inc()
	telemetry.Info("learner.pattern_updated",
		zap.String("finding_id", findingID),
		zap.String("pattern_key", key),
		zap.String("outcome", outcome),
		zap.Int("frequency", pattern.Frequency),
	)
	return nil
}

// Sweep processes up to batch resolved-but-unlearned findings. It is the
// backstop for lost queue deliveries and the sole path in queue-less
// deployments. Per-finding failures are logged and counted, never fatal
// to the sweep.
func (l *Learner) Sweep(ctx context.Context, batch int) (int, error) {
	pending, err := l.Findings.ListResolvedUnlearned(ctx, batch)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, finding := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if err := l.Process(ctx, finding.ID); err != nil {
			telemetry.Warn("learner.sweep_item_failed",
				zap.String("finding_id", finding.ID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	return processed, nil
}

// outcomeForFeedback maps reviewer feedback to a counter bump. Unknown
// feedback is a hard error so a schema drift cannot silently skew
// precision.
func outcomeForFeedback(feedback string) (string, error) {
	switch feedback {
	case findings.FeedbackAccepted:
		return OutcomeTruePositive, nil
	case findings.FeedbackRejected, findings.FeedbackFalsePositive:
		return OutcomeFalsePositive, nil
	default:
		return "", ConfigurationError{Field: "feedback", Value: feedback}
	}
}

// indicatorFor picks the match text for a pattern: the evidence span
// when present, else the title.
func indicatorFor(finding findings.Finding) string {
	if finding.Evidence != "" {
		return finding.Evidence
	}
	return finding.Title
}
