package patterns

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/telemetry"
)

// Matcher retrieves learned patterns relevant to a document. It is
// read-only: matching never mutates pattern state.
type Matcher struct {
	Store         Store
	MinConfidence float64
	MinSamples    int
	MaxMatched    int
}

// NewMatcher constructs a matcher with the configured thresholds.
func NewMatcher(store Store, minConfidence float64, minSamples, maxMatched int) *Matcher {
	if minSamples <= 0 {
		minSamples = 3
	}
	if maxMatched <= 0 {
		maxMatched = 10
	}
	return &Matcher{
		Store:         store,
		MinConfidence: minConfidence,
		MinSamples:    minSamples,
		MaxMatched:    maxMatched,
	}
}

// Match returns threshold-passing patterns whose risk indicator appears
// in the document text, best first.
func (m *Matcher) Match(ctx context.Context, documentText, framework, documentType string) ([]RiskPattern, error) {
	candidates, err := m.Store.Query(ctx, framework, documentType, m.MinConfidence, m.MinSamples)
	if err != nil {
		return nil, err
	}

	haystack := strings.ToLower(documentText)
	var matched []RiskPattern
	for _, pattern := range candidates {
		indicator := strings.ToLower(strings.TrimSpace(pattern.RiskIndicator))
		if indicator == "" {
			continue
		}
		if strings.Contains(haystack, indicator) {
			matched = append(matched, pattern)
		}
		if len(matched) >= m.MaxMatched {
			break
		}
	}

	// Store.Query already orders candidates, but matching must stay
	// deterministic even if a backend relaxes that.
	sortByQuality(matched)

	if len(matched) > 0 {
		metrics.PatternsMatched.Observe(float64(len(matched)))
		telemetry.Debug("patterns.matched",
			zap.String("framework", framework),
			zap.Int("count", len(matched)),
		)
	}
	return matched, nil
}
