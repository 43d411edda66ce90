package patterns

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/findings"
)

// MemoryStore implements Store with in-process state. Upserts serialize
// per pattern key, not globally, mirroring the row-lock behavior of the
// Postgres store.
type MemoryStore struct {
	mu       sync.RWMutex
	patterns map[string]RiskPattern
	locks    map[string]*sync.Mutex
}

// NewMemoryStore constructs an empty in-memory pattern store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patterns: make(map[string]RiskPattern),
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Upsert folds one observation into the keyed pattern.
func (s *MemoryStore) Upsert(ctx context.Context, key string, delta Delta) (RiskPattern, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()

	s.mu.RLock()
	pattern, ok := s.patterns[key]
	s.mu.RUnlock()
	if !ok {
		pattern = RiskPattern{
			ID:              uuid.NewString(),
			PatternKey:      key,
			Framework:       FrameworkAll,
			FirstObservedAt: now,
		}
	}

	applyDelta(&pattern, delta, now)

	s.mu.Lock()
	s.patterns[key] = pattern
	s.mu.Unlock()
	return pattern, nil
}

// Get fetches a pattern by key.
func (s *MemoryStore) Get(ctx context.Context, key string) (RiskPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pattern, ok := s.patterns[key]
	if !ok {
		return RiskPattern{}, ErrNotFound
	}
	return pattern, nil
}

// Query returns match-eligible patterns for a framework.
func (s *MemoryStore) Query(ctx context.Context, framework, documentType string, minConfidence float64, minSamples int) ([]RiskPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RiskPattern
	for _, pattern := range s.patterns {
		if !frameworkMatches(pattern.Framework, framework) {
			continue
		}
		if pattern.DocumentType != "" && documentType != "" && pattern.DocumentType != documentType {
			continue
		}
		if pattern.Frequency < minSamples || pattern.Confidence < minConfidence {
			continue
		}
		out = append(out, pattern)
	}
	sortByQuality(out)
	return out, nil
}

// List returns patterns for inspection, highest confidence first.
func (s *MemoryStore) List(ctx context.Context, framework string, limit int) ([]RiskPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RiskPattern
	for _, pattern := range s.patterns {
		if framework != "" && !frameworkMatches(pattern.Framework, framework) {
			continue
		}
		out = append(out, pattern)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].PatternKey < out[j].PatternKey
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// applyDelta mutates a pattern with one observation and recomputes every
// derived field from the counters.
func applyDelta(pattern *RiskPattern, delta Delta, now time.Time) {
	pattern.Frequency++
	pattern.SeverityPoints += findings.SeverityWeight(delta.Severity)

	switch delta.Outcome {
	case OutcomeTruePositive:
		pattern.TruePositives++
	case OutcomeFalsePositive:
		pattern.FalsePositives++
	}

	if delta.Framework != "" {
		pattern.Framework = delta.Framework
	}
	if delta.DocumentType != "" {
		pattern.DocumentType = delta.DocumentType
	}
	if delta.RiskIndicator != "" {
		pattern.RiskIndicator = delta.RiskIndicator
	}
	if delta.Description != "" {
		pattern.Description = delta.Description
	}
	if delta.Remediation != "" {
		pattern.RemediationTemplate = delta.Remediation
	}

	pattern.Precision = PrecisionFor(pattern.TruePositives, pattern.FalsePositives)
	pattern.Confidence = ConfidenceFor(pattern.Frequency)
	pattern.AvgSeverity = AvgSeverityFor(pattern.SeverityPoints, pattern.Frequency)
	pattern.LearnedRule = BuildLearnedRule(*pattern)
	pattern.LastUpdatedAt = now
}

func frameworkMatches(patternFramework, requested string) bool {
	if patternFramework == FrameworkAll || requested == "" {
		return true
	}
	return strings.EqualFold(patternFramework, requested)
}

// sortByQuality orders patterns precision desc (unrated last), then
// frequency desc, then key asc for determinism.
func sortByQuality(items []RiskPattern) {
	sort.Slice(items, func(i, j int) bool {
		pi, pj := items[i].Precision, items[j].Precision
		switch {
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		case pi != nil && pj != nil && *pi != *pj:
			return *pi > *pj
		}
		if items[i].Frequency != items[j].Frequency {
			return items[i].Frequency > items[j].Frequency
		}
		return items[i].PatternKey < items[j].PatternKey
	})
}

var _ Store = (*MemoryStore)(nil)
