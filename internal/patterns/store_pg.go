package patterns

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"compliance-backend/internal/findings"
)

// PGStore implements Store using Postgres. All derived columns are
// recomputed inside the upsert statement itself, so concurrent callers
// serialize on the row lock and every observation lands exactly once.
type PGStore struct {
	DB *sql.DB
}

const patternColumns = `
id, pattern_key, pattern_description, framework, document_type,
risk_indicator, frequency_observed, true_positive_count,
false_positive_count, precision_score, confidence_score, severity_points,
avg_severity, learned_rule, remediation_template, first_observed_at,
last_updated_at`

const upsertQuery = `
INSERT INTO risk_patterns (
    id, pattern_key, pattern_description, framework, document_type,
    risk_indicator, frequency_observed, true_positive_count,
    false_positive_count, precision_score, confidence_score,
    severity_points, avg_severity, learned_rule, remediation_template,
    first_observed_at, last_updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, 1, $7, $8,
    CASE WHEN $7 + $8 = 0 THEN NULL
         ELSE $7::double precision / ($7 + $8) END,
    1 / 21.0, $9,
    CASE ($9 * 2 + 1) / 2
        WHEN 4 THEN 'critical' WHEN 3 THEN 'high' WHEN 2 THEN 'medium'
        WHEN 1 THEN 'low' ELSE 'info' END,
    '', $10, $11, $11
)
ON CONFLICT (pattern_key) DO UPDATE SET
    frequency_observed = risk_patterns.frequency_observed + 1,
    true_positive_count = risk_patterns.true_positive_count + $7,
    false_positive_count = risk_patterns.false_positive_count + $8,
    severity_points = risk_patterns.severity_points + $9,
    precision_score = CASE
        WHEN risk_patterns.true_positive_count + $7 + risk_patterns.false_positive_count + $8 = 0 THEN NULL
        ELSE (risk_patterns.true_positive_count + $7)::double precision
             / (risk_patterns.true_positive_count + $7 + risk_patterns.false_positive_count + $8) END,
    confidence_score = (risk_patterns.frequency_observed + 1) / (risk_patterns.frequency_observed + 21.0),
    avg_severity = CASE ((risk_patterns.severity_points + $9) * 2 + risk_patterns.frequency_observed + 1)
                        / (2 * (risk_patterns.frequency_observed + 1))
        WHEN 4 THEN 'critical' WHEN 3 THEN 'high' WHEN 2 THEN 'medium'
        WHEN 1 THEN 'low' ELSE 'info' END,
    pattern_description = CASE WHEN $3 <> '' THEN $3 ELSE risk_patterns.pattern_description END,
    framework = CASE WHEN $4 <> 'all' THEN $4 ELSE risk_patterns.framework END,
    document_type = COALESCE($5, risk_patterns.document_type),
    risk_indicator = CASE WHEN $6 <> '' THEN $6 ELSE risk_patterns.risk_indicator END,
    remediation_template = COALESCE($10, risk_patterns.remediation_template),
    last_updated_at = $11
RETURNING ` + patternColumns

// Upsert folds one observation into the keyed pattern and refreshes the
// learned rule from the returned counters.
func (s *PGStore) Upsert(ctx context.Context, key string, delta Delta) (RiskPattern, error) {
	framework := delta.Framework
	if framework == "" {
		framework = FrameworkAll
	}
	var tpInc, fpInc int
	switch delta.Outcome {
	case OutcomeTruePositive:
		tpInc = 1
	case OutcomeFalsePositive:
		fpInc = 1
	}

	now := time.Now().UTC()
	row := s.DB.QueryRowContext(ctx, upsertQuery,
		uuid.NewString(),
		key,
		delta.Description,
		framework,
		nullablePattern(delta.DocumentType),
		delta.RiskIndicator,
		tpInc,
		fpInc,
		findings.SeverityWeight(delta.Severity),
		nullablePattern(delta.Remediation),
		now,
	)
	pattern, err := scanPattern(row)
	if err != nil {
		return RiskPattern{}, err
	}

	// The rule text embeds precision and frequency, so it is regenerated
	// from the row the upsert returned.
	pattern.LearnedRule = BuildLearnedRule(pattern)
	const ruleQuery = `
UPDATE risk_patterns
SET learned_rule = $1
WHERE pattern_key = $2 AND frequency_observed = $3`
	if _, err := s.DB.ExecContext(ctx, ruleQuery, pattern.LearnedRule, key, pattern.Frequency); err != nil {
		return RiskPattern{}, err
	}
	return pattern, nil
}

// Get fetches a pattern by key.
func (s *PGStore) Get(ctx context.Context, key string) (RiskPattern, error) {
	query := `
SELECT ` + patternColumns + `
FROM risk_patterns
WHERE pattern_key = $1`
	pattern, err := scanPattern(s.DB.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RiskPattern{}, ErrNotFound
		}
		return RiskPattern{}, err
	}
	return pattern, nil
}

// Query returns match-eligible patterns for a framework.
func (s *PGStore) Query(ctx context.Context, framework, documentType string, minConfidence float64, minSamples int) ([]RiskPattern, error) {
	query := `
SELECT ` + patternColumns + `
FROM risk_patterns
WHERE (framework = $1 OR framework = 'all' OR $1 = '')
  AND (document_type IS NULL OR $2 = '' OR document_type = $2)
  AND frequency_observed >= $3
  AND confidence_score >= $4
ORDER BY precision_score DESC NULLS LAST, frequency_observed DESC, pattern_key`

	return s.queryPatterns(ctx, query, framework, documentType, minSamples, minConfidence)
}

// List returns patterns for inspection, highest confidence first.
func (s *PGStore) List(ctx context.Context, framework string, limit int) ([]RiskPattern, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
SELECT ` + patternColumns + `
FROM risk_patterns
WHERE ($1 = '' OR framework = $1 OR framework = 'all')
ORDER BY confidence_score DESC, pattern_key
LIMIT $2`

	return s.queryPatterns(ctx, query, framework, limit)
}

func (s *PGStore) queryPatterns(ctx context.Context, query string, args ...any) ([]RiskPattern, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RiskPattern
	for rows.Next() {
		pattern, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pattern)
	}
	return out, rows.Err()
}

type patternScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row patternScanner) (RiskPattern, error) {
	var pattern RiskPattern
	var documentType, remediation sql.NullString
	var precision sql.NullFloat64
	if err := row.Scan(
		&pattern.ID,
		&pattern.PatternKey,
		&pattern.Description,
		&pattern.Framework,
		&documentType,
		&pattern.RiskIndicator,
		&pattern.Frequency,
		&pattern.TruePositives,
		&pattern.FalsePositives,
		&precision,
		&pattern.Confidence,
		&pattern.SeverityPoints,
		&pattern.AvgSeverity,
		&pattern.LearnedRule,
		&remediation,
		&pattern.FirstObservedAt,
		&pattern.LastUpdatedAt,
	); err != nil {
		return RiskPattern{}, err
	}
	pattern.DocumentType = documentType.String
	pattern.RemediationTemplate = remediation.String
	if precision.Valid {
		pattern.Precision = &precision.Float64
	}
	return pattern, nil
}

func nullablePattern(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Store = (*PGStore)(nil)
