package findings

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const findingColumns = `
id, document_id, framework, finding_type, severity, title, description,
location, evidence, recommendation, agent_name, agent_reasoning,
pattern_key, user_feedback, action_taken, created_at, resolved_at, learned_at`

// Create inserts a finding.
func (r *PGRepo) Create(ctx context.Context, finding Finding) error {
	const query = `
INSERT INTO compliance_findings (
    id, document_id, framework, finding_type, severity, title, description,
    location, evidence, recommendation, agent_name, agent_reasoning,
    pattern_key, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.DB.ExecContext(ctx, query,
		finding.ID,
		finding.DocumentID,
		finding.Framework,
		finding.FindingType,
		finding.Severity,
		finding.Title,
		finding.Description,
		nullString(finding.Location),
		finding.Evidence,
		nullString(finding.Recommendation),
		nullString(finding.AgentName),
		nullString(finding.AgentReasoning),
		nullString(finding.PatternKey),
		finding.CreatedAt,
	)
	return err
}

// GetByID fetches a finding by ID.
func (r *PGRepo) GetByID(ctx context.Context, findingID string) (Finding, error) {
	query := `
SELECT ` + findingColumns + `
FROM compliance_findings
WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, findingID)
	finding, err := scanFinding(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Finding{}, ErrNotFound
		}
		return Finding{}, err
	}
	return finding, nil
}

// ListByDocument returns a document's findings newest-first.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string, filter Filter) ([]Finding, error) {
	query := `
SELECT ` + findingColumns + `
FROM compliance_findings
WHERE document_id = $1`
	args := []any{documentID}

	if filter.Framework != "" {
		args = append(args, filter.Framework)
		query += `
  AND framework = $2`
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		if filter.Framework != "" {
			query += `
  AND severity = $3`
		} else {
			query += `
  AND severity = $2`
		}
	}
	query += `
ORDER BY created_at DESC, id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		finding, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, finding)
	}
	return out, rows.Err()
}

// AttachFeedback records feedback exactly once; the guard lives in SQL so
// concurrent submissions cannot both win.
func (r *PGRepo) AttachFeedback(ctx context.Context, findingID, feedback, actionTaken string, resolvedAt time.Time) error {
	const query = `
UPDATE compliance_findings
SET user_feedback = $1, action_taken = $2, resolved_at = $3
WHERE id = $4 AND user_feedback IS NULL`
	res, err := r.DB.ExecContext(ctx, query, feedback, nullString(actionTaken), resolvedAt, findingID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		return nil
	}

	const existsQuery = `
SELECT user_feedback
FROM compliance_findings
WHERE id = $1`
	var existing sql.NullString
	switch err := r.DB.QueryRowContext(ctx, existsQuery, findingID).Scan(&existing); {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	default:
		return ErrAlreadyResolved
	}
}

// ClaimForLearning marks the finding as learner-consumed, once.
func (r *PGRepo) ClaimForLearning(ctx context.Context, findingID string, at time.Time) (bool, error) {
	const query = `
UPDATE compliance_findings
SET learned_at = $1
WHERE id = $2 AND learned_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, at, findingID)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// ReleaseClaim clears the learner marker after a failed application.
func (r *PGRepo) ReleaseClaim(ctx context.Context, findingID string) error {
	const query = `
UPDATE compliance_findings
SET learned_at = NULL
WHERE id = $1`
	_, err := r.DB.ExecContext(ctx, query, findingID)
	return err
}

// ListResolvedUnlearned returns resolved findings the learner has not
// consumed yet, oldest resolution first.
func (r *PGRepo) ListResolvedUnlearned(ctx context.Context, limit int) ([]Finding, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT ` + findingColumns + `
FROM compliance_findings
WHERE resolved_at IS NOT NULL AND learned_at IS NULL
ORDER BY resolved_at, id
LIMIT $1`

	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		finding, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, finding)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFinding(row rowScanner) (Finding, error) {
	var finding Finding
	var location, recommendation, agentName, agentReasoning sql.NullString
	var patternKey, userFeedback, actionTaken sql.NullString
	var resolvedAt, learnedAt sql.NullTime
	if err := row.Scan(
		&finding.ID,
		&finding.DocumentID,
		&finding.Framework,
		&finding.FindingType,
		&finding.Severity,
		&finding.Title,
		&finding.Description,
		&location,
		&finding.Evidence,
		&recommendation,
		&agentName,
		&agentReasoning,
		&patternKey,
		&userFeedback,
		&actionTaken,
		&finding.CreatedAt,
		&resolvedAt,
		&learnedAt,
	); err != nil {
		return Finding{}, err
	}
	finding.Location = location.String
	finding.Recommendation = recommendation.String
	finding.AgentName = agentName.String
	finding.AgentReasoning = agentReasoning.String
	finding.PatternKey = patternKey.String
	finding.UserFeedback = userFeedback.String
	finding.ActionTaken = actionTaken.String
	if resolvedAt.Valid {
		finding.ResolvedAt = &resolvedAt.Time
	}
	if learnedAt.Valid {
		finding.LearnedAt = &learnedAt.Time
	}
	return finding, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
