package scores

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const scoreColumns = `
id, document_id, framework, run_id, overall_score, critical_count,
high_count, medium_count, low_count, info_count, summary, created_at`

// Create inserts a score row.
func (r *PGRepo) Create(ctx context.Context, score ComplianceScore) error {
	const query = `
INSERT INTO compliance_scores (
    id, document_id, framework, run_id, overall_score, critical_count,
    high_count, medium_count, low_count, info_count, summary, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.DB.ExecContext(ctx, query,
		score.ID,
		score.DocumentID,
		score.Framework,
		score.RunID,
		score.OverallScore,
		score.CriticalCount,
		score.HighCount,
		score.MediumCount,
		score.LowCount,
		score.InfoCount,
		score.Summary,
		score.CreatedAt,
	)
	return err
}

// Latest returns the newest score per framework for a document.
func (r *PGRepo) Latest(ctx context.Context, documentID string) ([]ComplianceScore, error) {
	query := `
SELECT DISTINCT ON (framework) ` + scoreColumns + `
FROM compliance_scores
WHERE document_id = $1
ORDER BY framework, created_at DESC`

	return r.query(ctx, query, documentID)
}

// History returns every score row for a document, newest first.
func (r *PGRepo) History(ctx context.Context, documentID string, limit int) ([]ComplianceScore, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT ` + scoreColumns + `
FROM compliance_scores
WHERE document_id = $1
ORDER BY created_at DESC, framework
LIMIT $2`

	return r.query(ctx, query, documentID, limit)
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]ComplianceScore, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ComplianceScore
	for rows.Next() {
		var score ComplianceScore
		if err := rows.Scan(
			&score.ID,
			&score.DocumentID,
			&score.Framework,
			&score.RunID,
			&score.OverallScore,
			&score.CriticalCount,
			&score.HighCount,
			&score.MediumCount,
			&score.LowCount,
			&score.InfoCount,
			&score.Summary,
			&score.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, score)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
