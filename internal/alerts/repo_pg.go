package alerts

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

const alertColumns = `
id, document_id, finding_id, severity, message, status, created_at,
acknowledged_at`

// Create inserts an alert.
func (r *PGRepo) Create(ctx context.Context, alert Alert) error {
	const query = `
INSERT INTO alerts (
    id, document_id, finding_id, severity, message, status, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctx, query,
		alert.ID,
		alert.DocumentID,
		alert.FindingID,
		alert.Severity,
		alert.Message,
		alert.Status,
		alert.CreatedAt,
	)
	return err
}

// GetByID fetches an alert.
func (r *PGRepo) GetByID(ctx context.Context, alertID string) (Alert, error) {
	query := `
SELECT ` + alertColumns + `
FROM alerts
WHERE id = $1`
	alert, err := scanAlert(r.DB.QueryRowContext(ctx, query, alertID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Alert{}, ErrNotFound
		}
		return Alert{}, err
	}
	return alert, nil
}

// List returns alerts matching the filter, newest first.
func (r *PGRepo) List(ctx context.Context, filter Filter, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT ` + alertColumns + `
FROM alerts
WHERE ($1 = '' OR document_id::text = $1)
  AND ($2 = '' OR status = $2)
ORDER BY created_at DESC, id
LIMIT $3`

	rows, err := r.DB.QueryContext(ctx, query, filter.DocumentID, filter.Status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}

// UpdateStatus sets an alert status.
func (r *PGRepo) UpdateStatus(ctx context.Context, alertID, status string) error {
	const query = `
UPDATE alerts
SET status = $1
WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, status, alertID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Acknowledge marks an alert acknowledged.
func (r *PGRepo) Acknowledge(ctx context.Context, alertID string) error {
	const query = `
UPDATE alerts
SET status = $1, acknowledged_at = $2
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, StatusAcknowledged, time.Now().UTC(), alertID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type alertScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row alertScanner) (Alert, error) {
	var alert Alert
	var acknowledgedAt sql.NullTime
	if err := row.Scan(
		&alert.ID,
		&alert.DocumentID,
		&alert.FindingID,
		&alert.Severity,
		&alert.Message,
		&alert.Status,
		&alert.CreatedAt,
		&acknowledgedAt,
	); err != nil {
		return Alert{}, err
	}
	if acknowledgedAt.Valid {
		alert.AcknowledgedAt = &acknowledgedAt.Time
	}
	return alert, nil
}

var _ Repo = (*PGRepo)(nil)
