package patterns

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"compliance-backend/internal/findings"
)

func patternRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "pattern_key", "pattern_description", "framework", "document_type",
		"risk_indicator", "frequency_observed", "true_positive_count",
		"false_positive_count", "precision_score", "confidence_score",
		"severity_points", "avg_severity", "learned_rule",
		"remediation_template", "first_observed_at", "last_updated_at",
	})
}

func TestPGStoreUpsertReturnsUpdatedRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO risk_patterns").
		WillReturnRows(patternRows().AddRow(
			"pattern-id", "gdpr_missing_basis", "Missing lawful basis", "gdpr", nil,
			"we collect user data", 3, 2, 1, 2.0/3.0, 3.0/23.0,
			9, "high", "", nil, now, now,
		))
	mock.ExpectExec("UPDATE risk_patterns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	pattern, err := store.Upsert(context.Background(), "gdpr_missing_basis", Delta{
		Outcome:       OutcomeTruePositive,
		Severity:      findings.SeverityHigh,
		Framework:     "gdpr",
		RiskIndicator: "we collect user data",
		Description:   "Missing lawful basis",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if pattern.Frequency != 3 || pattern.TruePositives != 2 || pattern.FalsePositives != 1 {
		t.Fatalf("unexpected pattern: %+v", pattern)
	}
	if pattern.Precision == nil || *pattern.Precision != 2.0/3.0 {
		t.Fatalf("precision not carried through: %v", pattern.Precision)
	}
	if pattern.LearnedRule == "" {
		t.Fatal("learned rule must be regenerated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreQueryFiltersAndOrders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := &PGStore{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT(.|\n)+FROM risk_patterns").
		WithArgs("gdpr", "privacy_policy", 3, 0.1).
		WillReturnRows(patternRows().AddRow(
			"pattern-id", "gdpr_missing_basis", "Missing lawful basis", "gdpr", "privacy_policy",
			"we collect user data", 5, 5, 0, 1.0, 0.2,
			15, "high", "rule text", nil, now, now,
		))

	got, err := store.Query(context.Background(), "gdpr", "privacy_policy", 0.1, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].PatternKey != "gdpr_missing_basis" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
