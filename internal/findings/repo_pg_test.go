package findings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoAttachFeedbackOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	resolvedAt := time.Now().UTC()

	mock.ExpectExec("UPDATE compliance_findings").
		WithArgs(FeedbackAccepted, sqlmock.AnyArg(), resolvedAt, "finding-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AttachFeedback(context.Background(), "finding-1", FeedbackAccepted, "fixed clause", resolvedAt); err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAttachFeedbackAlreadyResolved(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE compliance_findings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_feedback").
		WithArgs("finding-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_feedback"}).AddRow(FeedbackRejected))

	err = repo.AttachFeedback(context.Background(), "finding-1", FeedbackAccepted, "", time.Now().UTC())
	if !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestPGRepoAttachFeedbackNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE compliance_findings").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_feedback").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"user_feedback"}))

	err = repo.AttachFeedback(context.Background(), "missing", FeedbackAccepted, "", time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoClaimForLearning(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE compliance_findings").
		WithArgs(at, "finding-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.ClaimForLearning(context.Background(), "finding-1", at)
	if err != nil {
		t.Fatalf("ClaimForLearning: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed")
	}

	mock.ExpectExec("UPDATE compliance_findings").
		WithArgs(at, "finding-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err = repo.ClaimForLearning(context.Background(), "finding-1", at)
	if err != nil {
		t.Fatalf("ClaimForLearning second call: %v", err)
	}
	if claimed {
		t.Fatal("second claim should be a no-op")
	}
}
