package main

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"compliance-backend/internal/bootstrap"
	"compliance-backend/internal/findings"
	"compliance-backend/internal/patterns"
	"compliance-backend/internal/queue"
)

type fakeSQS struct {
	deleted []string
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	_ = ctx
	_ = params
	_ = optFns
	return &sqs.ReceiveMessageOutput{}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	_ = ctx
	_ = optFns
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func newTestApp(t *testing.T) (*bootstrap.App, findings.Repo) {
	t.Helper()
	repo := findings.NewMemoryRepo()
	return &bootstrap.App{
		Learner: patterns.NewLearner(repo, patterns.NewMemoryStore()),
	}, repo
}

func seedFinding(t *testing.T, repo findings.Repo, id, feedback string) {
	t.Helper()
	if err := repo.Create(context.Background(), findings.Finding{
		ID:         id,
		DocumentID: "doc-1",
		Framework:  "gdpr",
		Severity:   findings.SeverityHigh,
		Title:      "Missing retention policy",
		Evidence:   "data kept indefinitely",
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("create finding: %v", err)
	}
	if feedback != "" {
		if err := repo.AttachFeedback(context.Background(), id, feedback, "fixed", time.Now().UTC()); err != nil {
			t.Fatalf("attach feedback: %v", err)
		}
	}
}

func testMessage(t *testing.T, findingID, receipt string) sqstypes.Message {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{
		FindingID:  findingID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	return sqstypes.Message{
		MessageId:     aws.String("m-" + receipt),
		ReceiptHandle: aws.String(receipt),
		Body:          aws.String(string(body)),
		Attributes:    map[string]string{"ApproximateReceiveCount": "1"},
	}
}

func TestWorkerDeletesMessageOnSuccess(t *testing.T) {
	app, repo := newTestApp(t)
	seedFinding(t, repo, "f-1", findings.FeedbackAccepted)
	client := &fakeSQS{}

	handleMessage(context.Background(), app, client, "queue", testMessage(t, "f-1", "r1"))

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}

func TestWorkerKeepsMessageWhenFindingUnresolved(t *testing.T) {
	app, repo := newTestApp(t)
	seedFinding(t, repo, "f-2", "")
	client := &fakeSQS{}

	handleMessage(context.Background(), app, client, "queue", testMessage(t, "f-2", "r2"))

	if len(client.deleted) != 0 {
		t.Fatalf("expected no delete, got %d", len(client.deleted))
	}
}

func TestWorkerDeletesOnInvalidJSON(t *testing.T) {
	app, _ := newTestApp(t)
	client := &fakeSQS{}
	msg := sqstypes.Message{
		MessageId:     aws.String("m3"),
		ReceiptHandle: aws.String("r3"),
		Body:          aws.String("{bad-json"),
	}

	handleMessage(context.Background(), app, client, "queue", msg)

	if len(client.deleted) != 1 {
		t.Fatalf("expected delete, got %d", len(client.deleted))
	}
}
