package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"compliance-backend/internal/bootstrap"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/telemetry"
	"compliance-backend/internal/workerproc"
)

const (
	defaultVisibilitySeconds = 1200
	defaultConcurrency       = 4
	defaultSweepInterval     = time.Minute
	defaultSweepBatch        = 50
	shutdownTimeout          = 30 * time.Second
)

func main() {
	cfg := config.Load()
	if err := telemetry.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runSweeper(ctx, app, cfg)
	}()

	if cfg.Queue.Backend == "sqs" {
		queueURL := strings.TrimSpace(cfg.Queue.SQSQueueURL)
		if queueURL == "" {
			log.Fatal("CB_QUEUE_SQS_QUEUE_URL is required when queue.backend is sqs")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Queue.SQSRegion))
		if err != nil {
			log.Fatalf("load aws config: %v", err)
		}
		pollQueue(ctx, app, sqs.NewFromConfig(awsCfg), queueURL, cfg, &wg)
	} else {
		telemetry.Info("worker.sweep_only", zap.String("backend", cfg.Queue.Backend))
		<-ctx.Done()
	}

	telemetry.Info("worker.shutting_down")
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout")
	}
}

// runSweeper periodically drains resolved-but-unlearned findings. It is
// the backstop for feedback whose queue delivery was lost.
func runSweeper(ctx context.Context, app *bootstrap.App, cfg config.Config) {
	interval := cfg.Learner.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	batch := cfg.Learner.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.Learner.Sweep(ctx, batch)
			if err != nil {
				telemetry.Error("worker.sweep_failed", zap.Error(err))
				continue
			}
			if n > 0 {
				telemetry.Info("worker.sweep_completed", zap.Int("learned", n))
			}
		}
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func pollQueue(ctx context.Context, app *bootstrap.App, client sqsAPI, queueURL string, cfg config.Config, wg *sync.WaitGroup) {
	visibility := cfg.Queue.VisibilitySeconds
	if visibility <= 0 {
		visibility = defaultVisibilitySeconds
	}
	concurrency := cfg.Queue.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	sem := make(chan struct{}, concurrency)

	telemetry.Info("worker.started",
		zap.String("queue", queueURL),
		zap.Int("concurrency", concurrency),
		zap.Int("visibility_seconds", visibility),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibility),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return
			}
			telemetry.Error("worker.receive_failed", zap.Error(err))
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				return
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, app, client, queueURL, m)
			}(msg)
		}
	}
}

func handleMessage(ctx context.Context, app *bootstrap.App, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, parseErr := workerproc.ParseMessage(body)
	if parseErr != nil {
		telemetry.Error("worker.feedback.parse_failed",
			zap.String("sqs_message_id", aws.ToString(msg.MessageId)),
			zap.Int("receive_count", receiveCount(msg)),
			zap.Int("body_len", meta.BodyLen),
			zap.String("body_sha256", meta.BodySHA),
			zap.Error(parseErr),
		)
		// Malformed bodies never become parseable; drop them.
		deleteMessage(ctx, client, queueURL, msg, "")
		return
	}

	telemetry.Info("worker.feedback.received", messageFields(msg, decoded.FindingID)...)

	if err := workerproc.HandleMessage(ctx, app.Learner, body); err != nil {
		fields := append(messageFields(msg, decoded.FindingID), zap.Error(err))
		if workerproc.Unrecoverable(err) {
			telemetry.Error("worker.feedback.unrecoverable", fields...)
			deleteMessage(ctx, client, queueURL, msg, decoded.FindingID)
			return
		}
		// Leave the message for redelivery after the visibility timeout.
		telemetry.Error("worker.feedback.failed", fields...)
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.FindingID) {
		telemetry.Info("worker.feedback.completed", messageFields(msg, decoded.FindingID)...)
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, findingID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.feedback.delete_failed",
			zap.String("finding_id", findingID),
			zap.String("error", "missing receipt handle"),
		)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		telemetry.Error("worker.feedback.delete_failed",
			zap.String("finding_id", findingID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func messageFields(msg sqstypes.Message, findingID string) []zap.Field {
	return []zap.Field{
		zap.String("finding_id", findingID),
		zap.String("sqs_message_id", aws.ToString(msg.MessageId)),
		zap.Int("receive_count", receiveCount(msg)),
	}
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	parsed, err := strconv.Atoi(msg.Attributes["ApproximateReceiveCount"])
	if err != nil {
		return 0
	}
	return parsed
}
