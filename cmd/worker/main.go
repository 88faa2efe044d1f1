package main

import (
	"context"
	"errors"
	"log"
	"os"
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

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/bootstrap"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/config"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/shared/telemetry"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/workerproc"
)

const (
	defaultRegion             = "us-east-1"
	defaultVisibilitySeconds  = 1200
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
	defaultJanitorIntervalMin = 5
)

func main() {
	cfg := config.Load()

	queueURL := strings.TrimSpace(os.Getenv("FG_SQS_QUEUE_URL"))
	if queueURL == "" {
		log.Fatal("FG_SQS_QUEUE_URL is required")
	}
	if strings.TrimSpace(cfg.GoogleAPIKey) == "" {
		log.Fatal("GOOGLE_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("FG_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("FG_WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("FG_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second
	janitorInterval := time.Duration(envInt("FG_JANITOR_INTERVAL_MINUTES", defaultJanitorIntervalMin)) * time.Minute

	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	var sqsClient sqsAPI = sqs.NewFromConfig(awsCfg)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.Extractor == nil {
		log.Fatal("extraction client not configured")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Janitor.Run(ctx, janitorInterval)
	}()

	sem := make(chan struct{}, max(1, concurrency))

	log.Printf("worker started queue=%s concurrency=%d visibility=%ds lease=%dm",
		queueURL, concurrency, visibilitySeconds, cfg.ProcessingLeaseMinutes)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, app, sqsClient, queueURL, m)
			}(msg)
		}
	}

	log.Printf("shutdown requested, waiting up to %s for in-flight jobs", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight jobs")
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func handleMessage(ctx context.Context, app *bootstrap.App, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	decoded, meta, err := workerproc.ParseMessage(body)
	if err != nil {
		// Undecodable payloads can never succeed; delete instead of letting
		// SQS redeliver them until the DLQ.
		fields := baseFields(msg, decoded.DeckID, decoded.RequestID)
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		fields["error"] = err.Error()
		telemetry.Error("worker.deck.unparseable", fields)
		deleteMessage(ctx, client, queueURL, msg, decoded.DeckID, decoded.RequestID)
		return
	}

	telemetry.Info("worker.deck.received", baseFields(msg, decoded.DeckID, decoded.RequestID))

	if err := workerproc.HandleMessage(ctx, app.DeckWorker, body); err != nil {
		fields := baseFields(msg, decoded.DeckID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.deck.failed", fields)
		// No delete: the message stays invisible until the visibility timeout
		// and is retried, then dead-lettered by queue policy.
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.DeckID, decoded.RequestID) {
		telemetry.Info("worker.deck.done", baseFields(msg, decoded.DeckID, decoded.RequestID))
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, deckID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, deckID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.deck.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, deckID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("worker.deck.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, deckID, requestID string) map[string]any {
	fields := map[string]any{
		"deck_id":        deckID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
