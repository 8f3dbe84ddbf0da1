package main

// Long-running SQS consumer for extraction jobs:
//   EXTRACTION_QUEUE_URL=... go run ./cmd/worker

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/telemetry"
)

const defaultRegion = "us-east-1"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	queueURL := strings.TrimSpace(cfg.ExtractionQueueURL)
	if queueURL == "" {
		log.Fatal("EXTRACTION_QUEUE_URL is required")
	}
	region := strings.TrimSpace(cfg.AWSRegion)
	if region == "" {
		region = defaultRegion
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer telemetry.Sync()

	p := &poller{
		client:      sqs.NewFromConfig(awsCfg),
		queueURL:    queueURL,
		runner:      app.ExtractionService,
		visibility:  cfg.SQSVisibilityTimeout,
		concurrency: cfg.WorkerConcurrency,
	}
	telemetry.Info("worker.started", map[string]any{
		"queue_url":      queueURL,
		"concurrency":    p.concurrency,
		"visibility_sec": int(p.visibility / time.Second),
	})

	p.run(ctx)

	timeout := cfg.ShutdownTimeout
	telemetry.Info("worker.draining", map[string]any{"timeout": timeout.String()})
	if !p.drain(timeout) {
		telemetry.Error("worker.drain_timeout", map[string]any{"timeout": timeout.String()})
	}
}

