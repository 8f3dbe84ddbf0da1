package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"docchat-backend/internal/extraction"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/workerproc"
)

const (
	receiveBatchSize   = 10
	receiveWaitSeconds = 20
	receiveRetryDelay  = time.Second
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// outcome is what happened to one delivery.
type outcome int

const (
	// completed: extraction finished and the message was deleted.
	completed outcome = iota
	// dropped: the message can never succeed and was deleted.
	dropped
	// redeliver: the message stays on the queue until its visibility timeout lapses.
	redeliver
)

// poller long-polls SQS and runs up to concurrency extractions at a time.
type poller struct {
	client      sqsAPI
	queueURL    string
	runner      extraction.Runner
	visibility  time.Duration
	concurrency int

	wg sync.WaitGroup
}

// run polls until ctx is canceled. Jobs already started keep running on a
// detached context; wait for them with drain.
func (p *poller) run(ctx context.Context) {
	slots := make(chan struct{}, max(1, p.concurrency))
	for ctx.Err() == nil {
		resp, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(p.queueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     receiveWaitSeconds,
			VisibilityTimeout:   int32(p.visibility / time.Second),
			AttributeNames:      []sqstypes.QueueAttributeName{"ApproximateReceiveCount"},
		})
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			sleep(ctx, receiveRetryDelay)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				return
			case slots <- struct{}{}:
			}
			metrics.IncExtractionJobsReceived()
			p.wg.Add(1)
			go func(m sqstypes.Message) {
				defer p.wg.Done()
				defer func() { <-slots }()
				p.handle(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}
}

// drain waits for in-flight jobs and reports whether they all finished
// within timeout.
func (p *poller) drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *poller) handle(ctx context.Context, msg sqstypes.Message) outcome {
	body := aws.ToString(msg.Body)
	fields := deliveryFields(msg)

	if strings.TrimSpace(body) == "" {
		telemetry.Error("worker.extraction.empty_body", fields)
		return p.drop(ctx, msg, fields)
	}

	decoded, meta, err := workerproc.ParseMessage(body)
	withJob(fields, decoded.DocumentID, decoded.RequestID)
	if err != nil {
		fields["error"] = err.Error()
		fields["body_len"] = meta.BodyLen
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		event := "worker.extraction.decode_failed"
		var missing workerproc.ErrMissingFields
		if errors.As(err, &missing) {
			event = "worker.extraction.missing_fields"
		}
		telemetry.Error(event, fields)
		return p.drop(ctx, msg, fields)
	}

	telemetry.Info("worker.extraction.received", fields)
	err = workerproc.HandleMessage(workerproc.WithParsedMessage(ctx, decoded), p.runner, body)
	switch {
	case err == nil:
		if !p.delete(ctx, msg, fields) {
			return redeliver
		}
		telemetry.Info("worker.extraction.completed", fields)
		metrics.IncExtractionJobsCompleted()
		return completed
	case workerproc.Unrecoverable(err):
		// the document row already records the failure
		fields["error"] = err.Error()
		telemetry.Error("worker.extraction.unrecoverable", fields)
		return p.drop(ctx, msg, fields)
	default:
		fields["error"] = err.Error()
		telemetry.Error("worker.extraction.failed", fields)
		metrics.IncExtractionJobsFailed()
		return redeliver
	}
}

func (p *poller) drop(ctx context.Context, msg sqstypes.Message, fields map[string]any) outcome {
	if !p.delete(ctx, msg, fields) {
		return redeliver
	}
	metrics.IncExtractionJobsDeletedUnrecoverable()
	return dropped
}

func (p *poller) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	var err error
	if receipt == "" {
		err = errors.New("missing receipt handle")
	} else {
		_, err = p.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(p.queueURL),
			ReceiptHandle: aws.String(receipt),
		})
	}
	if err != nil {
		failed := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			failed[k] = v
		}
		failed["error"] = err.Error()
		telemetry.Error("worker.extraction.delete_failed", failed)
		return false
	}
	return true
}

func deliveryFields(msg sqstypes.Message) map[string]any {
	count, _ := strconv.Atoi(msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
	return map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  count,
	}
}

func withJob(fields map[string]any, documentID, requestID string) {
	fields["document_id"] = documentID
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
