package extraction

import (
	"context"
	"errors"
	"time"

	"docchat-backend/internal/queue"
	"docchat-backend/internal/shared/telemetry"
)

// Trigger starts extraction for a document without waiting for the result.
// A nil error means the request was handed off, not that extraction succeeded.
type Trigger interface {
	Trigger(ctx context.Context, req Request) error
}

// Runner executes one extraction synchronously.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// QueueTrigger hands extraction requests to a queue consumed by the worker.
type QueueTrigger struct {
	Client queue.Client
	Now    func() time.Time
}

// Trigger sends a queue message for req.
func (t *QueueTrigger) Trigger(ctx context.Context, req Request) error {
	if t == nil || t.Client == nil {
		return errors.New("extraction queue not configured")
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return t.Client.Send(ctx, queue.Message{
		DocumentID: req.DocumentID,
		FilePath:   req.FilePath,
		UserID:     req.UserID,
		RequestID:  RequestIDFromContext(ctx),
		EnqueuedAt: now().UTC().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	})
}

// AsyncTrigger runs extraction in a background goroutine of this process.
// It is used when no queue is configured.
type AsyncTrigger struct {
	Runner Runner
}

// Trigger starts the run and returns immediately.
func (t *AsyncTrigger) Trigger(ctx context.Context, req Request) error {
	if t == nil || t.Runner == nil {
		return errors.New("extraction runner not configured")
	}
	bg := backgroundWithRequestID(ctx)
	go func() {
		if _, err := t.Runner.Run(bg, req); err != nil {
			telemetry.Error("extraction.async_failed", map[string]any{
				"document_id": req.DocumentID,
				"user_id":     req.UserID,
				"request_id":  RequestIDFromContext(bg),
				"error":       err.Error(),
			})
		}
	}()
	return nil
}

var (
	_ Trigger = (*QueueTrigger)(nil)
	_ Trigger = (*AsyncTrigger)(nil)
	_ Runner  = (*Service)(nil)
)
