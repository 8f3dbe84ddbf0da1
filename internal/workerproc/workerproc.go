package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"docchat-backend/internal/extraction"
	"docchat-backend/internal/queue"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingFields indicates a message without document, path or user.
type ErrMissingFields struct {
	Meta      MessageMeta
	RequestID string
	Err       error
}

func (e ErrMissingFields) Error() string {
	if e.Err == nil {
		return "missing message fields"
	}
	return "missing message fields: " + e.Err.Error()
}

// ErrProcess indicates extraction failed after successful parsing.
type ErrProcess struct {
	DocumentID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process extraction"
	}
	return "process extraction: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Terminal reports whether redelivering the message cannot change the
// outcome: the document was rejected, is gone, or the request is invalid.
func (e ErrProcess) Terminal() bool {
	var unproc *extraction.UnprocessableError
	return errors.As(e.Err, &unproc) ||
		errors.Is(e.Err, extraction.ErrNotFound) ||
		errors.Is(e.Err, extraction.ErrInvalidInput)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if err := msg.Validate(); err != nil {
		return msg, meta, ErrMissingFields{Meta: meta, RequestID: msg.RequestID, Err: err}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and runs extraction for a message payload.
func HandleMessage(ctx context.Context, runner extraction.Runner, body string) error {
	if runner == nil {
		return errors.New("extraction service not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}
	if err := msg.Validate(); err != nil {
		return ErrMissingFields{Meta: ComputeMeta(body), RequestID: msg.RequestID, Err: err}
	}

	ctxWithRequest := extraction.WithRequestID(ctx, msg.RequestID)
	req := extraction.Request{DocumentID: msg.DocumentID, FilePath: msg.FilePath, UserID: msg.UserID}
	if _, err := runner.Run(ctxWithRequest, req); err != nil {
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Unrecoverable reports whether a HandleMessage error means the message
// should be dropped instead of redelivered.
func Unrecoverable(err error) bool {
	if err == nil {
		return false
	}
	var empty ErrEmptyBody
	var decode ErrDecode
	var missing ErrMissingFields
	var proc ErrProcess
	switch {
	case errors.As(err, &empty), errors.As(err, &decode), errors.As(err, &missing):
		return true
	case errors.As(err, &proc):
		return proc.Terminal()
	}
	return false
}
