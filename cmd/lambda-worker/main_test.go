package main

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"docchat-backend/internal/extraction"
	"docchat-backend/internal/queue"
)

type fakeRunner struct {
	errs map[string]error
}

func (f fakeRunner) Run(ctx context.Context, req extraction.Request) (extraction.Result, error) {
	return extraction.Result{DocumentID: req.DocumentID}, f.errs[req.DocumentID]
}

func record(t *testing.T, id, documentID string) events.SQSMessage {
	t.Helper()
	body, err := queue.EncodeMessage(queue.Message{DocumentID: documentID, FilePath: "u/a.txt", UserID: "user-1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return events.SQSMessage{MessageId: id, Body: string(body)}
}

func TestProcessBatchReportsOnlyTransientFailures(t *testing.T) {
	runner := fakeRunner{errs: map[string]error{
		"doc-retry":  extraction.ErrPersist,
		"doc-reject": &extraction.UnprocessableError{Reason: "PDF is encrypted or password-protected"},
	}}
	event := events.SQSEvent{Records: []events.SQSMessage{
		record(t, "m1", "doc-ok"),
		record(t, "m2", "doc-retry"),
		record(t, "m3", "doc-reject"),
		{MessageId: "m4", Body: "{bad"},
	}}

	resp := processBatch(context.Background(), runner, event)
	if len(resp.BatchItemFailures) != 1 || resp.BatchItemFailures[0].ItemIdentifier != "m2" {
		t.Fatalf("unexpected failures: %+v", resp.BatchItemFailures)
	}
}
