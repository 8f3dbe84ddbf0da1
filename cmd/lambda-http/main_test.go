package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"docchat-backend/internal/shared/server/respond"
)

func TestHandlerReportsBootstrapFailure(t *testing.T) {
	initOnce = sync.Once{}
	initOnce.Do(func() {})
	initErr = errors.New("DATABASE_URL is required in production")
	defer func() {
		initOnce = sync.Once{}
		initErr = nil
	}()

	resp, err := handler(context.Background(), events.APIGatewayV2HTTPRequest{})
	if err != nil {
		t.Fatalf("expected handled failure, got %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body respond.ErrorResponse
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "BOOTSTRAP_FAILED" || body.Error == "" {
		t.Fatalf("unexpected body %+v", body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("unexpected headers %+v", resp.Headers)
	}
}
