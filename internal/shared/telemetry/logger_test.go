package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Info("extraction.completed", map[string]any{
		"document_id": "doc-1",
		"bytes":       42,
	})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected level info, got %v", payload["level"])
	}
	if payload["msg"] != "extraction.completed" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["document_id"] != "doc-1" {
		t.Fatalf("unexpected document_id: %v", payload["document_id"])
	}
	if payload["bytes"] != float64(42) {
		t.Fatalf("unexpected bytes: %v", payload["bytes"])
	}
	ts, _ := payload["ts"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC RFC3339 timestamp, got %q", ts)
	}
}

func TestErrorEncodesErrorValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Error("http.error", map[string]any{"error": errors.New("boom")})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected level error, got %v", payload["level"])
	}
	if payload["error"] != "boom" {
		t.Fatalf("expected error text, got %v", payload["error"])
	}
}
