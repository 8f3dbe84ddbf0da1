package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docchat-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatReturnsFirstChoice(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"  the answer  "}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, &seen)

	client, err := NewClient("key", "gpt-4o-mini", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "question"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("unexpected content %q", got)
	}
	if seen["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model %v", seen["model"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("expected system role, got %v", first["role"])
	}
}

func TestChatOmitsTemperatureForGPT5(t *testing.T) {
	var seen map[string]any
	srv := newTestServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &seen)

	client, err := NewClient("key", "gpt-5-mini", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, ok := seen["temperature"]; ok {
		t.Fatalf("expected temperature to be omitted, got %v", seen["temperature"])
	}
}

func TestChatMapsServerErrorsToRetryable(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`, nil)

	client, err := NewClient("key", "gpt-4o", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "q"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestChatRejectsEmptyChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"choices":[]}`, nil)

	client, err := NewClient("key", "gpt-4o", srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Chat(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient("key", "", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
	if _, err := NewClient("", "gpt-4o", ""); err == nil {
		t.Fatal("expected error for missing key")
	}
}
