package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/ports"
	"github.com/kirillkom/civic-digest/internal/infrastructure/resilience"
)

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  ---\ntitle: \"x\"\n---\n  "}}`))
	}))
	defer server.Close()

	client := New(server.URL, "qwen2.5", Options{})
	text, err := client.Complete(context.Background(), ports.CompletionRequest{
		System:      "system prompt",
		User:        "user prompt",
		MaxTokens:   3000,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !strings.HasPrefix(text, "---") {
		t.Fatalf("unexpected completion: %q", text)
	}
	if captured.Model != "qwen2.5" || captured.Stream {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "user prompt" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	if captured.Options["num_predict"] != float64(3000) {
		t.Fatalf("max tokens not forwarded: %+v", captured.Options)
	}
}

func TestCompleteIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "qwen2.5", Options{})
	_, err := client.Complete(context.Background(), ports.CompletionRequest{User: "hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("bad gateway should be temporary, got %v", err)
	}
}

func TestCompleteEmptyReplyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"   "}}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "m", Options{}).Complete(context.Background(), ports.CompletionRequest{User: "x"})
	if !domain.IsKind(err, domain.ErrMalformedReply) {
		t.Fatalf("expected malformed reply error, got %v", err)
	}
}

func TestCompleteThroughOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, nil)
	client := New(server.URL, "m", Options{ResilienceExecutor: executor})

	for i := 0; i < 4; i++ {
		_, err := client.Complete(context.Background(), ports.CompletionRequest{User: "x"})
		if !domain.IsKind(err, domain.ErrTemporary) {
			t.Fatalf("call %d: expected temporary error, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("open breaker should stop calls after two failures, server saw %d", got)
	}
}
