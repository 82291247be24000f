package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/ports"
	"github.com/kirillkom/civic-digest/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// Complete sends one non-streaming chat turn to /api/chat.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		payload.Options["num_predict"] = req.MaxTokens
	}

	call := func(ctx context.Context) (string, error) {
		var response chatResponse
		if err := c.postJSON(ctx, "/api/chat", payload, &response, "chat"); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Message.Content), nil
	}

	var (
		text string
		err  error
	)
	if c.executor != nil {
		text, err = resilience.Call(ctx, c.executor, "ollama.chat", call, resilience.ClassifyHTTPError)
	} else {
		text, err = call(ctx)
	}
	if err != nil {
		return "", resilience.WrapUpstream("ollama chat", err)
	}
	if text == "" {
		return "", domain.WrapError(domain.ErrMalformedReply, "ollama chat", errors.New("empty completion"))
	}
	return text, nil
}
