// Package ai provides a uniform gateway over interchangeable
// OpenAI-compatible text-generation backends.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"agentia/backend/internal/config"
)

// DefaultTimeout bounds a single generation request when the provider
// configuration does not set its own deadline.
const DefaultTimeout = 150 * time.Second

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options tune a single generation request.
type Options struct {
	Temperature *float64
	MaxTokens   int
	Stream      bool
	// Provider selects the backend by name; empty means the default backend.
	Provider string
}

// provider is one configured chat-completions backend.
type provider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	// strictSchema enables server-side json_schema response constraining.
	// Only the default (local) backend supports it; the rest are best-effort
	// and rely on client-side parsing.
	strictSchema bool
	client       *http.Client
}

// Gateway routes generation requests to one of the configured providers and
// normalizes success and failure into a single result shape. It performs a
// single attempt per invocation; retry policy is a caller concern.
type Gateway struct {
	providers   map[string]*provider
	defaultName string
	logger      Logger
}

// NewGateway builds a Gateway from provider configuration. Credentials come
// exclusively from the configuration object; nothing is hardcoded.
func NewGateway(cfg *config.Config, logger Logger) *Gateway {
	g := &Gateway{
		providers:   make(map[string]*provider),
		defaultName: cfg.AI.DefaultProvider,
		logger:      logger,
	}
	for name, pc := range cfg.AI.Providers {
		timeout := pc.Timeout(DefaultTimeout)
		g.providers[name] = &provider{
			name:         name,
			baseURL:      pc.BaseURL,
			apiKey:       pc.APIKey,
			model:        pc.Model,
			timeout:      timeout,
			strictSchema: name == cfg.AI.DefaultProvider,
			client:       &http.Client{Timeout: timeout},
		}
	}
	return g
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat any           `json:"response_format,omitempty"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	Stream         bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error json.RawMessage `json:"error,omitempty"`
}

// Generate sends a system/user prompt pair to the selected backend and
// returns the completion. Transport and backend failures are normalized into
// an *Error; the method never panics past this boundary.
func (g *Gateway) Generate(ctx context.Context, systemPrompt, userPrompt string, outputSchema map[string]any, opts Options) (*Completion, error) {
	p, err := g.pick(opts.Provider)
	if err != nil {
		return nil, err
	}

	temperature := 0.7
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = -1
	}

	payload := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      opts.Stream,
	}
	if outputSchema != nil && p.strictSchema {
		payload.ResponseFormat = map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"strict": true,
				"schema": outputSchema,
			},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := p.baseURL + "/v1/chat/completions"
	g.logger.Debug("calling AI backend", "provider", p.name, "url", url, "model", p.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, normalizeTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, normalizeTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindBackend, Message: backendMessage(respBody, resp.StatusCode)}
	}

	var data chatResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, &Error{Kind: KindBackend, Message: "invalid backend response: " + err.Error()}
	}
	if len(data.Error) > 0 && string(data.Error) != "null" {
		return nil, &Error{Kind: KindBackend, Message: stringify(data.Error)}
	}
	if len(data.Choices) == 0 || data.Choices[0].Message.Content == "" {
		return nil, &Error{Kind: KindEmpty, Message: "empty response"}
	}

	return parseCompletion(data.Choices[0].Message.Content), nil
}

func (g *Gateway) pick(name string) (*provider, error) {
	if name == "" {
		name = g.defaultName
	}
	p, ok := g.providers[name]
	if !ok {
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("unknown provider %q", name)}
	}
	return p, nil
}

// normalizeTransportError maps a client error to the gateway taxonomy.
// Deadline overruns get the timeout-specific message callers match on.
func normalizeTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "Request timeout"}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "Request timeout"}
	}
	return &Error{Kind: KindTransport, Message: err.Error()}
}

// backendMessage extracts a human-readable message from a non-2xx body,
// stringifying JSON payloads rather than dropping them.
func backendMessage(body []byte, status int) string {
	if len(body) == 0 {
		return fmt.Sprintf("backend returned status %d", status)
	}
	return stringify(body)
}

func stringify(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
