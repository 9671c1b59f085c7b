// Package openai streams chat completions from OpenAI and OpenAI-compatible
// servers (vLLM, llama.cpp, Ollama's /v1 surface).
package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"pipellm/internal/core"
	"pipellm/internal/llmclient"
	"pipellm/internal/providers"
	"pipellm/internal/streaming"
)

const (
	// DefaultBaseURL is used when no endpoint is configured.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o"
)

func init() {
	providers.Register(providers.SchemaOpenAI, func(_ context.Context, cfg providers.Config) (core.Invoker, error) {
		inv, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return inv, nil
	})
}

// Invoker implements core.Invoker for the chat completions API
type Invoker struct {
	client    *llmclient.Client
	apiKey    string
	maxTokens int
}

// New creates an OpenAI invoker. An API key is required.
func New(cfg providers.Config) (*Invoker, error) {
	if cfg.APIKey == "" {
		return nil, core.NewSetupError(providers.SchemaOpenAI, "missing API key (set OPENAI_API_KEY)", nil)
	}
	baseURL := cfg.Endpoint
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	inv := &Invoker{apiKey: cfg.APIKey, maxTokens: cfg.MaxTokens}
	clientCfg := llmclient.Config{ProviderName: providers.SchemaOpenAI, BaseURL: baseURL}
	if cfg.HTTPClient != nil {
		inv.client = llmclient.NewWithHTTPClient(cfg.HTTPClient, clientCfg, inv.setHeaders)
	} else {
		inv.client = llmclient.New(clientCfg, inv.setHeaders)
	}
	return inv, nil
}

// Name returns the schema this invoker serves
func (i *Invoker) Name() string {
	return providers.SchemaOpenAI
}

// BaseURL returns the endpoint requests are sent to
func (i *Invoker) BaseURL() string {
	return i.client.BaseURL()
}

// setHeaders sets the required headers for OpenAI API requests
func (i *Invoker) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	// OpenAI rejects non-ASCII or over-long X-Client-Request-Id values with a 400.
	if requestID := core.RequestID(req.Context()); requestID != "" && isValidClientRequestID(requestID) {
		req.Header.Set("X-Client-Request-Id", requestID)
	}
}

// isValidClientRequestID checks if the request ID is valid for OpenAI's X-Client-Request-Id header.
// OpenAI requires: ASCII characters only, max 512 characters.
func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

// isOSeriesModel reports whether the model is an OpenAI o-series model
// (o1, o3, o4) that requires max_completion_tokens instead of max_tokens.
func isOSeriesModel(model string) bool {
	m := strings.ToLower(model)
	return len(m) >= 2 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9'
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string    `json:"model"`
	Messages            []message `json:"messages"`
	Stream              bool      `json:"stream"`
	MaxTokens           int       `json:"max_tokens,omitempty"`
	MaxCompletionTokens int       `json:"max_completion_tokens,omitempty"`
}

// chatRequestBody lays out one system message per prompt, in order, followed
// by the user message.
func chatRequestBody(req *core.InvocationRequest, maxTokens int) *chatRequest {
	messages := make([]message, 0, len(req.SystemPrompts)+1)
	for _, s := range req.SystemPrompts {
		messages = append(messages, message{Role: "system", Content: s})
	}
	messages = append(messages, message{Role: "user", Content: req.UserText})

	body := &chatRequest{Model: req.Model, Messages: messages, Stream: true}
	if maxTokens > 0 {
		if isOSeriesModel(req.Model) {
			body.MaxCompletionTokens = maxTokens
		} else {
			body.MaxTokens = maxTokens
		}
	}
	return body
}

// Invoke streams a chat completion, forwarding text deltas to onFragment.
func (i *Invoker) Invoke(ctx context.Context, req *core.InvocationRequest, onFragment core.FragmentFunc) error {
	body, err := i.client.DoStream(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     chatRequestBody(req, i.maxTokens),
	})
	if err != nil {
		return err
	}
	stream := streaming.NewChatStream(providers.SchemaOpenAI, body)
	defer stream.Close()

	err = streaming.Forward(providers.SchemaOpenAI, stream, onFragment)
	if skipped := stream.Skipped(); skipped > 0 {
		slog.Debug("skipped undecodable stream records", "provider", providers.SchemaOpenAI, "count", skipped)
	}
	return err
}
