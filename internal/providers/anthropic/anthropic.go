// Package anthropic streams Claude messages from the Anthropic API and from
// AWS Bedrock through the official SDK.
package anthropic

import (
	"context"
	"errors"
	"io"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"pipellm/internal/core"
	"pipellm/internal/providers"
	"pipellm/internal/streaming"
)

// DefaultMaxTokens is sent when no limit is configured; the Messages API
// requires one.
const DefaultMaxTokens = 4096

func init() {
	providers.Register(providers.SchemaAnthropic, func(_ context.Context, cfg providers.Config) (core.Invoker, error) {
		inv, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return inv, nil
	})
	providers.Register(providers.SchemaBedrock, func(ctx context.Context, cfg providers.Config) (core.Invoker, error) {
		inv, err := NewBedrock(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return inv, nil
	})
}

// Invoker implements core.Invoker for the Messages API
type Invoker struct {
	name      string
	client    sdkanthropic.Client
	maxTokens int64
}

// New creates an invoker for the Anthropic API. An API key is required.
func New(cfg providers.Config) (*Invoker, error) {
	if cfg.APIKey == "" {
		return nil, core.NewSetupError(providers.SchemaAnthropic, "missing API key (set ANTHROPIC_API_KEY)", nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return newInvoker(providers.SchemaAnthropic, cfg, opts), nil
}

// NewBedrock creates an invoker for Anthropic models hosted on AWS Bedrock.
// Credentials and region come from the standard AWS configuration chain.
func NewBedrock(ctx context.Context, cfg providers.Config) (*Invoker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, core.NewSetupError(providers.SchemaBedrock, "failed to load AWS configuration", err)
	}
	if awsCfg.Region == "" {
		return nil, core.NewSetupError(providers.SchemaBedrock, "missing AWS region (set AWS_REGION)", nil)
	}
	opts := []option.RequestOption{bedrock.WithConfig(awsCfg)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return newInvoker(providers.SchemaBedrock, cfg, opts), nil
}

func newInvoker(name string, cfg providers.Config, opts []option.RequestOption) *Invoker {
	// A stream that already produced output cannot be replayed.
	opts = append(opts, option.WithMaxRetries(0))
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Invoker{
		name:      name,
		client:    sdkanthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}
}

// Name returns the schema this invoker serves
func (i *Invoker) Name() string {
	return i.name
}

// messageParams carries every system prompt as its own text block, in order.
func (i *Invoker) messageParams(req *core.InvocationRequest) sdkanthropic.MessageNewParams {
	params := sdkanthropic.MessageNewParams{
		Model:     sdkanthropic.Model(req.Model),
		MaxTokens: i.maxTokens,
		Messages: []sdkanthropic.MessageParam{
			sdkanthropic.NewUserMessage(sdkanthropic.NewTextBlock(req.UserText)),
		},
	}
	for _, s := range req.SystemPrompts {
		params.System = append(params.System, sdkanthropic.TextBlockParam{Text: s})
	}
	return params
}

// Invoke streams a message, forwarding text deltas to onFragment.
func (i *Invoker) Invoke(ctx context.Context, req *core.InvocationRequest, onFragment core.FragmentFunc) error {
	var reqOpts []option.RequestOption
	if requestID := core.RequestID(ctx); requestID != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Client-Request-Id", requestID))
	}

	stream := i.client.Messages.NewStreaming(ctx, i.messageParams(req), reqOpts...)
	defer func() { _ = stream.Close() }()

	return streaming.Forward(i.name, &eventReader{provider: i.name, stream: stream}, onFragment)
}

// eventReader adapts the SDK stream to streaming.EventReader.
type eventReader struct {
	provider string
	stream   *ssestream.Stream[sdkanthropic.MessageStreamEventUnion]
	decoder  streaming.EventDecoder
}

func (r *eventReader) Next() (core.StreamEvent, error) {
	if !r.stream.Next() {
		if err := r.stream.Err(); err != nil {
			return core.StreamEvent{}, transportError(r.provider, err)
		}
		return core.StreamEvent{}, io.EOF
	}
	ev := r.stream.Current()
	return r.decoder.Decode(streaming.MessageEvent{
		Type:      string(ev.Type),
		DeltaType: string(ev.Delta.Type),
		BlockType: ev.ContentBlock.Type,
		Text:      ev.Delta.Text,
	}), nil
}

// transportError converts an SDK failure into a transport error, keeping
// the HTTP status and the provider's message when there is one.
func transportError(provider string, err error) error {
	var apiErr *sdkanthropic.Error
	if errors.As(err, &apiErr) {
		return core.ParseProviderError(provider, apiErr.StatusCode, []byte(apiErr.RawJSON()), err)
	}
	return core.NewTransportError(provider, 0, "stream failed: "+err.Error(), err)
}
