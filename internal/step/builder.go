package step

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pipellm/internal/core"
	"pipellm/internal/evaluator"
	"pipellm/internal/providers"
)

// Builder collects Step configuration. Every method returns a modified copy,
// so a partially configured Builder can be shared and extended safely.
type Builder struct {
	model      string
	schema     string
	endpoint   string
	apiKey     string
	system     []string
	pass       string
	maxTokens  int
	httpClient *http.Client
	out        io.Writer
	logger     *slog.Logger
	recorder   Recorder
	invoker    core.Invoker
}

// NewBuilder returns an empty Builder.
func NewBuilder() Builder {
	return Builder{}
}

// Model sets the model id. A "<schema>/" prefix selects the provider when
// no schema is set.
func (b Builder) Model(model string) Builder {
	b.model = model
	return b
}

// Schema pins the provider family.
func (b Builder) Schema(schema string) Builder {
	b.schema = schema
	return b
}

// Endpoint overrides the provider base URL.
func (b Builder) Endpoint(endpoint string) Builder {
	b.endpoint = endpoint
	return b
}

// APIKey sets the provider credential.
func (b Builder) APIKey(key string) Builder {
	b.apiKey = key
	return b
}

// System appends system prompts, preserving order.
func (b Builder) System(prompts ...string) Builder {
	system := make([]string, 0, len(b.system)+len(prompts))
	system = append(system, b.system...)
	b.system = append(system, prompts...)
	return b
}

// Pass sets the JSONata pass expression. Empty means every successful
// invocation passes.
func (b Builder) Pass(expr string) Builder {
	b.pass = expr
	return b
}

// MaxTokens caps the response length. 0 leaves the provider default.
func (b Builder) MaxTokens(n int) Builder {
	b.maxTokens = n
	return b
}

// HTTPClient sets the client used for provider requests.
func (b Builder) HTTPClient(c *http.Client) Builder {
	b.httpClient = c
	return b
}

// Output sets where fragments are written as they arrive.
func (b Builder) Output(w io.Writer) Builder {
	b.out = w
	return b
}

// Logger sets the logger. Defaults to slog.Default().
func (b Builder) Logger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Recorder sets the metrics sink.
func (b Builder) Recorder(r Recorder) Builder {
	b.recorder = r
	return b
}

// Invoker bypasses provider dispatch and uses inv directly.
func (b Builder) Invoker(inv core.Invoker) Builder {
	b.invoker = inv
	return b
}

// Build validates the configuration and produces an immutable Step. The pass
// expression is compiled before any provider is constructed. A blank pass
// expression means no predicate.
func (b Builder) Build(ctx context.Context) (*Step, error) {
	var predicate *evaluator.Predicate
	if strings.TrimSpace(b.pass) != "" {
		p, err := evaluator.Compile(b.pass)
		if err != nil {
			return nil, err
		}
		predicate = p
	}

	schema, model := providers.Resolve(b.schema, b.model)

	inv := b.invoker
	if inv == nil {
		var err error
		inv, err = providers.Create(ctx, providers.Config{
			Schema:     schema,
			Endpoint:   b.endpoint,
			APIKey:     b.apiKey,
			MaxTokens:  b.maxTokens,
			HTTPClient: b.httpClient,
		})
		if err != nil {
			return nil, err
		}
	}

	s := &Step{
		model:     model,
		system:    append([]string(nil), b.system...),
		invoker:   inv,
		predicate: predicate,
		out:       b.out,
		logger:    b.logger,
		recorder:  b.recorder,
	}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s, nil
}
