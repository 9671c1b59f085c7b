// Package providers selects and builds the Invoker for a configured schema.
//
// Provider packages register a Builder from init(); importing them for side
// effects makes their schema available to Create.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"pipellm/internal/core"
)

// Well-known schemas.
const (
	SchemaOpenAI    = "openai"
	SchemaAnthropic = "anthropic"
	SchemaBedrock   = "bedrock"
)

// DefaultSchema is used when neither an explicit schema nor a model prefix
// selects a provider.
const DefaultSchema = SchemaOpenAI

// Config is the backend configuration handed to a Builder. It is built once
// per process and owned by the resulting Invoker.
type Config struct {
	Schema   string
	Endpoint string
	APIKey   string
	// MaxTokens caps the response length; 0 leaves the provider default.
	MaxTokens int
	// HTTPClient carries the end-to-end timeout. Nil means the provider default.
	HTTPClient *http.Client
}

// Builder creates an Invoker from configuration
type Builder func(ctx context.Context, cfg Config) (core.Invoker, error)

var (
	mu       sync.RWMutex
	registry = make(map[string]Builder)
)

// Register allows provider packages to register themselves.
// This should be called from init() functions in provider packages.
func Register(schema string, builder Builder) {
	mu.Lock()
	defer mu.Unlock()
	registry[schema] = builder
}

// reservedPrefixes are the model prefixes that select a schema.
var reservedPrefixes = map[string]bool{
	SchemaOpenAI:    true,
	SchemaAnthropic: true,
	SchemaBedrock:   true,
}

// Resolve decides which schema serves model. An explicit schema wins and the
// model is used verbatim. Otherwise a reserved "<schema>/" prefix routes to
// that schema and is stripped, so "anthropic/claude-sonnet-4-0" becomes model
// "claude-sonnet-4-0" on the anthropic schema.
func Resolve(schema, model string) (string, string) {
	if schema != "" {
		return schema, model
	}
	if prefix, rest, ok := strings.Cut(model, "/"); ok && rest != "" && reservedPrefixes[prefix] {
		return prefix, rest
	}
	return DefaultSchema, model
}

// IsRegistered reports whether a builder exists for schema.
func IsRegistered(schema string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[schema]
	return ok
}

// Create instantiates the Invoker for cfg.Schema.
func Create(ctx context.Context, cfg Config) (core.Invoker, error) {
	mu.RLock()
	builder, ok := registry[cfg.Schema]
	mu.RUnlock()
	if !ok {
		return nil, core.NewSetupError("", fmt.Sprintf("unknown schema %q (available: %s)", cfg.Schema, strings.Join(ListRegistered(), ", ")), nil)
	}
	return builder(ctx, cfg)
}

// ListRegistered returns the registered schemas in sorted order.
func ListRegistered() []string {
	mu.RLock()
	defer mu.RUnlock()
	schemas := make([]string, 0, len(registry))
	for s := range registry {
		schemas = append(schemas, s)
	}
	sort.Strings(schemas)
	return schemas
}
