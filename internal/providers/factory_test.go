package providers

import (
	"context"
	"testing"

	"pipellm/internal/core"
)

type stubInvoker struct{ name string }

func (s *stubInvoker) Invoke(context.Context, *core.InvocationRequest, core.FragmentFunc) error {
	return nil
}

func (s *stubInvoker) Name() string { return s.name }

func registerStub(t *testing.T, schema string) {
	t.Helper()
	Register(schema, func(_ context.Context, cfg Config) (core.Invoker, error) {
		return &stubInvoker{name: cfg.Schema}, nil
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, schema)
		mu.Unlock()
	})
}

func TestCreate(t *testing.T) {
	registerStub(t, "stub")

	inv, err := Create(context.Background(), Config{Schema: "stub"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if inv.Name() != "stub" {
		t.Errorf("Name() = %q, want %q", inv.Name(), "stub")
	}
}

func TestCreate_UnknownSchema(t *testing.T) {
	_, err := Create(context.Background(), Config{Schema: "unknown-schema"})
	if err == nil {
		t.Fatal("expected error for unknown schema, got nil")
	}
	if !core.IsType(err, core.ErrorTypeSetup) {
		t.Errorf("expected setup error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		schema     string
		model      string
		wantSchema string
		wantModel  string
	}{
		{"default schema", "", "gpt-4o", "openai", "gpt-4o"},
		{"explicit schema keeps model", "anthropic", "claude-sonnet-4-0", "anthropic", "claude-sonnet-4-0"},
		{"explicit schema ignores prefix", "openai", "anthropic/claude", "openai", "anthropic/claude"},
		{"prefix routes and strips", "", "anthropic/claude-sonnet-4-0", "anthropic", "claude-sonnet-4-0"},
		{"bedrock prefix", "", "bedrock/anthropic.claude-3-5-sonnet-20240620-v1:0", "bedrock", "anthropic.claude-3-5-sonnet-20240620-v1:0"},
		{"openai prefix", "", "openai/gpt-4o-mini", "openai", "gpt-4o-mini"},
		{"unknown prefix is part of the model", "", "meta-llama/Llama-3-8b", "openai", "meta-llama/Llama-3-8b"},
		{"empty remainder", "", "anthropic/", "openai", "anthropic/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, model := Resolve(tt.schema, tt.model)
			if schema != tt.wantSchema {
				t.Errorf("schema = %q, want %q", schema, tt.wantSchema)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestListRegistered_Sorted(t *testing.T) {
	registerStub(t, "zeta")
	registerStub(t, "alpha")

	list := ListRegistered()
	var alpha, zeta = -1, -1
	for i, s := range list {
		switch s {
		case "alpha":
			alpha = i
		case "zeta":
			zeta = i
		}
	}
	if alpha < 0 || zeta < 0 {
		t.Fatalf("ListRegistered() = %v, missing stubs", list)
	}
	if alpha > zeta {
		t.Errorf("ListRegistered() = %v, want sorted", list)
	}
}
