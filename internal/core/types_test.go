package core

import (
	"context"
	"testing"
)

func TestNewInvocationRequest_CopiesSystemPrompts(t *testing.T) {
	prompts := []string{"Be terse", "Answer in English"}
	req := NewInvocationRequest("gpt-4o", prompts, "Say hi")

	prompts[0] = "mutated"

	if req.SystemPrompts[0] != "Be terse" {
		t.Errorf("SystemPrompts[0] = %q, want %q", req.SystemPrompts[0], "Be terse")
	}
	if len(req.SystemPrompts) != 2 {
		t.Fatalf("len(SystemPrompts) = %d, want 2", len(req.SystemPrompts))
	}
}

func TestNewInvocationRequest_NoSystemPrompts(t *testing.T) {
	req := NewInvocationRequest("gpt-4o", nil, "Say hi")
	if req.SystemPrompts != nil {
		t.Errorf("SystemPrompts = %v, want nil", req.SystemPrompts)
	}
}

func TestEventKind_String(t *testing.T) {
	tests := map[EventKind]string{
		EventText:     "text",
		EventEnd:      "end",
		EventOther:    "other",
		EventKind(42): "other",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("EventKind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Errorf("RequestID(empty) = %q, want empty", got)
	}
	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("RequestID = %q, want %q", got, "req-123")
	}
}
