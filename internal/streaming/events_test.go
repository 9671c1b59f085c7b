package streaming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipellm/internal/core"
)

func TestEventDecoder_Decode(t *testing.T) {
	tests := []struct {
		name  string
		event MessageEvent
		want  core.StreamEvent
	}{
		{"text delta", MessageEvent{Type: EventContentBlockDelta, DeltaType: DeltaText, Text: "Hi"}, core.TextFragment("Hi")},
		{"untyped delta", MessageEvent{Type: EventContentBlockDelta, Text: "!"}, core.TextFragment("!")},
		{"json delta ignored", MessageEvent{Type: EventContentBlockDelta, DeltaType: "input_json_delta", Text: "{"}, core.Other()},
		{"thinking delta ignored", MessageEvent{Type: EventContentBlockDelta, DeltaType: "thinking_delta"}, core.Other()},
		{"stop outside a text block", MessageEvent{Type: EventContentBlockStop}, core.Other()},
		{"message start", MessageEvent{Type: "message_start"}, core.Other()},
		{"block start", MessageEvent{Type: EventContentBlockStart, BlockType: BlockText}, core.Other()},
		{"message delta", MessageEvent{Type: "message_delta"}, core.Other()},
		{"message stop", MessageEvent{Type: "message_stop"}, core.Other()},
		{"ping", MessageEvent{Type: "ping"}, core.Other()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d EventDecoder
			assert.Equal(t, tt.want, d.Decode(tt.event))
		})
	}
}

func decodeAll(events ...MessageEvent) []core.StreamEvent {
	var d EventDecoder
	out := make([]core.StreamEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, d.Decode(ev))
	}
	return out
}

func TestEventDecoder_TextBlockStopEndsTurn(t *testing.T) {
	got := decodeAll(
		MessageEvent{Type: EventContentBlockStart, BlockType: BlockText},
		MessageEvent{Type: EventContentBlockDelta, DeltaType: DeltaText, Text: "ok"},
		MessageEvent{Type: EventContentBlockStop},
	)

	assert.Equal(t, []core.StreamEvent{core.Other(), core.TextFragment("ok"), core.End()}, got)
}

func TestEventDecoder_ThinkingBlockDoesNotEndTurn(t *testing.T) {
	got := decodeAll(
		MessageEvent{Type: EventContentBlockStart, BlockType: "thinking"},
		MessageEvent{Type: EventContentBlockDelta, DeltaType: "thinking_delta"},
		MessageEvent{Type: EventContentBlockStop},
		MessageEvent{Type: EventContentBlockStart, BlockType: BlockText},
		MessageEvent{Type: EventContentBlockDelta, DeltaType: DeltaText, Text: "answer"},
		MessageEvent{Type: EventContentBlockStop},
	)

	assert.Equal(t, []core.StreamEvent{
		core.Other(), core.Other(), core.Other(),
		core.Other(), core.TextFragment("answer"), core.End(),
	}, got)
}

func TestEventDecoder_ToolBlockAfterStartIsIgnored(t *testing.T) {
	got := decodeAll(
		MessageEvent{Type: EventContentBlockStart, BlockType: "tool_use"},
		MessageEvent{Type: EventContentBlockDelta, DeltaType: "input_json_delta", Text: "{}"},
		MessageEvent{Type: EventContentBlockStop},
	)

	assert.Equal(t, []core.StreamEvent{core.Other(), core.Other(), core.Other()}, got)
}
