package streaming

import "pipellm/internal/core"

// Push event kinds understood by EventDecoder.
const (
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	DeltaText              = "text_delta"
	BlockText              = "text"
)

// MessageEvent is one already-framed push event, reduced to the fields the
// decoder looks at. BlockType is only set on content block starts.
type MessageEvent struct {
	Type      string
	DeltaType string
	BlockType string
	Text      string
}

// EventDecoder maps push events onto the normalized alphabet. Content deltas
// that carry text become fragments. A content block stop ends the turn only
// when it closes a text block; stops of thinking or tool blocks are ignored
// like every other kind. Use one decoder per stream.
type EventDecoder struct {
	inText bool
}

// Decode maps one event.
func (d *EventDecoder) Decode(ev MessageEvent) core.StreamEvent {
	switch ev.Type {
	case EventContentBlockStart:
		d.inText = ev.BlockType == BlockText
		return core.Other()
	case EventContentBlockDelta:
		if ev.DeltaType == DeltaText || ev.DeltaType == "" {
			d.inText = true
			return core.TextFragment(ev.Text)
		}
		return core.Other()
	case EventContentBlockStop:
		if !d.inText {
			return core.Other()
		}
		d.inText = false
		return core.End()
	default:
		return core.Other()
	}
}
