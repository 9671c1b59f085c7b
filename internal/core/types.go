package core

// InvocationRequest is a single-turn prompt sent to one provider.
// Construct it with NewInvocationRequest and do not mutate it afterwards.
type InvocationRequest struct {
	Model         string   `json:"model"`
	SystemPrompts []string `json:"system_prompts,omitempty"`
	UserText      string   `json:"user_text"`
}

// NewInvocationRequest builds a request, copying the system prompts so the
// caller's slice can be reused.
func NewInvocationRequest(model string, systemPrompts []string, userText string) *InvocationRequest {
	var prompts []string
	if len(systemPrompts) > 0 {
		prompts = make([]string, len(systemPrompts))
		copy(prompts, systemPrompts)
	}
	return &InvocationRequest{
		Model:         model,
		SystemPrompts: prompts,
		UserText:      userText,
	}
}

// EventKind tags a StreamEvent.
type EventKind int

const (
	// EventOther is a provider event that carries nothing for the caller.
	EventOther EventKind = iota
	// EventText carries one incremental text fragment.
	EventText
	// EventEnd marks the end of the turn. No events follow it.
	EventEnd
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventEnd:
		return "end"
	default:
		return "other"
	}
}

// StreamEvent is one normalized event decoded from a provider stream.
type StreamEvent struct {
	Kind EventKind
	Text string
}

// TextFragment returns a text event.
func TextFragment(text string) StreamEvent {
	return StreamEvent{Kind: EventText, Text: text}
}

// End returns the terminal event.
func End() StreamEvent {
	return StreamEvent{Kind: EventEnd}
}

// Other returns an ignored event.
func Other() StreamEvent {
	return StreamEvent{Kind: EventOther}
}

// InvocationResult is the concatenation of every fragment of one turn.
type InvocationResult struct {
	Content string `json:"content"`
}

// Output is the pipeline result reported to the process boundary.
type Output struct {
	Content string `json:"content"`
	Pass    bool   `json:"pass"`
}
