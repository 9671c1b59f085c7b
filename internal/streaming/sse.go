package streaming

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/tidwall/gjson"

	"pipellm/internal/core"
)

// DefaultChunkSize is the largest read issued against a stream body.
const DefaultChunkSize = 4096

var (
	dataPrefix   = []byte("data:")
	doneSentinel = []byte("[DONE]")
)

// LineDecoder decodes a chat-completion event stream delivered in chunks
// that need not align with line boundaries. It is not safe for concurrent use.
type LineDecoder struct {
	buf      []byte
	done     bool
	skipped  int
	errorMsg string
}

// NewLineDecoder returns an empty decoder.
func NewLineDecoder() *LineDecoder {
	return &LineDecoder{}
}

// Write consumes one chunk and returns the events completed by it, in order.
// Input after the End event is discarded.
func (d *LineDecoder) Write(chunk []byte) []core.StreamEvent {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var events []core.StreamEvent
	start := 0
	for !d.done {
		i := bytes.IndexByte(d.buf[start:], '\n')
		if i < 0 {
			break
		}
		events = d.decodeLine(d.buf[start:start+i], events)
		start += i + 1
	}

	if d.done {
		d.buf = nil
		return events
	}
	// Keep the partial trailing line for the next chunk.
	d.buf = append(d.buf[:0], d.buf[start:]...)
	return events
}

// Flush decodes a final line that was not newline-terminated. Call it once
// the underlying stream is exhausted.
func (d *LineDecoder) Flush() []core.StreamEvent {
	if d.done || len(d.buf) == 0 {
		return nil
	}
	line := d.buf
	d.buf = nil
	return d.decodeLine(line, nil)
}

// Done reports whether the End event has been produced.
func (d *LineDecoder) Done() bool {
	return d.done
}

// Skipped returns how many data lines were dropped as unparseable.
func (d *LineDecoder) Skipped() int {
	return d.skipped
}

// ProviderError returns the message of the last error record the provider
// sent inside the stream, or "".
func (d *LineDecoder) ProviderError() string {
	return d.errorMsg
}

func (d *LineDecoder) decodeLine(line []byte, events []core.StreamEvent) []core.StreamEvent {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 || line[0] == ':' {
		return events
	}

	data, ok := bytes.CutPrefix(line, dataPrefix)
	if !ok {
		// event:, id:, retry: and unknown fields carry nothing we use.
		return events
	}
	data = bytes.TrimPrefix(data, []byte(" "))

	if bytes.Equal(bytes.TrimSpace(data), doneSentinel) {
		d.done = true
		return append(events, core.End())
	}

	return d.decodeRecord(data, events)
}

// decodeRecord handles one delta record:
//
//	{"choices":[{"delta":{"content":"Hi"},"finish_reason":null}]}
func (d *LineDecoder) decodeRecord(data []byte, events []core.StreamEvent) []core.StreamEvent {
	if !gjson.ValidBytes(data) {
		return d.skip(data, events)
	}
	record := gjson.ParseBytes(data)
	choices := record.Get("choices")
	if !record.IsObject() || !choices.IsArray() {
		if msg := record.Get("error.message"); msg.Exists() {
			d.errorMsg = msg.String()
			slog.Warn("provider reported an error inside the stream", "message", d.errorMsg)
		}
		return d.skip(data, events)
	}

	first := choices.Get("0")
	if !first.Exists() {
		// Usage-only records have an empty choices array.
		return events
	}

	// The role-only opening record carries "content":"".
	if content := first.Get("delta.content"); content.Type == gjson.String && content.Str != "" {
		events = append(events, core.TextFragment(content.String()))
	}
	if finish := first.Get("finish_reason"); finish.Exists() && finish.Type != gjson.Null {
		d.done = true
		events = append(events, core.End())
	}
	return events
}

func (d *LineDecoder) skip(data []byte, events []core.StreamEvent) []core.StreamEvent {
	d.skipped++
	slog.Debug("skipping undecodable stream record", "bytes", len(data), "preview", preview(data))
	return events
}

func preview(data []byte) string {
	const limit = 80
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

// ChatStream reads a chat-completion event stream from a response body one
// chunk at a time.
type ChatStream struct {
	provider string
	body     io.ReadCloser
	decoder  *LineDecoder
	chunk    []byte
	pending  []core.StreamEvent
	eof      bool
}

// NewChatStream wraps body. provider names the source in errors.
func NewChatStream(provider string, body io.ReadCloser) *ChatStream {
	return NewChatStreamSize(provider, body, DefaultChunkSize)
}

// NewChatStreamSize is NewChatStream with an explicit read size.
func NewChatStreamSize(provider string, body io.ReadCloser, chunkSize int) *ChatStream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChatStream{
		provider: provider,
		body:     body,
		decoder:  NewLineDecoder(),
		chunk:    make([]byte, chunkSize),
	}
}

// Next returns the next decoded event. Every event decoded from a chunk is
// returned before another chunk is read. It returns io.EOF once the body is
// exhausted or the End event has been returned. A body that ends after an
// in-stream error record yields a transport error carrying its message.
func (s *ChatStream) Next() (core.StreamEvent, error) {
	for len(s.pending) == 0 {
		if s.decoder.Done() {
			return core.StreamEvent{}, io.EOF
		}
		if s.eof {
			if msg := s.decoder.ProviderError(); msg != "" {
				return core.StreamEvent{}, core.NewTransportError(s.provider, 0, msg, nil)
			}
			return core.StreamEvent{}, io.EOF
		}

		n, err := s.body.Read(s.chunk)
		if n > 0 {
			s.pending = append(s.pending, s.decoder.Write(s.chunk[:n])...)
		}
		switch {
		case err == io.EOF:
			s.eof = true
			s.pending = append(s.pending, s.decoder.Flush()...)
		case err != nil:
			return core.StreamEvent{}, core.NewTransportError(s.provider, 0, "stream read failed: "+err.Error(), err)
		}
	}

	event := s.pending[0]
	s.pending = s.pending[1:]
	return event, nil
}

// Skipped returns how many records were dropped so far.
func (s *ChatStream) Skipped() int {
	return s.decoder.Skipped()
}

// Close closes the underlying body.
func (s *ChatStream) Close() error {
	return s.body.Close()
}
