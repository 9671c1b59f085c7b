// Package streaming turns provider wire formats into the normalized
// core.StreamEvent sequence.
//
// Two decoders are provided:
//   - LineDecoder reassembles a line-delimited event stream ("data: " lines
//     terminated by "data: [DONE]") from arbitrarily split byte chunks and
//     decodes each line as a chat-completion delta record.
//   - EventDecoder maps already-framed push events (content deltas and
//     the stop of a text content block) onto the same alphabet.
//
// Forward drives either one, forwarding text to the caller and enforcing
// that a turn ends with an explicit End event.
package streaming
