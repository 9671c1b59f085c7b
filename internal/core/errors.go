package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an invocation failure.
type ErrorType string

const (
	// ErrorTypeSetup indicates missing credentials or an invalid request,
	// detected before any network I/O.
	ErrorTypeSetup ErrorType = "setup_error"
	// ErrorTypeTransport indicates a connection failure, timeout or a
	// non-success status from the provider.
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeIncompleteStream indicates the stream closed without an
	// end-of-turn signal.
	ErrorTypeIncompleteStream ErrorType = "incomplete_stream"
	// ErrorTypeExpression indicates a pass expression that does not compile.
	ErrorTypeExpression ErrorType = "expression_error"
	// ErrorTypeEvaluation indicates a pass expression that failed at runtime
	// or did not produce a boolean.
	ErrorTypeEvaluation ErrorType = "evaluation_error"
)

// Error is the base error type for every failure that crosses the core
// boundary.
type Error struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		fmt.Fprintf(&b, "[%s] ", e.Provider)
	}
	b.WriteString(string(e.Type))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap implements the error unwrapping interface
func (e *Error) Unwrap() error {
	return e.Err
}

// IsType reports whether err, or an error it wraps, is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// NewSetupError creates an error for failures detected before any I/O.
func NewSetupError(provider, message string, err error) *Error {
	return &Error{
		Type:     ErrorTypeSetup,
		Message:  message,
		Provider: provider,
		Err:      err,
	}
}

// NewTransportError creates an error for connection or status failures.
// statusCode is 0 when no HTTP response was received.
func NewTransportError(provider string, statusCode int, message string, err error) *Error {
	return &Error{
		Type:       ErrorTypeTransport,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Err:        err,
	}
}

// NewIncompleteStreamError creates an error for a stream that ended without
// an end-of-turn event.
func NewIncompleteStreamError(provider string) *Error {
	return &Error{
		Type:     ErrorTypeIncompleteStream,
		Message:  "stream closed before the end of the turn",
		Provider: provider,
	}
}

// NewExpressionError creates an error for a pass expression that does not compile.
func NewExpressionError(message string, err error) *Error {
	return &Error{
		Type:    ErrorTypeExpression,
		Message: message,
		Err:     err,
	}
}

// NewEvaluationError creates an error for a pass expression that could not
// produce a verdict.
func NewEvaluationError(message string, err error) *Error {
	return &Error{
		Type:    ErrorTypeEvaluation,
		Message: message,
		Err:     err,
	}
}

// ParseProviderError turns a non-success provider response into a transport
// error, extracting the provider's own message when the body is a JSON error
// envelope. Both {"error":{"message":...}} and {"message":...} are understood.
func ParseProviderError(provider string, statusCode int, body []byte, originalErr error) *Error {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
		Message string `json:"message"`
	}

	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &errorResponse); err == nil {
		switch {
		case errorResponse.Error.Message != "":
			message = errorResponse.Error.Message
		case errorResponse.Message != "":
			message = errorResponse.Message
		}
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return NewTransportError(provider, statusCode, message, originalErr)
}
