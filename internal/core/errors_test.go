package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "error with provider and status",
			err: &Error{
				Type:       ErrorTypeTransport,
				Message:    "upstream error",
				StatusCode: http.StatusUnauthorized,
				Provider:   "openai",
			},
			expected: "[openai] transport_error (status 401): upstream error",
		},
		{
			name: "error without provider",
			err: &Error{
				Type:    ErrorTypeExpression,
				Message: "bad expression",
			},
			expected: "expression_error: bad expression",
		},
		{
			name:     "incomplete stream",
			err:      NewIncompleteStreamError("anthropic"),
			expected: "[anthropic] incomplete_stream: stream closed before the end of the turn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	err := NewTransportError("openai", 0, "wrapped error", originalErr)

	if unwrapped := err.Unwrap(); unwrapped != originalErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, originalErr)
	}
	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should find the original error")
	}
}

func TestIsType(t *testing.T) {
	setup := NewSetupError("openai", "missing API key", nil)
	wrapped := fmt.Errorf("building step: %w", setup)

	if !IsType(wrapped, ErrorTypeSetup) {
		t.Error("IsType(wrapped, setup) = false, want true")
	}
	if IsType(wrapped, ErrorTypeTransport) {
		t.Error("IsType(wrapped, transport) = true, want false")
	}
	if IsType(errors.New("plain"), ErrorTypeSetup) {
		t.Error("IsType(plain, setup) = true, want false")
	}
	if IsType(nil, ErrorTypeSetup) {
		t.Error("IsType(nil, setup) = true, want false")
	}
}

func TestParseProviderError(t *testing.T) {
	tests := []struct {
		name            string
		statusCode      int
		body            []byte
		expectedMessage string
	}{
		{
			name:            "openai error envelope",
			statusCode:      http.StatusUnauthorized,
			body:            []byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`),
			expectedMessage: "Invalid API key",
		},
		{
			name:            "flat message",
			statusCode:      http.StatusBadRequest,
			body:            []byte(`{"message": "model not found"}`),
			expectedMessage: "model not found",
		},
		{
			name:            "plain text body",
			statusCode:      http.StatusBadGateway,
			body:            []byte("upstream exploded\n"),
			expectedMessage: "upstream exploded",
		},
		{
			name:            "empty body falls back to status text",
			statusCode:      http.StatusServiceUnavailable,
			body:            nil,
			expectedMessage: "Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseProviderError("openai", tt.statusCode, tt.body, nil)

			if err.Type != ErrorTypeTransport {
				t.Errorf("Type = %v, want %v", err.Type, ErrorTypeTransport)
			}
			if err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.statusCode)
			}
			if err.Message != tt.expectedMessage {
				t.Errorf("Message = %q, want %q", err.Message, tt.expectedMessage)
			}
			if err.Provider != "openai" {
				t.Errorf("Provider = %q, want %q", err.Provider, "openai")
			}
		})
	}
}
