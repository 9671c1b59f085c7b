package core

import "context"

type requestIDKey struct{}

// WithRequestID attaches the invocation's request ID to ctx. Providers that
// support client request IDs forward it upstream.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
