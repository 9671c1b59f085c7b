// Package core defines the data model, the invoker contract and the error
// taxonomy shared by every provider.
package core

import "context"

// FragmentFunc receives text fragments in arrival order. Returning an error
// aborts the stream; the error is returned unchanged from Invoke.
type FragmentFunc func(text string) error

// Invoker issues one streaming completion request per call.
type Invoker interface {
	// Invoke sends req and forwards every text fragment to onFragment before
	// reading the next one. It returns nil only after the provider signalled
	// the end of the turn.
	Invoke(ctx context.Context, req *InvocationRequest, onFragment FragmentFunc) error

	// Name identifies the provider for logs and metrics.
	Name() string
}
