package codey

import "context"

// Provider is a strategy pattern interface for remote generation services.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Generator is implemented by providers with a native non-streaming call.
// [Complete] uses it when available and drains a stream otherwise.
type Generator interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}
