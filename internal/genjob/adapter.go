package genjob

import (
	"context"

	"mediaforge/internal/domain"
)

// Submission is the outcome of one provider submit call. Exactly one of
// Result (immediate-result backends) or OperationHandle (long-running
// operations) is set.
type Submission struct {
	Result          *domain.Result
	OperationHandle string
}

// Operation is the reported state of a long-running provider operation.
// Error carries a provider-signaled failure message; it is only meaningful
// when Done is true.
type Operation struct {
	Done   bool
	Result *domain.Result
	Error  string
}

// Adapter translates generation requests into calls against an external
// provider. Implementations are invoked only from a Store's background
// execution path, never by external callers.
type Adapter interface {
	Backend() domain.Backend

	// Submit sends the generation request to the provider.
	Submit(ctx context.Context, req domain.Request) (*Submission, error)

	// Poll re-queries a long-running operation. Each call is independent;
	// no session state beyond the handle is required.
	Poll(ctx context.Context, handle string) (*Operation, error)

	// FetchArtifact downloads a remotely hosted artifact, returning its
	// bytes and media type.
	FetchArtifact(ctx context.Context, uri string) ([]byte, string, error)
}
